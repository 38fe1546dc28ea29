// Package cog parses Cloud Optimized GeoTIFF containers: TIFF/BigTIFF IFD
// chains, GeoTIFF georeferencing tags, and GDAL's metadata/statistics
// extension, down to per-overview chunk location tables — without reading
// any pixel data. Pixel decode lives in decode.go (tile decoder, §4.I) and
// codec.go/predictor.go (§4.H).
package cog

import (
	"encoding/binary"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pspoerri/geotiff2raster/internal/logging"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/tiffio"
)

var log = logging.New("cog")

// initialHeaderWindow is N in §4.G step 1.
const initialHeaderWindow = 64 * 1024

// maxHeaderWindow bounds the doubling retry loop so a truly corrupt file
// fails instead of growing the buffer without limit.
const maxHeaderWindow = 256 * 1024 * 1024

// ChunkLocation is the byte range of one tile or strip within the source
// file. Size == 0 marks a sparse chunk (no data written for that region).
type ChunkLocation struct {
	Offset uint64
	Size   uint64
}

// Empty reports whether c is the sparse-chunk sentinel.
func (c ChunkLocation) Empty() bool { return c.Size == 0 }

// Level is one resolution level of the COG's pyramid: the main image (the
// first element of Metadata.Levels) or one overview.
type Level struct {
	Width, Height   int
	ChunkWidth      int
	ChunkHeight     int
	ChunksAcross    int
	ChunksDown      int
	Chunks          []ChunkLocation // row-major, length ChunksAcross*ChunksDown
	Compression     uint16
	Predictor       uint16
	Geo             raster.Georeference
}

// CellSize returns the level's cell size in CRS units, used to sort the
// pyramid coarsest-to-finest and to pick an overview for a given web-tile
// zoom (§4.J).
func (l *Level) CellSize() float64 {
	w, h := l.Geo.PixelSize()
	if w == 0 {
		return h
	}
	if h == 0 {
		return w
	}
	return (w + h) / 2
}

// Metadata is everything the parser extracts about a COG without reading
// pixel data: dtype, nodata, the resolution pyramid, and statistics.
type Metadata struct {
	DType      raster.DType
	ByteOrder  binary.ByteOrder
	Nodata     *float64
	Levels     []Level // Levels[0] is the main (highest-resolution) image
	Stats      Statistics
	MaxZoom    int
	HasMaxZoom bool
}

// Open buffers src's header (doubling the window and retrying on
// EOF-partial, per §4.G step 1) and parses the full IFD chain into
// Metadata.
func Open(src io.ReadSeeker) (*Metadata, error) {
	window := initialHeaderWindow
	hr, err := tiffio.Open(src, window)
	if err != nil {
		return nil, rastererr.IO("cog.Open", err)
	}
	for {
		if _, err := hr.Seek(0, io.SeekStart); err != nil {
			return nil, rastererr.IO("cog.Open", err)
		}
		meta, err := parse(hr)
		if err == nil {
			return meta, nil
		}
		kind, ok := rastererr.KindOf(err)
		if !ok || kind != rastererr.EOFPartial || window >= maxHeaderWindow {
			if ok && kind == rastererr.EOFPartial {
				return nil, rastererr.Format("cog.Open", "truncated COG even at max header window (%d bytes): %v", window, err)
			}
			return nil, err
		}
		window *= 2
		log.Warn().Int("window", window/2).Int("next_window", window).Msg("header window too small, retrying with a larger buffer")
		if err := hr.Grow(window); err != nil {
			return nil, rastererr.IO("cog.Open", err)
		}
	}
}

func parse(r io.ReadSeeker) (*Metadata, error) {
	ifds, bo, err := parseTIFF(r)
	if err != nil {
		return nil, err
	}

	main, overviews := splitMainAndOverviews(ifds)
	if main == nil {
		return nil, rastererr.Format("cog.parse", "no main (non-reduced) IFD found")
	}

	dtype, ok := raster.DTypeFromTIFFTags(sampleFormatOf(main), bitsPerSampleOf(main))
	if !ok {
		return nil, rastererr.Format("cog.parse", "unsupported sample format/bits-per-sample combination")
	}

	allIFDs := append([]*IFD{main}, overviews...)
	levels := make([]Level, 0, len(allIFDs))
	for _, ifd := range allIFDs {
		lvl, err := validateAndBuildLevel(ifd, dtype)
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}

	// Sort overviews (everything after the main image) by cell size
	// descending -> ascending resolution order expected by callers, while
	// keeping the main image first regardless of its own cell size
	// (§4.G step 3: "tolerates out-of-order overview IFDs").
	rest := levels[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].CellSize() > rest[j].CellSize()
	})

	stats, scheme := parseGDALMetadata(main.GDALMetadataXML)
	if scheme.Name != "" && scheme.Name != googleMapsCompatible {
		return nil, rastererr.Format("cog.parse", "unsupported tiling scheme %q (only %s is supported)", scheme.Name, googleMapsCompatible)
	}

	meta := &Metadata{
		DType:      dtype,
		ByteOrder:  bo,
		Levels:     levels,
		Stats:      stats,
		MaxZoom:    scheme.ZoomLevel,
		HasMaxZoom: scheme.HasZoomLevel,
	}
	if main.GDALNoData != "" {
		if nd, err := strconv.ParseFloat(strings.TrimSpace(main.GDALNoData), 64); err == nil {
			meta.Nodata = &nd
		}
	}
	return meta, nil
}

func splitMainAndOverviews(ifds []IFD) (*IFD, []*IFD) {
	var main *IFD
	var overviews []*IFD
	for i := range ifds {
		ifd := &ifds[i]
		if ifd.IsOverview() {
			overviews = append(overviews, ifd)
			continue
		}
		if main == nil {
			main = ifd
		} else {
			// A second non-reduced IFD is treated as a mask/aux image and
			// ignored per §4.G step 3.
			continue
		}
	}
	return main, overviews
}

func sampleFormatOf(ifd *IFD) uint16 {
	if len(ifd.SampleFormat) > 0 {
		return ifd.SampleFormat[0]
	}
	return 0
}

func bitsPerSampleOf(ifd *IFD) uint16 {
	if len(ifd.BitsPerSample) > 0 {
		return ifd.BitsPerSample[0]
	}
	return 8
}

func validateAndBuildLevel(ifd *IFD, dtype raster.DType) (Level, error) {
	if ifd.SamplesPerPixel != 1 {
		return Level{}, rastererr.Format("cog.validateAndBuildLevel", "band_count %d not supported (only single-band rasters)", ifd.SamplesPerPixel)
	}
	if ifd.Compression != compressionNone && ifd.Compression != compressionLZW {
		return Level{}, rastererr.Format("cog.validateAndBuildLevel", "unsupported compression code %d (only none and LZW)", ifd.Compression)
	}
	if ifd.Predictor != predictorNone && ifd.Predictor != predictorHorizontal && ifd.Predictor != predictorFloatingPoint {
		return Level{}, rastererr.Format("cog.validateAndBuildLevel", "unsupported predictor code %d", ifd.Predictor)
	}

	geo, hasGeo := parseGeoreference(ifd)
	if !hasGeo {
		return Level{}, rastererr.Format("cog.validateAndBuildLevel", "missing georeference (no ModelTransformation or ModelTiepoint+ModelPixelScale)")
	}

	chunkW := int(ifd.chunkWidth())
	chunkH := int(ifd.chunkHeight())
	if chunkW == 0 || chunkH == 0 {
		return Level{}, rastererr.Format("cog.validateAndBuildLevel", "zero-sized chunk layout")
	}
	across := ifd.TilesAcross()
	down := ifd.TilesDown()

	offsets := ifd.chunkOffsets()
	byteCounts := ifd.chunkByteCounts()
	if len(offsets) != len(byteCounts) || len(offsets) != across*down {
		return Level{}, rastererr.Format("cog.validateAndBuildLevel", "chunk table length mismatch: %d offsets, %d byte counts, want %d", len(offsets), len(byteCounts), across*down)
	}

	chunks := make([]ChunkLocation, len(offsets))
	for i := range offsets {
		chunks[i] = ChunkLocation{Offset: offsets[i], Size: byteCounts[i]}
	}

	return Level{
		Width:        int(ifd.Width),
		Height:       int(ifd.Height),
		ChunkWidth:   chunkW,
		ChunkHeight:  chunkH,
		ChunksAcross: across,
		ChunksDown:   down,
		Chunks:       chunks,
		Compression:  ifd.Compression,
		Predictor:    ifd.Predictor,
		Geo:          geo,
	}, nil
}

