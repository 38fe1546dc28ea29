// Package provider is the thin per-layer dispatch façade hosts embed: it
// enumerates open layers and answers layer/value-range/pixel-value/tile/
// colored-tile requests by wiring internal/cog, internal/webtile and
// internal/rastertile together (§6). Its layer-metadata shape mirrors the
// generator.Config/Stats split between "what a layer is" and "what it
// produces", generalized from one fixed pipeline to any number of
// concurrently open layers.
package provider

import (
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/pspoerri/geotiff2raster/internal/cog"
	"github.com/pspoerri/geotiff2raster/internal/legacytile"
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
	"github.com/pspoerri/geotiff2raster/internal/rastertile"
	"github.com/pspoerri/geotiff2raster/internal/tilemath"
	"github.com/pspoerri/geotiff2raster/internal/webtile"
)

// Scheme is a layer's tile row axis convention, mirroring the values of
// mbtiles.Scheme; it is a distinct type, so passing it to the writer takes
// a conversion (mbtiles.Scheme(s)).
type Scheme string

const (
	XYZ Scheme = "xyz"
	TMS Scheme = "tms"
)

// LayerMetadata is the service-boundary description of one open layer.
type LayerMetadata struct {
	ID               string
	Name             string
	Description      string
	SourcePath       string
	SourceFormat     string
	DType            raster.DType
	Nodata           *float64
	MinValue         float64
	MaxValue         float64
	MinZoom          int
	MaxZoom          int
	BoundsWGS84      raster.Bounds
	EPSG             int
	TileFormat       string
	SupportsDPIRatio bool
	Scheme           Scheme
	Extra            map[string]string
}

// TileRequest identifies one web-map tile plus the pixel edge to render it
// at (HiDPI hosts request a larger edge instead of a {ratio} URL segment).
type TileRequest struct {
	Z, X, Y int
	Edge    int
}

// Legend maps a value range onto a piecewise-linear color ramp for
// ColoredTile's debug/preview rendering.
type Legend struct {
	Min, Max float64
	Stops    []color.RGBA
}

// ColoredTileRequest is a TileRequest plus the legend and output image
// format ColoredTile should render with.
type ColoredTileRequest struct {
	TileRequest
	Legend Legend
	Format string
}

type layer struct {
	meta    LayerMetadata
	src     io.ReaderAt
	cogMeta *cog.Metadata
	tiles   *webtile.Reader
}

// Provider holds every open layer a host has registered.
type Provider struct {
	mu     sync.RWMutex
	layers map[string]*layer
}

// New returns an empty Provider.
func New() *Provider {
	return &Provider{layers: make(map[string]*layer)}
}

// AddLayer opens a web-tile reader over src/meta at the given tile edge and
// registers it under id. Callers provide the descriptive fields of
// LayerMetadata (Name, SourcePath, ...); DType, Nodata, MinZoom and MaxZoom
// are filled in from the COG itself.
func (p *Provider) AddLayer(id string, src io.ReaderAt, meta *cog.Metadata, edge int, info LayerMetadata) error {
	reader, err := webtile.Open(src, meta, edge)
	if err != nil {
		return err
	}
	info.ID = id
	info.DType = meta.DType
	info.Nodata = meta.Nodata
	info.MinZoom = reader.Zmin()
	info.MaxZoom = reader.Zmax()
	info.BoundsWGS84 = raster.BoundsOf(meta.Levels[0].Geo, meta.Levels[0].Height, meta.Levels[0].Width)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.layers[id] = &layer{meta: info, src: src, cogMeta: meta, tiles: reader}
	return nil
}

func (p *Provider) get(id string) (*layer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	l, ok := p.layers[id]
	if !ok {
		return nil, rastererr.Invalid("provider", "unknown layer %q", id)
	}
	return l, nil
}

// Layers returns every registered layer's metadata.
func (p *Provider) Layers() []LayerMetadata {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]LayerMetadata, 0, len(p.layers))
	for _, l := range p.layers {
		out = append(out, l.meta)
	}
	return out
}

// Layer returns one layer's metadata.
func (p *Provider) Layer(id string) (LayerMetadata, error) {
	l, err := p.get(id)
	if err != nil {
		return LayerMetadata{}, err
	}
	return l.meta, nil
}

const valueRangeTileEdge = 256

// ValueRange scans every tile at zoom (defaulting to the layer's max zoom)
// intersecting bounds and returns the observed [min,max] over non-nodata
// pixels. found is false when bounds contains no data at all.
func (p *Provider) ValueRange(id string, bounds raster.Bounds, zoom *int) (min, max float64, found bool, err error) {
	l, err := p.get(id)
	if err != nil {
		return 0, 0, false, err
	}
	z := l.meta.MaxZoom
	if zoom != nil {
		z = *zoom
	}

	tlX, tlY := tilemath.LonLatToTile(bounds.MinX, bounds.MaxY, z)
	brX, brY := tilemath.LonLatToTile(bounds.MaxX, bounds.MinY, z)

	for ty := tlY; ty <= brY; ty++ {
		for tx := tlX; tx <= brX; tx++ {
			tile, _, err := l.tiles.Tile(z, tx, ty, valueRangeTileEdge)
			if err != nil {
				return 0, 0, false, err
			}
			tMin, tMax, tFound := scanRange(tile)
			if !tFound {
				continue
			}
			if !found || tMin < min {
				min = tMin
			}
			if !found || tMax > max {
				max = tMax
			}
			found = true
		}
	}
	return min, max, found, nil
}

// PixelValue samples the layer at a single WGS84 coordinate, returning nil
// when the point falls on a nodata pixel or outside the layer's zoom range.
// dpiRatio scales the sampling tile edge for layers that declare
// SupportsDPIRatio; it is ignored otherwise.
func (p *Provider) PixelValue(id string, lon, lat, dpiRatio float64) (*float64, error) {
	l, err := p.get(id)
	if err != nil {
		return nil, err
	}
	edge := valueRangeTileEdge
	if l.meta.SupportsDPIRatio && dpiRatio > 0 {
		edge = int(math.Round(float64(valueRangeTileEdge) * dpiRatio))
	}
	z := l.meta.MaxZoom
	tx, ty := tilemath.LonLatToTile(lon, lat, z)

	tile, geo, err := l.tiles.Tile(z, tx, ty, edge)
	if err != nil {
		return nil, err
	}
	if geo == nil {
		return nil, nil
	}
	px, py := tilemath.TilePixelCoords(lon, lat, z, tx, ty, edge)
	col, row := int(px), int(py)
	rows, cols := rowsColsOf(tile)
	if col < 0 || col >= cols || row < 0 || row >= rows {
		return nil, nil
	}
	v, nodata := valueAt(tile, row*cols+col)
	if nodata {
		return nil, nil
	}
	return &v, nil
}

// Tile renders the requested web-map tile as a raster-tile blob (§4.K).
func (p *Provider) Tile(id string, req TileRequest) ([]byte, error) {
	l, err := p.get(id)
	if err != nil {
		return nil, err
	}
	tile, _, err := l.tiles.Tile(req.Z, req.X, req.Y, req.Edge)
	if err != nil {
		return nil, err
	}
	return rastertile.Encode(tile)
}

// ColoredTile renders the requested tile through a value legend into a
// conventional image format, for debug dumps and human-facing previews
// (§1's PNG-debug-dump carve-out); it is never used on the RandomAccess
// raster-serving path.
func (p *Provider) ColoredTile(id string, req ColoredTileRequest) ([]byte, error) {
	l, err := p.get(id)
	if err != nil {
		return nil, err
	}
	tile, _, err := l.tiles.Tile(req.Z, req.X, req.Y, req.Edge)
	if err != nil {
		return nil, err
	}
	img := colorize(tile, req.Legend)

	enc, err := legacytile.NewEncoder(req.Format, 85)
	if err != nil {
		return nil, rastererr.Invalid("provider.ColoredTile", "%v", err)
	}
	out, err := enc.Encode(img)
	if err != nil {
		return nil, rastererr.Runtimef("provider.ColoredTile", "%v", err)
	}
	return out, nil
}

func colorize(a raster.AnyArray, legend Legend) image.Image {
	rows, cols := rowsColsOf(a)
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	span := legend.Max - legend.Min
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			v, nodata := valueAt(a, row*cols+col)
			var c color.RGBA
			if nodata || span == 0 || len(legend.Stops) == 0 {
				c = color.RGBA{}
			} else {
				t := (v - legend.Min) / span
				c = sampleRamp(legend.Stops, t)
			}
			img.SetNRGBA(col, row, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
	return img
}

func sampleRamp(stops []color.RGBA, t float64) color.RGBA {
	if t <= 0 {
		return stops[0]
	}
	if t >= 1 {
		return stops[len(stops)-1]
	}
	if len(stops) == 1 {
		return stops[0]
	}
	scaled := t * float64(len(stops)-1)
	i := int(scaled)
	frac := scaled - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*frac) }
	return color.RGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: lerp(a.A, b.A),
	}
}
