package cog

// TIFF tag IDs used by the parser. Unknown tags are ignored by buildIFD.
const (
	tagNewSubfileType     = 254
	tagImageWidth         = 256
	tagImageLength        = 257
	tagBitsPerSample      = 258
	tagCompression        = 259
	tagPhotometric        = 262
	tagStripOffsets       = 273
	tagSamplesPerPixel    = 277
	tagRowsPerStrip       = 278
	tagStripByteCounts    = 279
	tagPlanarConfig       = 284
	tagTileWidth          = 322
	tagTileLength         = 323
	tagTileOffsets        = 324
	tagTileByteCounts     = 325
	tagPredictor          = 317
	tagSampleFormat       = 339
	tagJPEGTables         = 347
	tagModelPixelScaleTag = 33550
	tagModelTiepointTag   = 33922
	tagModelTransformTag  = 34264
	tagGeoKeyDirectoryTag = 34735
	tagGeoDoubleParamsTag = 34736
	tagGeoAsciiParamsTag  = 34737
	tagGDALMetadata       = 42112
	tagGDALNoData         = 42113
)

// TIFF field data types.
const (
	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndef     = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
	dtLong8     = 16
	dtSLong8    = 17
	dtIFD8      = 18
)

// Compression codes (§6: only none and LZW are accepted for decode).
const (
	compressionNone = 1
	compressionLZW  = 5
)

// Predictor codes (§4.H).
const (
	predictorNone         = 1
	predictorHorizontal   = 2
	predictorFloatingPoint = 3
)

// subfileTypeReduced is the NewSubfileType bit that marks an IFD as a
// reduced-resolution (overview) image rather than the main image or a mask.
const subfileTypeReduced = 1

// IFD is a single parsed TIFF Image File Directory: one full-resolution
// image or one overview level.
type IFD struct {
	Subfile         uint32
	Width           uint32
	Height          uint32
	TileWidth       uint32
	TileHeight      uint32
	RowsPerStrip    uint32
	BitsPerSample   []uint16
	SampleFormat    []uint16
	SamplesPerPixel uint16
	Compression     uint16
	Predictor       uint16
	Photometric     uint16
	PlanarConfig    uint16
	TileOffsets     []uint64
	TileByteCounts  []uint64
	StripOffsets    []uint64
	StripByteCounts []uint64
	JPEGTables      []byte
	ModelTiepoint   []float64
	ModelPixelScale []float64
	ModelTransform  []float64
	GeoKeys         []uint16
	GeoDoubleParams []float64
	GeoAsciiParams  string
	GDALMetadataXML string
	GDALNoData      string
}

// IsOverview reports whether this IFD is a reduced-resolution (overview)
// image rather than the main image.
func (ifd *IFD) IsOverview() bool {
	return ifd.Subfile&subfileTypeReduced != 0
}

// IsTiled reports whether the IFD uses a tiled (vs. striped) layout.
func (ifd *IFD) IsTiled() bool {
	return ifd.TileWidth > 0 && ifd.TileHeight > 0
}

// TilesAcross returns the number of chunk columns.
func (ifd *IFD) TilesAcross() int {
	edge := ifd.chunkWidth()
	return int((ifd.Width + edge - 1) / edge)
}

// TilesDown returns the number of chunk rows.
func (ifd *IFD) TilesDown() int {
	edge := ifd.chunkHeight()
	return int((ifd.Height + edge - 1) / edge)
}

func (ifd *IFD) chunkWidth() uint32 {
	if ifd.IsTiled() {
		return ifd.TileWidth
	}
	return ifd.Width
}

func (ifd *IFD) chunkHeight() uint32 {
	if ifd.IsTiled() {
		return ifd.TileHeight
	}
	if ifd.RowsPerStrip == 0 {
		return ifd.Height
	}
	return ifd.RowsPerStrip
}

// chunkOffsets/chunkByteCounts normalize the tiled/striped distinction so
// the rest of the parser and the decoder never branch on layout again.
func (ifd *IFD) chunkOffsets() []uint64 {
	if ifd.IsTiled() {
		return ifd.TileOffsets
	}
	return ifd.StripOffsets
}

func (ifd *IFD) chunkByteCounts() []uint64 {
	if ifd.IsTiled() {
		return ifd.TileByteCounts
	}
	return ifd.StripByteCounts
}

// tiffEntry is a raw, not-yet-interpreted TIFF directory entry.
type tiffEntry struct {
	Tag      uint16
	DataType uint16
	Count    uint64
	Value    []byte
}

func dataTypeSize(dt uint16) int {
	switch dt {
	case dtByte, dtASCII, dtSByte, dtUndef:
		return 1
	case dtShort, dtSShort:
		return 2
	case dtLong, dtSLong, dtFloat, dtIFD8:
		return 4
	case dtRational, dtSRational, dtDouble, dtLong8, dtSLong8:
		return 8
	default:
		return 1
	}
}
