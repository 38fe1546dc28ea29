package cog

import "github.com/pspoerri/geotiff2raster/internal/raster"

// GeoTIFF GeoKey IDs (GeoTIFF 1.1, subset actually consulted).
const (
	gkModelTypeGeoKey       = 1024
	gkRasterTypeGeoKey      = 1025
	gkGeographicTypeGeoKey  = 2048
	gkProjectedCSTypeGeoKey = 3072
)

// parseGeoreference derives a raster.Georeference from an IFD's GeoTIFF
// tags: ModelTransformation takes priority, else ModelTiepoint +
// ModelPixelScale (§4.G step 7). Returns false if neither is present.
func parseGeoreference(ifd *IFD) (raster.Georeference, bool) {
	crs := crsString(parseEPSG(ifd.GeoKeys))

	if len(ifd.ModelTransform) >= 16 {
		m := ifd.ModelTransform
		// ModelTransformationTag is a 4x4 matrix in row-major order; only
		// the top-left 2x3 block (plus translation) is meaningful for a
		// 2-D raster with no elevation/rotation in Z.
		return raster.Georeference{
			Affine: [6]float64{m[3], m[0], m[1], m[7], m[4], m[5]},
			CRS:    crs,
		}, true
	}

	if len(ifd.ModelPixelScale) >= 2 && len(ifd.ModelTiepoint) >= 6 {
		sx := ifd.ModelTiepoint[3] - ifd.ModelTiepoint[0]*ifd.ModelPixelScale[0]
		sy := ifd.ModelTiepoint[4] + ifd.ModelTiepoint[1]*ifd.ModelPixelScale[1]
		return raster.NewAxisAlignedGeoref(sx, ifd.ModelPixelScale[0], sy, ifd.ModelPixelScale[1], crs), true
	}

	return raster.Georeference{}, false
}

func crsString(epsg int) string {
	if epsg == 0 {
		return ""
	}
	return epsgPrefix + itoa(epsg)
}

const epsgPrefix = "EPSG:"

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// parseEPSG extracts the projected- or geographic-CS EPSG code from a
// GeoKeyDirectory, or 0 if none is recognized. Entries for unrecognized
// codes (e.g. user-defined = 32767) are ignored; the caller is expected to
// treat a zero result as "unrecognized CRS, pass through verbatim" per
// §4.G step 7 (there being no ASCII CRS string tag in the accepted subset,
// an unrecognized code simply yields an ungeoreferenced-CRS raster).
func parseEPSG(geoKeys []uint16) int {
	if len(geoKeys) < 4 {
		return 0
	}
	numKeys := int(geoKeys[3])
	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(geoKeys) {
			break
		}
		keyID := geoKeys[base]
		valueOffset := geoKeys[base+3]
		switch keyID {
		case gkProjectedCSTypeGeoKey, gkGeographicTypeGeoKey:
			if valueOffset > 0 && valueOffset != 32767 {
				return int(valueOffset)
			}
		}
	}
	return 0
}
