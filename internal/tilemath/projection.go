package tilemath

// SourceProjection converts between a COG's native CRS and WGS84 lon/lat, so
// a web-tile request (always WGS84/Web Mercator) can be mapped onto a source
// raster stored in a different CRS. The set of supported source CRSes is
// fixed (non-goal: dynamic reprojection between arbitrary CRS pairs).
type SourceProjection interface {
	ToWGS84(x, y float64) (lon, lat float64)
	FromWGS84(lon, lat float64) (x, y float64)
	EPSG() int
}

// ForEPSG returns the SourceProjection for epsg, or nil if unsupported.
func ForEPSG(epsg int) SourceProjection {
	switch epsg {
	case 2056:
		return SwissLV95{}
	case 4326:
		return WGS84Identity{}
	case 3857:
		return WebMercatorProj{}
	default:
		return nil
	}
}

// WGS84Identity is a no-op projection for sources already in EPSG:4326.
type WGS84Identity struct{}

func (WGS84Identity) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (WGS84Identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (WGS84Identity) EPSG() int                                 { return 4326 }
