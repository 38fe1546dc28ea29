package provider

import "github.com/pspoerri/geotiff2raster/internal/raster"

// valueAt returns the float64 value of the pixel at flat index idx and
// whether it equals the array's nodata sentinel, dispatching once on dtype
// (mirrors cog.arrayFromBytes' and rastertile.arrayFromBytes' per-dtype
// switch pattern).
func valueAt(a raster.AnyArray, idx int) (value float64, isNodata bool) {
	meta := a.Metadata()
	switch a.DType {
	case raster.I8:
		v := a.I8.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.U8:
		v := a.U8.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.I16:
		v := a.I16.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.U16:
		v := a.U16.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.I32:
		v := a.I32.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.U32:
		v := a.U32.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.I64:
		v := a.I64.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.U64:
		v := a.U64.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.F32:
		v := a.F32.Data.Values()[idx]
		return float64(v), meta.Nodata != nil && float64(v) == *meta.Nodata
	case raster.F64:
		v := a.F64.Data.Values()[idx]
		return v, meta.Nodata != nil && v == *meta.Nodata
	default:
		return 0, true
	}
}

func rowsColsOf(a raster.AnyArray) (rows, cols int) {
	m := a.Metadata()
	return m.Rows, m.Cols
}

// scanRange folds every non-nodata value of a into [min,max]; found is
// false when every pixel is nodata (or the array is empty).
func scanRange(a raster.AnyArray) (min, max float64, found bool) {
	rows, cols := rowsColsOf(a)
	for i := 0; i < rows*cols; i++ {
		v, nodata := valueAt(a, i)
		if nodata {
			continue
		}
		if !found || v < min {
			min = v
		}
		if !found || v > max {
			max = v
		}
		found = true
	}
	return min, max, found
}
