package cog

import (
	"encoding/xml"
	"strconv"
)

// Statistics holds the optional per-band statistics GDAL embeds in
// GDAL_METADATA.
type Statistics struct {
	Minimum, Maximum, Mean, StdDev float64
	ValidPercent                   float64
	HasStats                      bool
}

// gdalItem is one <Item name="..." ...>value</Item> element inside a
// GDAL_METADATA domain. GDAL's own metadata XML has no fixed schema beyond
// this envelope, so the parser only looks at the two attributes it needs.
type gdalItem struct {
	Name   string `xml:"name,attr"`
	Sample string `xml:"sample,attr"`
	Domain string `xml:"domain,attr"`
	Value  string `xml:",chardata"`
}

type gdalMetadata struct {
	Items []gdalItem `xml:"Item"`
}

// parseGDALMetadata parses the GDAL_METADATA tag's XML payload, extracting
// STATISTICS_* items and the GoogleMapsCompatible tiling-scheme marker
// (§4.G step 8). Malformed XML yields zero-value results rather than an
// error: the tag is optional and best-effort.
func parseGDALMetadata(raw string) (Statistics, tilingScheme) {
	if raw == "" {
		return Statistics{}, tilingScheme{}
	}
	var doc gdalMetadata
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return Statistics{}, tilingScheme{}
	}

	var stats Statistics
	var scheme tilingScheme
	for _, item := range doc.Items {
		switch item.Name {
		case "STATISTICS_MINIMUM":
			stats.Minimum, _ = strconv.ParseFloat(item.Value, 64)
			stats.HasStats = true
		case "STATISTICS_MAXIMUM":
			stats.Maximum, _ = strconv.ParseFloat(item.Value, 64)
			stats.HasStats = true
		case "STATISTICS_MEAN":
			stats.Mean, _ = strconv.ParseFloat(item.Value, 64)
		case "STATISTICS_STDDEV":
			stats.StdDev, _ = strconv.ParseFloat(item.Value, 64)
		case "STATISTICS_VALID_PERCENT":
			stats.ValidPercent, _ = strconv.ParseFloat(item.Value, 64)
		case "NAME":
			if item.Domain == "TILING_SCHEME" {
				scheme.Name = item.Value
			}
		case "ZOOM_LEVEL":
			if item.Domain == "TILING_SCHEME" {
				scheme.ZoomLevel, _ = strconv.Atoi(item.Value)
				scheme.HasZoomLevel = true
			}
		}
	}
	return stats, scheme
}

// tilingScheme records GDAL's TILING_SCHEME metadata domain. Per §1
// Non-goals, only GoogleMapsCompatible is accepted; any other declared
// scheme is a format error at parse time (checked by the caller).
type tilingScheme struct {
	Name         string
	ZoomLevel    int
	HasZoomLevel bool
}

const googleMapsCompatible = "GoogleMapsCompatible"
