package tilemath

import (
	"math"
	"testing"
)

func TestForEPSGKnownCodes(t *testing.T) {
	cases := []int{2056, 4326, 3857}
	for _, epsg := range cases {
		p := ForEPSG(epsg)
		if p == nil {
			t.Fatalf("ForEPSG(%d) = nil", epsg)
		}
		if p.EPSG() != epsg {
			t.Errorf("ForEPSG(%d).EPSG() = %d", epsg, p.EPSG())
		}
	}
}

func TestForEPSGUnknown(t *testing.T) {
	if ForEPSG(9999) != nil {
		t.Error("expected nil projection for unsupported EPSG code")
	}
}

func TestWGS84IdentityNoop(t *testing.T) {
	var p WGS84Identity
	lon, lat := p.ToWGS84(8.5, 47.3)
	if lon != 8.5 || lat != 47.3 {
		t.Errorf("ToWGS84 = (%v,%v), want (8.5,47.3)", lon, lat)
	}
	x, y := p.FromWGS84(8.5, 47.3)
	if x != 8.5 || y != 47.3 {
		t.Errorf("FromWGS84 = (%v,%v), want (8.5,47.3)", x, y)
	}
}

func TestSwissLV95RoundTrip(t *testing.T) {
	var s SwissLV95
	// Bern, approx easting/northing near the reference point.
	easting, northing := 2_600_000.0, 1_200_000.0
	lon, lat := s.ToWGS84(easting, northing)
	backE, backN := s.FromWGS84(lon, lat)
	if math.Abs(backE-easting) > 1.0 || math.Abs(backN-northing) > 1.0 {
		t.Errorf("SwissLV95 roundtrip = (%v,%v), want ~(%v,%v)", backE, backN, easting, northing)
	}
}
