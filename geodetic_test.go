package gnssl1

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// S3 — ECEF -> Geodetic at two landmark points.
func TestToLLHEquatorPoint(t *testing.T) {
	assert := assert.New(t)
	pos := PosXYZ{X: Re, Y: 0, Z: 0}
	llh := pos.ToLLH()
	assert.InDelta(0, llh.Lat, 1e-6)
	assert.InDelta(0, llh.Lon, 1e-6)
	assert.InDelta(0, llh.Hei, 1e-3)
}

func TestToLLHPolePoint(t *testing.T) {
	assert := assert.New(t)
	b := Re * (1 - Fe)
	pos := PosXYZ{X: 0, Y: 0, Z: b}
	llh := pos.ToLLH()
	assert.InDelta(PI/2, llh.Lat, 1e-6)
	assert.InDelta(0, llh.Hei, 1e-3)
}

// Round-trip law: ecef_to_geodetic . geodetic_to_ecef = id within 1mm
// for altitudes up to 10km.
func TestRoundTripLawWithinOneMillimeter(t *testing.T) {
	cases := []PosLLH{
		{Lat: ToRad(0), Lon: ToRad(0), Hei: 0},
		{Lat: ToRad(35.6812), Lon: ToRad(139.7671), Hei: 40},
		{Lat: ToRad(-33.8688), Lon: ToRad(151.2093), Hei: 100},
		{Lat: ToRad(89.5), Lon: ToRad(-120), Hei: 10000},
		{Lat: ToRad(-89.5), Lon: ToRad(60), Hei: -10},
	}
	for _, want := range cases {
		xyz := want.ToXYZ()
		got := xyz.ToLLH()

		wxyz := want.ToXYZ()
		gxyz := got.ToXYZ()
		d := math.Sqrt(SQ(wxyz.X-gxyz.X) + SQ(wxyz.Y-gxyz.Y) + SQ(wxyz.Z-gxyz.Z))
		if d > 1e-3 {
			t.Fatalf("round trip for %+v drifted %.6f m in ECEF space", want, d)
		}
	}
}

func TestToLLHOrigin(t *testing.T) {
	pos := PosXYZ{}
	llh := pos.ToLLH()
	if llh.Hei != -Re {
		t.Fatalf("origin height = %v, want %v", llh.Hei, -Re)
	}
}
