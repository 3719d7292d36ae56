// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gnssl1

import (
	"fmt"
	"math"
)

// PosLLH is a WGS-84 geodetic position: latitude and longitude in
// radians, height in meters above the ellipsoid.
type PosLLH struct {
	Lat float64
	Lon float64
	Hei float64
}

func NewPosLLH(lat, lon, hei float64) *PosLLH {
	return &PosLLH{Lat: lat, Lon: lon, Hei: hei}
}

// ToXYZ implements the forward geodetic->ECEF transform. It is not
// used by the pipeline; it exists so the round-trip law in the test
// suite (ecef_to_geodetic . geodetic_to_ecef = id) has a reference to
// check against.
func (llh *PosLLH) ToXYZ() PosXYZ {
	f := Fe
	a := Re
	e := math.Sqrt(f * (2 - f))

	n := a / math.Sqrt(1-e*e*math.Sin(llh.Lat)*math.Sin(llh.Lat))
	return PosXYZ{
		X: (n + llh.Hei) * math.Cos(llh.Lat) * math.Cos(llh.Lon),
		Y: (n + llh.Hei) * math.Cos(llh.Lat) * math.Sin(llh.Lon),
		Z: (n*(1-e*e) + llh.Hei) * math.Sin(llh.Lat),
	}
}

// LatDeg and LonDeg return the position in degrees, matching the
// output-array convention of §6 (receiver_lla in degrees, meters).
func (llh *PosLLH) LatDeg() float64 { return ToDeg(llh.Lat) }
func (llh *PosLLH) LonDeg() float64 { return ToDeg(llh.Lon) }

func (llh *PosLLH) String() string {
	return fmt.Sprintf("%.8f %.8f %.4f", llh.LatDeg(), llh.LonDeg(), llh.Hei)
}

// PosXYZ is an ECEF position in meters.
type PosXYZ struct {
	X float64
	Y float64
	Z float64
}

func NewPosXYZ(x, y, z float64) *PosXYZ {
	return &PosXYZ{X: x, Y: y, Z: z}
}

// ToLLH converts ECEF to WGS-84 geodetic coordinates via Bowring's
// closed-form formula (C8, spec.md §4.8).
func (pos *PosXYZ) ToLLH() PosLLH {
	p := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y)
	if p == 0 && pos.Z == 0 {
		return PosLLH{Lat: 0, Lon: 0, Hei: -Re}
	}

	f := Fe
	a := Re
	b := a * (1 - f)
	e := math.Sqrt(f * (2 - f))

	h := a*a - b*b // = e'^2 * b^2 = e^2 * a^2
	t := math.Atan2(pos.Z*a, p*b)
	sint := math.Sin(t)
	cost := math.Cos(t)

	lat := math.Atan2(pos.Z+h/b*sint*sint*sint, p-h/a*cost*cost*cost)
	lon := math.Atan2(pos.Y, pos.X)
	n := a / math.Sqrt(1-e*e*math.Sin(lat)*math.Sin(lat))
	// Equal to p/cos(lat) - n, but stays finite at the poles (p = 0).
	hei := p*math.Cos(lat) + pos.Z*math.Sin(lat) - a*a/n
	return PosLLH{Lat: lat, Lon: lon, Hei: hei}
}
