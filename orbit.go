// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gnssl1

import "math"

// KeplerianElements is the subset of a broadcast ephemeris needed to
// propagate an orbit: semi-major axis, eccentricity, inclination,
// RAAN, argument of perigee, mean anomaly at TOE, and TOE itself.
type KeplerianElements struct {
	A, Ecc, I0, Omega0, Omega, M0, Toe float64
}

// SatState is the per-PRN satellite state history of C5: parallel ECI
// and ECEF positions plus the observation time each was computed for.
// Valid[k] is false wherever propagation could not produce a sample
// (missing ephemeris, non-finite intermediate); ECI[k]/ECEF[k] are
// the zero vector in that case.
type SatState struct {
	PRN         int
	ECI         [][3]float64
	ECEF        [][3]float64
	TMs         []float64
	Pseudorange []float64
	Valid       []bool
}

// SolveKepler iterates E <- E - (E - e*sinE - M)/(1 - e*cosE) from
// E=M, for up to 10 iterations or until |dE| < 1e-12 (C5 step 4).
func SolveKepler(M, e float64) (E float64, iterations int) {
	E = M
	for it := 0; it < 10; it++ {
		f := E - e*math.Sin(E) - M
		fp := 1 - e*math.Cos(E)
		dE := -f / fp
		E += dE
		iterations = it + 1
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E, iterations
}

// normalizeAngle reduces a into [-pi, pi].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a+PI, 2*PI)
	if a < 0 {
		a += 2 * PI
	}
	return a - PI
}

func rotZ(theta float64) [3][3]float64 {
	c, s := math.Cos(theta), math.Sin(theta)
	return [3][3]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

func rotX(theta float64) [3][3]float64 {
	c, s := math.Cos(theta), math.Sin(theta)
	return [3][3]float64{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

func matVec3(m [3][3]float64, v [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// pqwToECI rotates a perifocal-frame vector into ECI via
// Rz(Omega) . Rx(i) . Rz(omega), positive angles, column-vector
// convention (C5 step 8, spec §4.5 / Design Notes' single rotation
// primitive).
func pqwToECI(pqw [3]float64, i, omega0, omega float64) [3]float64 {
	tmp1 := matVec3(rotZ(omega), pqw)
	tmp2 := matVec3(rotX(i), tmp1)
	return matVec3(rotZ(omega0), tmp2)
}

func finite3(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// PropagateECI runs the full Kepler-solve-to-ECI chain for one
// observation time against one set of Keplerian elements (C5 steps
// 1-8; time normalization is the caller's responsibility, matching
// §4.5 step 1 being a distinct precondition). ok is false on any
// non-finite intermediate (bad a, e>=1, non-finite radius or ECI
// vector); the caller drops that sample (Numerics, §7).
func PropagateECI(elems KeplerianElements, tObsSec float64) (eci [3]float64, ok bool) {
	a, e := elems.A, elems.Ecc
	if !(a > 0) || !(e >= 0 && e < 1) || math.IsNaN(elems.I0) || math.IsNaN(elems.M0) {
		return [3]float64{}, false
	}

	dt := tObsSec - elems.Toe
	n := math.Sqrt(MU / (a * a * a))
	M := normalizeAngle(elems.M0 + n*dt)

	E, _ := SolveKepler(M, e)
	cosE, sinE := math.Cos(E), math.Sin(E)

	sqrt1me2 := math.Sqrt(math.Max(0, 1-e*e))
	sinv := sqrt1me2 * sinE / (1 - e*cosE)
	cosv := (cosE - e) / (1 - e*cosE)
	v := math.Atan2(sinv, cosv)

	r := a * (1 - e*cosE)
	if !(r > 0) || math.IsInf(r, 0) || math.IsNaN(r) {
		return [3]float64{}, false
	}

	pqw := [3]float64{r * math.Cos(v), r * math.Sin(v), 0}
	eci = pqwToECI(pqw, elems.I0, elems.Omega0, elems.Omega)
	if !finite3(eci) {
		return [3]float64{}, false
	}
	return eci, true
}

// ECIToECEF rotates an ECI position into ECEF using a *solar-day*
// rotation angle, not sidereal (C5 step 9). This is a deliberate,
// preserved simplification: theta = ((t/86400) mod 1) * 2*pi, and
// ecef = Rz^T(theta) . eci, because the reference algorithm composes
// its rotation as a row-vector product and this transpose reproduces
// that result under our column-vector convention.
func ECIToECEF(eci [3]float64, tObsSec float64) [3]float64 {
	frac := math.Mod(tObsSec/SolarDaySec, 1.0)
	if frac < 0 {
		frac += 1
	}
	theta := frac * 2 * PI
	c, s := math.Cos(theta), math.Sin(theta)
	rzT := [3][3]float64{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
	return matVec3(rzT, eci)
}

// PropagateAll runs C5 over every PRN's satellite series, producing
// the per-PRN satellite state history. numericsSkipped counts samples
// dropped for non-finite intermediates (Numerics, §7); ephemerisMissing
// counts samples dropped because the series builder never found a
// valid ephemeris to pair with the observation (EphemerisMissing, §7).
// A non-positive pseudorange is neither: it means the observation
// itself carried no usable range, so it is skipped uncounted. The
// pipeline folds both counters into the run Summary.
func PropagateAll(series [MaxSat + 1]*SatSeries) (states [MaxSat + 1]*SatState, numericsSkipped int, ephemerisMissing int) {
	for prn := 1; prn <= MaxSat; prn++ {
		s := series[prn]
		if s == nil {
			continue
		}
		st := &SatState{PRN: prn}
		for k := 0; k < s.Len(); k++ {
			st.TMs = append(st.TMs, s.TObsMs[k])
			st.Pseudorange = append(st.Pseudorange, s.Pseudorange[k])
			if !s.EphValid[k] {
				ephemerisMissing++
				st.ECI = append(st.ECI, [3]float64{})
				st.ECEF = append(st.ECEF, [3]float64{})
				st.Valid = append(st.Valid, false)
				continue
			}
			if s.Pseudorange[k] <= 0 {
				st.ECI = append(st.ECI, [3]float64{})
				st.ECEF = append(st.ECEF, [3]float64{})
				st.Valid = append(st.Valid, false)
				continue
			}
			tSec := normalizeToSeconds(s.TObsMs[k])
			eci, ok := PropagateECI(s.Elements[k], tSec)
			if !ok {
				numericsSkipped++
				st.ECI = append(st.ECI, [3]float64{})
				st.ECEF = append(st.ECEF, [3]float64{})
				st.Valid = append(st.Valid, false)
				continue
			}
			st.ECI = append(st.ECI, eci)
			st.ECEF = append(st.ECEF, ECIToECEF(eci, tSec))
			st.Valid = append(st.Valid, true)
		}
		states[prn] = st
	}
	return states, numericsSkipped, ephemerisMissing
}

// SampleOrbit sweeps true anomaly over [0, 2*pi] in fixed steps to
// produce a full orbit trace in ECI, for visualization (C6). It uses
// the conic radius equation directly in true anomaly rather than
// going through Kepler's equation, since no observation time is
// involved.
func SampleOrbit(elems KeplerianElements) [][3]float64 {
	var pts [][3]float64
	for f := 0.0; f <= 2*PI; f += OrbitSampleSteps {
		r := elems.A * (1 - elems.Ecc*elems.Ecc) / (1 + elems.Ecc*math.Cos(f))
		pqw := [3]float64{r * math.Cos(f), r * math.Sin(f), 0}
		pts = append(pts, pqwToECI(pqw, elems.I0, elems.Omega0, elems.Omega))
	}
	return pts
}

// SampleAllOrbits builds one orbit trace per PRN that has at least
// one ephemeris, using only the *first* ephemeris ever stored for
// that PRN (spec §4.6). Later broadcasts for the same PRN are not
// re-sampled; this is a known, deliberately preserved limitation, not
// an oversight (see Open Questions in spec.md §9).
func SampleAllOrbits(h *HistoryStore) map[int][][3]float64 {
	traces := map[int][][3]float64{}
	for prn := 1; prn <= MaxSat; prn++ {
		if len(h.EphHistory[prn]) == 0 {
			continue
		}
		traces[prn] = SampleOrbit(h.EphHistory[prn][0].Elements())
	}
	return traces
}
