package gnssl1

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// S6 — Kepler solve.
func TestSolveKeplerMatchesReferenceValue(t *testing.T) {
	E, iterations := SolveKepler(PI/3, 0.01)
	if math.Abs(E-1.055901) > 1e-6 {
		t.Fatalf("SolveKepler(pi/3, 0.01) = %.9f, want ~1.055901", E)
	}
	if iterations == 0 || iterations > 10 {
		t.Fatalf("iterations = %d, want in [1,10]", iterations)
	}
}

func TestSolveKeplerConvergesForCircularOrbit(t *testing.T) {
	E, _ := SolveKepler(2.0, 0)
	if math.Abs(E-2.0) > 1e-9 {
		t.Fatalf("SolveKepler(2.0, 0) = %.9f, want 2.0 (e=0 solves in one step)", E)
	}
}

// Rotation law: pqw_to_eci(Rz(w)Rx(i)Rz(Omega), (r,0,0)) with all
// angles zero yields (r,0,0) unchanged.
func TestPqwToECIIdentityRotation(t *testing.T) {
	assert := assert.New(t)
	got := pqwToECI([3]float64{26600000, 0, 0}, 0, 0, 0)
	assert.InDelta(26600000.0, got[0], 1e-6)
	assert.InDelta(0.0, got[1], 1e-6)
	assert.InDelta(0.0, got[2], 1e-6)
}

func TestPqwToECIInclinationTiltsOutOfPlane(t *testing.T) {
	got := pqwToECI([3]float64{0, 26600000, 0}, PI/2, 0, 0)
	if math.Abs(got[2]-26600000) > 1e-3 {
		t.Fatalf("a 90 degree inclination should rotate the y-axis point into z; got %v", got)
	}
}

func TestPropagateECIRejectsNonPositiveSemiMajorAxis(t *testing.T) {
	_, ok := PropagateECI(KeplerianElements{A: 0, Ecc: 0}, 0)
	if ok {
		t.Fatalf("A=0 should be rejected as non-physical")
	}
	_, ok = PropagateECI(KeplerianElements{A: -1, Ecc: 0}, 0)
	if ok {
		t.Fatalf("negative A should be rejected as non-physical")
	}
	_, ok = PropagateECI(KeplerianElements{A: 26600000, Ecc: 1.5}, 0)
	if ok {
		t.Fatalf("eccentricity >= 1 should be rejected as non-elliptical")
	}
}

func TestPropagateECIProducesFiniteResultForNominalOrbit(t *testing.T) {
	elems := KeplerianElements{A: 26560000, Ecc: 0.01, I0: ToRad(55), Omega0: 1.2, Omega: 0.3, M0: 0.5, Toe: 0}
	eci, ok := PropagateECI(elems, 3600)
	if !ok {
		t.Fatalf("expected a valid propagation for a nominal GPS-like orbit")
	}
	if !finite3(eci) {
		t.Fatalf("eci = %v, want all finite", eci)
	}
	r := norm3(eci)
	if r < elems.A*(1-elems.Ecc) || r > elems.A*(1+elems.Ecc) {
		t.Fatalf("radius %.1f outside [%.1f, %.1f]", r, elems.A*(1-elems.Ecc), elems.A*(1+elems.Ecc))
	}
}

func TestECIToECEFUsesSolarDayNotSiderealDay(t *testing.T) {
	eci := [3]float64{26600000, 0, 0}
	ecef := ECIToECEF(eci, SolarDaySec)
	if math.Abs(ecef[0]-eci[0]) > 1e-3 || math.Abs(ecef[1]) > 1e-3 {
		t.Fatalf("after exactly one solar day the frames should realign; got %v", ecef)
	}
}

func TestSampleOrbitSweepsFullRevolution(t *testing.T) {
	elems := KeplerianElements{A: 26560000, Ecc: 0.01, I0: 0, Omega0: 0, Omega: 0}
	pts := SampleOrbit(elems)
	if len(pts) < 600 {
		t.Fatalf("expected roughly 2*pi/%.2f points, got %d", OrbitSampleSteps, len(pts))
	}
	for _, p := range pts {
		if !finite3(p) {
			t.Fatalf("orbit sample %v is not finite", p)
		}
	}
}
