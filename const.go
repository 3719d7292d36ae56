// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gnssl1

const (
	PI = 3.1415926535897932  // Pi
	C  = 2.99792458e8        // Speed of light [m/s]
	Re = 6378137.0           // Earth's radius [m]
	Fe = 1.0 / 298.257223563 // Earth's flattening
	L1 = 1575420000.0        // L1 frequency [Hz]

	// GM = G*M_earth, m^3/s^2. Used by the Kepler mean-motion step (C5/C6).
	MU = 6.67430e-11 * 5.9722e24

	// OmegaE is Earth's rotation rate, rad/s. Not used by the ECI->ECEF
	// stage: that stage deliberately rotates by a *solar day*, not a
	// sidereal day (see SolarDaySec). Kept for reference/documentation.
	OmegaE = 7.2921151467e-5

	// SolarDaySec is the length of one solar day, in seconds. The
	// ECI->ECEF rotation angle is derived from this, not from a
	// sidereal day; this is a deliberate, preserved simplification.
	SolarDaySec = 86400.0

	MaxSat           = 32     // GPS PRNs 1..32; index 0 unused
	MaxEphHistory    = 4096   // per-PRN ephemeris history capacity
	MaxEpochs        = 100000 // per-PRN observation history capacity
	MaxUniqueEpochs  = 100000 // solver epoch-list capacity
	OrbitSampleSteps = 0.01   // true-anomaly sweep step, radians (C6)
)
