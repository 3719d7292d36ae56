// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gnssl1

import "math"

// Ephemeris holds one GPS broadcast ephemeris (RTCM 1019), decoded
// with the angular-unit scalings already applied (C2, spec §4.2):
// M0, Omega0, I0 and Omega are radians; Ecc is unitless; A is meters.
type Ephemeris struct {
	PRN  int
	Week int
	Toc  float64
	Toe  float64

	SqrtA  float64
	A      float64
	Ecc    float64
	I0     float64
	Omega0 float64
	Omega  float64
	M0     float64

	DeltaN   float64
	OmegaDot float64
	IDot     float64

	Crs, Crc, Cuc, Cus, Cic, Cis float64
	Af0, Af1, Af2                float64
	Tgd                          float64

	Iode, Iodc int
	Svh        int
}

// Elements extracts the six Keplerian elements plus TOE needed by the
// orbit propagator (C5) and sampler (C6).
func (e Ephemeris) Elements() KeplerianElements {
	return KeplerianElements{
		A:      e.A,
		Ecc:    e.Ecc,
		I0:     e.I0,
		Omega0: e.Omega0,
		Omega:  e.Omega,
		M0:     e.M0,
		Toe:    e.Toe,
	}
}

// DecodeEphemeris decodes an RTCM 1019 message body already split
// into fields. It applies the mandatory unit scalings inline, at
// decode time, so no caller downstream needs to remember them
// (Design Notes: "centralize the angular unit scalings in the
// decoder").
func DecodeEphemeris(fields FieldSet) (Ephemeris, error) {
	prn, ok := fields.Int("DF009")
	if !ok {
		return Ephemeris{}, newErr(InputMalformed, "1019: missing DF009 (PRN)")
	}
	if prn < 1 || prn > MaxSat {
		return Ephemeris{}, newErr(InputMalformed, "1019: PRN out of range")
	}

	week, _ := fields.Int("DF076")
	toc, _ := fields.Float("DF081")
	af2, _ := fields.Float("DF082")
	af1, _ := fields.Float("DF083")
	af0, _ := fields.Float("DF084")
	iodc, _ := fields.Int("DF085")
	crs, _ := fields.Float("DF086")
	deltaN, _ := fields.Float("DF087")
	m0raw, _ := fields.Float("DF088")
	cuc, _ := fields.Float("DF089")
	eccRaw, _ := fields.Float("DF090")
	cus, _ := fields.Float("DF091")
	sqrtA, _ := fields.Float("DF092")
	toe, _ := fields.Float("DF093")
	cic, _ := fields.Float("DF094")
	omega0Raw, _ := fields.Float("DF095")
	cis, _ := fields.Float("DF096")
	i0Raw, _ := fields.Float("DF097")
	crc, _ := fields.Float("DF098")
	omegaRaw, _ := fields.Float("DF099")
	omegaDot, _ := fields.Float("DF100")
	tgd, _ := fields.Float("DF101")
	svh, _ := fields.Int("DF102")
	iode, _ := fields.Int("DF071")
	idot, _ := fields.Float("DF079")

	return Ephemeris{
		PRN:      prn,
		Week:     week,
		Toc:      toc,
		Toe:      toe,
		SqrtA:    sqrtA,
		A:        sqrtA * sqrtA,
		Ecc:      eccRaw * math.Pow(2, -33),
		I0:       i0Raw * PI,
		Omega0:   omega0Raw * PI,
		Omega:    omegaRaw * PI,
		M0:       m0raw * PI,
		DeltaN:   deltaN,
		OmegaDot: omegaDot,
		IDot:     idot,
		Crs:      crs,
		Crc:      crc,
		Cuc:      cuc,
		Cus:      cus,
		Cic:      cic,
		Cis:      cis,
		Af0:      af0,
		Af1:      af1,
		Af2:      af2,
		Tgd:      tgd,
		Iode:     iode,
		Iodc:     iodc,
		Svh:      svh,
	}, nil
}

// ObservationRecord is the common shape of a decoded 1002 (legacy) or
// 1074 (MSM4) message: a set of PRNs observed at one epoch, each with
// its own full pseudorange. C4 and C7 consume this interface without
// caring which message family produced it.
type ObservationRecord interface {
	SatPRNs() []int
	PseudorangeFor(prn int) (float64, bool)
	TimeOfWeekMs() float64
}

// MSM4Record is a decoded RTCM 1074 message, already filtered down to
// L1 C/A ("1C") cells (C2 §4.2's two-pass filter). All slices are
// aligned with PRNs.
type MSM4Record struct {
	TimeMs         float64
	PRNs           []int
	Pseudorange    []float64 // <=0 marks an invalid cell
	PhaseRange     []float64 // DF401, carrier phase residual (m)
	LockTime       []int     // DF402
	CNR            []float64 // DF403, carrier-to-noise ratio (dB-Hz)
	HalfCycleAmbig []bool    // DF420
}

func (r *MSM4Record) SatPRNs() []int { return r.PRNs }

func (r *MSM4Record) PseudorangeFor(prn int) (float64, bool) {
	for i, p := range r.PRNs {
		if p == prn {
			if r.Pseudorange[i] <= 0 {
				return 0, false
			}
			return r.Pseudorange[i], true
		}
	}
	return 0, false
}

func (r *MSM4Record) TimeOfWeekMs() float64 { return r.TimeMs }

// computePseudorange combines the coarse integer-millisecond range,
// the modulo-1-second fraction and the fine residual into meters
// (§3, MSM4 cell reconstruction).
func computePseudorange(integerMs, mod1s, fine float64) float64 {
	return C*(integerMs*1e-3) + mod1s + fine
}

// computePseudorangeMSM1 reconstructs full pseudorange from the
// legacy 1002 ambiguity/remainder pair (§3).
func computePseudorangeMSM1(ambiguityMs, remainder float64) float64 {
	return ambiguityMs*(C/1000.0) + remainder
}

// DecodeMSM4 decodes an RTCM 1074 message. It performs the two-pass
// cell filter mandated by §4.2: pass one keeps only cells whose
// CELLSIG is "1C", recording each retained cell's PRN alongside its
// pre-filter cell_number (the 1-based position in the original,
// unfiltered cell list); pass two harvests DF400..DF403 and DF420
// keyed by that pre-filter cell_number, storing the results at the
// compacted (post-filter) position. Looking these up by the compacted
// index instead would silently read the wrong field whenever a
// non-1C cell precedes a retained one.
//
// The pseudorange for retained cell i is built from the per-satellite
// DF397/DF398 at index i (not from the cell_number) and the per-cell
// DF400 fine residual for that cell; this is only correct when
// n_sat == n_cell, which holds for a single-frequency (L1-only) MSM4
// stream, the only case this engine handles. A retained cell keeps
// its slot in the output arrays even when its PRN or any of
// DF397/DF398/DF400 is missing or the PRN is out of range: its
// pseudorange is set to the -1.0 sentinel rather than silently
// treating an absent field as zero or dropping the cell and shifting
// every later cell's position.
func DecodeMSM4(fields FieldSet) (*MSM4Record, error) {
	nSat, ok := fields.Int("NSat")
	if !ok {
		return nil, newErr(InputMalformed, "1074: missing NSat")
	}
	nCell, ok := fields.Int("NCell")
	if !ok {
		return nil, newErr(InputMalformed, "1074: missing NCell")
	}
	if nSat < 0 || nCell < 0 {
		return nil, newErr(InputMalformed, "1074: negative NSat/NCell")
	}
	timeMs, _ := fields.Float("DF004")

	integerMs := make([]float64, nSat)
	mod1s := make([]float64, nSat)
	satOk := make([]bool, nSat)
	for i := 0; i < nSat; i++ {
		var imOk, mmOk bool
		integerMs[i], imOk = fields.Float(Suffixed("DF397", i+1))
		mod1s[i], mmOk = fields.Float(Suffixed("DF398", i+1))
		satOk[i] = imOk && mmOk
	}

	type cell struct {
		prn        int
		prnOk      bool
		cellNumber int // 1-based, pre-filter position
		fine       float64
		fineOk     bool
		phase      float64
		lock       int
		cnr        float64
		halfCycle  bool
	}
	var l1Cells []cell
	for i := 0; i < nCell; i++ {
		sig, ok := fields.String(Suffixed("CELLSIG", i+1))
		if !ok || sig != "1C" {
			continue
		}
		prn, prnOk := fields.Int(Suffixed("CELLPRN", i+1))
		l1Cells = append(l1Cells, cell{prn: prn, prnOk: prnOk, cellNumber: i + 1})
	}
	for i := range l1Cells {
		cn := l1Cells[i].cellNumber
		l1Cells[i].fine, l1Cells[i].fineOk = fields.Float(Suffixed("DF400", cn))
		l1Cells[i].phase, _ = fields.Float(Suffixed("DF401", cn))
		l1Cells[i].lock, _ = fields.Int(Suffixed("DF402", cn))
		l1Cells[i].cnr, _ = fields.Float(Suffixed("DF403", cn))
		if hc, ok := fields.Int(Suffixed("DF420", cn)); ok {
			l1Cells[i].halfCycle = hc != 0
		}
	}

	rec := &MSM4Record{TimeMs: timeMs}
	for i, c := range l1Cells {
		pr := -1.0
		validPRN := c.prnOk && c.prn > 0 && c.prn <= MaxSat
		if validPRN && c.fineOk && i < len(satOk) && satOk[i] {
			pr = computePseudorange(integerMs[i], mod1s[i], c.fine)
		}
		rec.PRNs = append(rec.PRNs, c.prn)
		rec.Pseudorange = append(rec.Pseudorange, pr)
		rec.PhaseRange = append(rec.PhaseRange, c.phase)
		rec.LockTime = append(rec.LockTime, c.lock)
		rec.CNR = append(rec.CNR, c.cnr)
		rec.HalfCycleAmbig = append(rec.HalfCycleAmbig, c.halfCycle)
	}
	return rec, nil
}

// Legacy1002Record is a decoded RTCM 1002 message (legacy L1
// observations, one entry per satellite listed in the message). All
// slices are aligned with PRNs.
type Legacy1002Record struct {
	TimeMs         float64
	PRNs           []int
	Pseudorange    []float64
	PhaseRangeDiff []float64 // DF012, carrier phase minus pseudorange (m)
	LockTime       []int     // DF013
	CNR            []float64 // DF015, carrier-to-noise ratio (dB-Hz)
}

func (r *Legacy1002Record) SatPRNs() []int { return r.PRNs }

func (r *Legacy1002Record) PseudorangeFor(prn int) (float64, bool) {
	for i, p := range r.PRNs {
		if p == prn {
			if r.Pseudorange[i] <= 0 {
				return 0, false
			}
			return r.Pseudorange[i], true
		}
	}
	return 0, false
}

func (r *Legacy1002Record) TimeOfWeekMs() float64 { return r.TimeMs }

// DecodeLegacy1002 decodes an RTCM 1002 message: straight per-SV
// extraction, per §4.2.
func DecodeLegacy1002(fields FieldSet) (*Legacy1002Record, error) {
	nSat, ok := fields.Int("DF006")
	if !ok {
		return nil, newErr(InputMalformed, "1002: missing DF006 (num satellites)")
	}
	timeMs, _ := fields.Float("DF004")

	rec := &Legacy1002Record{TimeMs: timeMs}
	for i := 0; i < nSat; i++ {
		prn, ok := fields.Int(Suffixed("DF009", i+1))
		if !ok || prn <= 0 || prn > MaxSat {
			continue
		}
		amb, _ := fields.Float(Suffixed("DF014", i+1))
		rem, _ := fields.Float(Suffixed("DF011", i+1))
		phaseDiff, _ := fields.Float(Suffixed("DF012", i+1))
		lock, _ := fields.Int(Suffixed("DF013", i+1))
		cnr, _ := fields.Float(Suffixed("DF015", i+1))

		rec.PRNs = append(rec.PRNs, prn)
		rec.Pseudorange = append(rec.Pseudorange, computePseudorangeMSM1(amb, rem))
		rec.PhaseRangeDiff = append(rec.PhaseRangeDiff, phaseDiff)
		rec.LockTime = append(rec.LockTime, lock)
		rec.CNR = append(rec.CNR, cnr)
	}
	return rec, nil
}

// DecodedMessage is the dispatcher's result: exactly one of
// Ephemeris or Observation is populated, depending on Type.
type DecodedMessage struct {
	Type        int
	Ephemeris   *Ephemeris
	Observation ObservationRecord
}

// DecodeLine tokenizes one input line and dispatches to the decoder
// matching DF002 (C2, spec §4.2/§6). A blank/comment line and an
// unsupported message type both return (nil, nil): a non-fatal skip.
func DecodeLine(line string) (*DecodedMessage, error) {
	fields := ScanFields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	msgType, ok := fields.Int("DF002")
	if !ok {
		return nil, newErr(InputMalformed, "line missing DF002")
	}

	switch msgType {
	case 1019:
		eph, err := DecodeEphemeris(fields)
		if err != nil {
			return nil, err
		}
		return &DecodedMessage{Type: 1019, Ephemeris: &eph}, nil
	case 1074:
		rec, err := DecodeMSM4(fields)
		if err != nil {
			return nil, err
		}
		return &DecodedMessage{Type: 1074, Observation: rec}, nil
	case 1002:
		rec, err := DecodeLegacy1002(fields)
		if err != nil {
			return nil, err
		}
		return &DecodedMessage{Type: 1002, Observation: rec}, nil
	default:
		return nil, nil
	}
}
