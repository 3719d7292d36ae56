// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gnssl1

// SatSeries is the per-PRN satellite series of C4: parallel arrays
// indexed by the PRN's observation insertion index k, each entry
// carrying the pseudorange, the raw observation time, and the
// Keplerian elements of whichever ephemeris best matches it.
type SatSeries struct {
	PRN         int
	Pseudorange []float64 // meters; 0 means no valid pseudorange at k
	TObsMs      []float64 // raw observation time, ms-of-week as received
	Elements    []KeplerianElements
	EphValid    []bool // whether a qualifying ephemeris was found for k
}

func (s *SatSeries) Len() int { return len(s.Pseudorange) }

// normalizeToSeconds applies §4.5 step 1's time normalization: values
// larger than one week's worth of seconds are assumed to be
// milliseconds.
func normalizeToSeconds(t float64) float64 {
	if t > 604800.0 {
		return t / 1000.0
	}
	return t
}

// selectEphemeris implements invariant 1 of §3 and the resolution of
// spec.md's ephemeris tie-break open question: among ephemerides with
// TOE <= tObsSec, the one with the largest TOE wins; ties (equal
// maximal TOE) resolve to the LAST-arrived entry in history, because
// the scan uses ">=" against the running best rather than ">"
// (grounded on original_source's find_closest_eph_idx). This is a
// last-arrived-wins tie-break, not first-arrived, despite spec.md's
// own prose gloss to the contrary — see DESIGN.md.
func selectEphemeris(ephs []Ephemeris, tObsSec float64) (KeplerianElements, bool) {
	found := false
	bestToe := -1.0
	var best Ephemeris
	for _, e := range ephs {
		if e.Toe <= tObsSec && e.Toe >= bestToe {
			bestToe = e.Toe
			best = e
			found = true
		}
	}
	if !found {
		return KeplerianElements{}, false
	}
	return best.Elements(), true
}

// BuildSeries constructs the per-PRN satellite series for every PRN
// with observation history (C4).
func BuildSeries(h *HistoryStore) [MaxSat + 1]*SatSeries {
	var out [MaxSat + 1]*SatSeries
	for prn := 1; prn <= MaxSat; prn++ {
		obs := h.ObsHistory[prn]
		if len(obs) == 0 {
			continue
		}
		s := &SatSeries{PRN: prn}
		for _, rec := range obs {
			pr, ok := rec.PseudorangeFor(prn)
			if !ok {
				pr = 0
			}
			tms := rec.TimeOfWeekMs()
			elems, valid := selectEphemeris(h.EphHistory[prn], normalizeToSeconds(tms))
			s.Pseudorange = append(s.Pseudorange, pr)
			s.TObsMs = append(s.TObsMs, tms)
			s.Elements = append(s.Elements, elems)
			s.EphValid = append(s.EphValid, valid)
		}
		out[prn] = s
	}
	return out
}

// BuildEphOnlySeries appends unique-by-TOE ephemerides per PRN, in
// arrival order, independent of observation timing (§4.4). This
// series is not consumed by the orbit sampler (C6), which uses only
// the first ephemeris per PRN — a known, deliberately preserved
// limitation (see Open Questions in spec.md §9) — but it is kept
// available as the natural "all distinct broadcasts" view of a PRN's
// history.
func BuildEphOnlySeries(h *HistoryStore) [MaxSat + 1][]Ephemeris {
	var out [MaxSat + 1][]Ephemeris
	for prn := 1; prn <= MaxSat; prn++ {
		seenToe := map[float64]bool{}
		for _, e := range h.EphHistory[prn] {
			if seenToe[e.Toe] {
				continue
			}
			seenToe[e.Toe] = true
			out[prn] = append(out[prn], e)
		}
	}
	return out
}
