// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gnssl1

import (
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

const solverIterations = 10
const singularThreshold = 1e-18

// EpochResult is one row of the receiver track: the epoch's ECEF and
// geodetic estimate, plus diagnostics that fall out of the normal
// equations for free.
type EpochResult struct {
	TimeMs  float64
	ECEF    PosXYZ
	LLA     PosLLH
	NumSats int
	GDOP    float64
}

// Summary accumulates the non-fatal warning counts of §7's error
// taxonomy across a full pipeline run.
type Summary struct {
	Malformed        int
	CapacityDropped  int
	EphemerisMissing int
	NumericsSkipped  int
	SingularEpochs   int
}

// invert4x4 inverts a 4x4 matrix by Gauss-Jordan elimination with
// partial pivoting (C7 step 3). A pivot column whose largest
// remaining absolute value is <= singularThreshold is treated as
// singular and reported via ok=false; this is the exact algorithm and
// threshold of original_source's invert_4x4, not a generic
// replacement — gonum's own Inverse is deliberately not used here so
// the singularity behavior matches the reference bit-for-bit.
func invert4x4(a [4][4]float64) (inv [4][4]float64, ok bool) {
	var aug [4][8]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			aug[i][j] = a[i][j]
		}
		aug[i][4+i] = 1
	}

	for col := 0; col < 4; col++ {
		maxRow := col
		maxAbs := math.Abs(aug[col][col])
		for r := col + 1; r < 4; r++ {
			if math.Abs(aug[r][col]) > maxAbs {
				maxAbs = math.Abs(aug[r][col])
				maxRow = r
			}
		}
		if maxAbs <= singularThreshold {
			return inv, false
		}
		if maxRow != col {
			aug[col], aug[maxRow] = aug[maxRow], aug[col]
		}
		pivot := aug[col][col]
		for j := 0; j < 8; j++ {
			aug[col][j] /= pivot
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			for j := 0; j < 8; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			inv[i][j] = aug[i][4+j]
		}
	}
	return inv, true
}

// solveNormalEq builds A = G'WG and b = G'Wy (unweighted, so W = I)
// with gonum, then hands the 4x4 A to invert4x4 rather than gonum's
// own Inverse, since the Gauss-Jordan sweep and its singularity
// threshold are pinned exactly. GDOP falls out of the inverse's
// trace, the same quantity a DOP map is derived from.
func solveNormalEq(G *mat.Dense, y *mat.VecDense) (delta [4]float64, gdop float64, ok bool) {
	var Gt mat.Dense
	Gt.CloneFrom(G.T())

	var GtG mat.Dense
	GtG.Mul(&Gt, G)

	var Gty mat.VecDense
	Gty.MulVec(&Gt, y)

	var a [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = GtG.At(i, j)
		}
	}

	inv, ok := invert4x4(a)
	if !ok {
		return delta, 0, false
	}

	gdop = math.Sqrt(math.Abs(inv[0][0] + inv[1][1] + inv[2][2] + inv[3][3]))
	for i := 0; i < 4; i++ {
		sum := 0.0
		for j := 0; j < 4; j++ {
			sum += inv[i][j] * Gty.AtVec(j)
		}
		delta[i] = sum
	}
	return delta, gdop, true
}

// CollectUniqueEpochs builds the sorted, duplicate-free epoch list
// consumed by the solver (§4.7 "Epoch collection"), capped at
// MaxUniqueEpochs with earliest-wins truncation.
func CollectUniqueEpochs(states [MaxSat + 1]*SatState) []float64 {
	var all []float64
	for prn := 1; prn <= MaxSat; prn++ {
		st := states[prn]
		if st == nil {
			continue
		}
		for k, valid := range st.Valid {
			if valid && st.TMs[k] != 0 && st.Pseudorange[k] > 0 {
				all = append(all, st.TMs[k])
			}
		}
	}
	slices.Sort(all)
	all = slices.Compact(all)
	if len(all) > MaxUniqueEpochs {
		PrintD(1, "unique epoch list truncated at %d entries (earliest-wins)\n", MaxUniqueEpochs)
		all = all[:MaxUniqueEpochs]
	}
	return all
}

// gatherEpoch collects the first (PRN, k) pair for every PRN whose
// observation time matches t and whose pseudorange/ECEF are both
// available (§4.7 "Per-epoch gather").
func gatherEpoch(states [MaxSat + 1]*SatState, t float64) (ecefs [][3]float64, prs []float64) {
	for prn := 1; prn <= MaxSat; prn++ {
		st := states[prn]
		if st == nil {
			continue
		}
		for k, valid := range st.Valid {
			if valid && st.TMs[k] == t && st.Pseudorange[k] > 0 {
				ecefs = append(ecefs, st.ECEF[k])
				prs = append(prs, st.Pseudorange[k])
				break
			}
		}
	}
	return ecefs, prs
}

// SolveEpochs runs C7 over every unique epoch: skip if fewer than 4
// satellites, else iterate Gauss-Newton for a fixed budget of
// solverIterations, with no convergence test beyond the cap (§4.7).
func SolveEpochs(states [MaxSat + 1]*SatState) ([]EpochResult, Summary) {
	var sum Summary
	epochs := CollectUniqueEpochs(states)

	var results []EpochResult
	for _, t := range epochs {
		ecefs, prs := gatherEpoch(states, t)
		m := len(ecefs)
		if m < 4 {
			continue
		}

		pos := [3]float64{0, 0, 0}
		clockBias := 0.0
		var gdop float64
		singular := false

		for iter := 0; iter < solverIterations; iter++ {
			G := mat.NewDense(m, 4, nil)
			y := mat.NewVecDense(m, nil)
			for i := 0; i < m; i++ {
				los := [3]float64{
					ecefs[i][0] - pos[0],
					ecefs[i][1] - pos[1],
					ecefs[i][2] - pos[2],
				}
				r := norm3(los)
				if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
					r = 1.0
				}
				u := [3]float64{los[0] / r, los[1] / r, los[2] / r}
				resid := prs[i] - r - clockBias

				G.Set(i, 0, -u[0])
				G.Set(i, 1, -u[1])
				G.Set(i, 2, -u[2])
				G.Set(i, 3, 1)
				y.SetVec(i, resid)
			}

			PrintD(3, "epoch t=%.0f iter=%d\n", t, iter)
			if DBG_ >= 4 {
				PrintMat(G)
			}

			d, g, ok := solveNormalEq(G, y)
			if !ok {
				singular = true
				sum.SingularEpochs++
				break
			}
			gdop = g
			pos[0] += d[0]
			pos[1] += d[1]
			pos[2] += d[2]
			clockBias += d[3]
		}
		if singular {
			continue
		}

		ecefPos := PosXYZ{X: pos[0], Y: pos[1], Z: pos[2]}
		lla := ecefPos.ToLLH()
		results = append(results, EpochResult{
			TimeMs:  t,
			ECEF:    ecefPos,
			LLA:     lla,
			NumSats: m,
			GDOP:    gdop,
		})
	}
	return results, sum
}
