// Package twoview recovers relative camera pose from two-view point
// correspondences via the Essential Matrix: 7-point and 8-point linear
// estimators, RANSAC sampling over 7-point candidates, rank-2 enforcement,
// decomposition into (R, t) candidates, and a cheirality-based selection.
package twoview

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/rotera/linalg"
	"go.viam.com/rotera/spatialmath"
)

// ErrDegenerate is returned when no non-degenerate Essential Matrix could be
// recovered from the given correspondences (e.g. purely translational
// motion along the optical axis).
var ErrDegenerate = errors.New("degenerate two-view geometry")

// InitialBaseline is the arbitrary scale two-view recovery assigns the
// translation, since monocular two-view geometry only recovers direction.
const InitialBaseline = 10.0

// SampsonThreshold is the normalized-coordinate Sampson error below which a
// correspondence counts as a RANSAC inlier.
const SampsonThreshold = 0.01

const maxRansacIterations = 100

// Correspondence is one matched point pair in normalized camera coordinates
// ((u-cx)/f, (v-cy)/f), not raw pixels.
type Correspondence struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Result is a recovered two-view pose, cam1 at identity.
type Result struct {
	Position   r3.Vector
	Quaternion spatialmath.Quaternion
	Inliers    []int
	Cheirality int
}

// Mat3x3 is a 3x3 matrix stored row-major.
type Mat3x3 = linalg.Mat3

// Estimate recovers relative pose from correspondences: the 7-point
// algorithm directly when exactly 7 are given, and RANSAC over 7-point
// subsets when there are 8 or more. The 8-point estimator is not used here.
func Estimate(corr []Correspondence, rng rngSource) (Result, error) {
	if len(corr) < 7 {
		return Result{}, errors.New("at least 7 correspondences required")
	}
	if len(corr) == 7 {
		return estimateFromSeven(corr)
	}
	return ransac(corr, rng)
}

// rngSource is the minimal interface Estimate needs from a seeded RNG,
// satisfied by *rand.Rand so callers control reproducibility.
type rngSource interface {
	Intn(n int) int
}

func ransac(corr []Correspondence, rng rngSource) (Result, error) {
	n := len(corr)
	var best Result
	bestScore := -1
	bestSampson := math.Inf(1)
	found := false

	samples := sevenPointSamples(n, rng)
	for _, idxs := range samples {
		sub := make([]Correspondence, 7)
		for i, idx := range idxs {
			sub[i] = corr[idx]
		}
		candidates, err := essentialCandidatesFromSeven(sub)
		if err != nil {
			continue
		}
		for _, e := range candidates {
			res, ok := decomposeAndScore(e, corr)
			if !ok {
				continue
			}
			inlierCount, sampsonSum := scoreInliers(e, corr)
			score := res.Cheirality*1000 + inlierCount
			if score > bestScore || (score == bestScore && sampsonSum < bestSampson) {
				best = res
				bestScore = score
				bestSampson = sampsonSum
				found = true
			}
		}
	}

	if !found {
		return Result{}, ErrDegenerate
	}
	return best, nil
}

func sevenPointSamples(n int, rng rngSource) [][]int {
	if n <= 15 {
		return exhaustiveSevenSubsets(n)
	}
	var samples [][]int
	seen := map[string]bool{}
	for i := 0; i < maxRansacIterations; i++ {
		idxs := randomSevenSubset(n, rng)
		key := subsetKey(idxs)
		if seen[key] {
			continue
		}
		seen[key] = true
		samples = append(samples, idxs)
	}
	return samples
}

func exhaustiveSevenSubsets(n int) [][]int {
	var out [][]int
	idx := make([]int, 7)
	for i := range idx {
		idx[i] = i
	}
	for {
		out = append(out, append([]int(nil), idx...))
		i := 6
		for i >= 0 && idx[i] == i+n-7 {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < 7; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}

func randomSevenSubset(n int, rng rngSource) []int {
	chosen := map[int]bool{}
	var out []int
	for len(out) < 7 {
		v := rng.Intn(n)
		if chosen[v] {
			continue
		}
		chosen[v] = true
		out = append(out, v)
	}
	return out
}

func subsetKey(idxs []int) string {
	s := append([]int(nil), idxs...)
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
	key := make([]byte, 0, len(s)*4)
	for _, v := range s {
		key = append(key, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return string(key)
}

func estimateFromSeven(corr []Correspondence) (Result, error) {
	candidates, err := essentialCandidatesFromSeven(corr)
	if err != nil {
		return Result{}, err
	}
	for _, e := range candidates {
		res, ok := decomposeAndScore(e, corr)
		if ok {
			return res, nil
		}
	}
	return Result{}, ErrDegenerate
}

func decomposeAndScore(e Mat3x3, corr []Correspondence) (Result, bool) {
	if isDegenerateTranslation(e) {
		return Result{}, false
	}
	candidates := decomposeEssential(e)
	best := -1
	var bestResult Result
	for _, cand := range candidates {
		count := countCheirality(cand, corr)
		if count > best {
			best = count
			bestResult = Result{
				Position:   cand.t.Mul(InitialBaseline),
				Quaternion: spatialmath.QuaternionFromRotationMatrix(cand.r),
				Cheirality: count,
			}
		}
	}
	if best <= 0 {
		return Result{}, false
	}
	return bestResult, true
}

func scoreInliers(e Mat3x3, corr []Correspondence) (int, float64) {
	count := 0
	var sum float64
	for _, c := range corr {
		s := sampsonError(e, c)
		sum += s
		if s < SampsonThreshold {
			count++
		}
	}
	return count, sum
}

// sampsonError computes the first-order Sampson approximation to geometric
// error for one correspondence under Essential Matrix e.
func sampsonError(e Mat3x3, c Correspondence) float64 {
	x1 := [3]float64{c.X1, c.Y1, 1}
	x2 := [3]float64{c.X2, c.Y2, 1}

	ex1 := mulVec(e, x1)
	etx2 := mulVecT(e, x2)

	num := x2[0]*ex1[0] + x2[1]*ex1[1] + x2[2]*ex1[2]
	denom := ex1[0]*ex1[0] + ex1[1]*ex1[1] + etx2[0]*etx2[0] + etx2[1]*etx2[1]
	if denom < 1e-12 {
		return math.Inf(1)
	}
	return (num * num) / denom
}

func mulVec(m Mat3x3, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func mulVecT(m Mat3x3, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[3]*v[1] + m[6]*v[2],
		m[1]*v[0] + m[4]*v[1] + m[7]*v[2],
		m[2]*v[0] + m[5]*v[1] + m[8]*v[2],
	}
}

// isDegenerateTranslation rejects an Essential Matrix whose epipole implies
// a translation with two of three components below 0.1 -- the "purely
// forward/backward" degenerate case.
func isDegenerateTranslation(e Mat3x3) bool {
	svd := linalg.SVD3(e)
	t := r3.Vector{X: svd.U[2], Y: svd.U[5], Z: svd.U[8]}.Normalize()
	below := 0
	if math.Abs(t.X) < 0.1 {
		below++
	}
	if math.Abs(t.Y) < 0.1 {
		below++
	}
	if math.Abs(t.Z) < 0.1 {
		below++
	}
	return below >= 2
}
