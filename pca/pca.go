// Package pca implements power-iteration PCA over a Named Matrix's
// effective votes, plus the sparsity-aware projection of a single
// participant's vote vector into the resulting component space.
package pca

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/deliberata/opine/engineconfig"
	"github.com/deliberata/opine/matrix"
)

// Result holds a fitted PCA: the column-wise center and the extracted
// components, one row per component, one column per comment.
type Result struct {
	Center     []float64
	Components [][]float64
}

const zeroTol = 1e-10

// Fit extracts nComps principal components from m's votes (a
// single-column matrix yields the single component [1]). startVectors supplies a warm-start vector per component index
// (nil or short entries fall back to a fixed-seed random vector);
// pass nil for a cold start.
func Fit(m *matrix.Matrix, nComps int, cfg engineconfig.Config, startVectors [][]float64) Result {
	r, c := m.NumRows(), m.NumCols()

	op := m.SparseOp()
	center := columnMeans(op, r, c)

	switch {
	case c == 1:
		return Result{Center: center, Components: [][]float64{{1}}}
	case r == 1:
		return singleRowResult(m, center, nComps, c)
	case op.NNZ() == 0:
		return Result{Center: center, Components: identityComponents(nComps, c)}
	default:
		return Result{Center: center, Components: powerIterationComponents(op, center, nComps, cfg, startVectors)}
	}
}

func columnMeans(op *matrix.SparseOp, r, c int) []float64 {
	sums := op.ColumnSums()
	means := make([]float64, c)
	if r == 0 {
		return means
	}
	for j := 0; j < c; j++ {
		means[j] = sums[j] / float64(r)
	}
	return means
}

func allZero(v []float64) bool {
	for _, x := range v {
		if math.Abs(x) > zeroTol {
			return false
		}
	}
	return true
}

func identityComponents(nComps, c int) [][]float64 {
	comps := make([][]float64, nComps)
	for i := range comps {
		comps[i] = oneHot(i, c)
	}
	return comps
}

func oneHot(i, c int) []float64 {
	v := make([]float64, c)
	if c > 0 {
		v[i%c] = 1
	}
	return v
}

func singleRowResult(m *matrix.Matrix, center []float64, nComps, c int) Result {
	name := m.RowNames()[0]
	row, _ := m.GetRow(name)
	raw := make([]float64, c)
	for j, v := range row {
		if !matrix.IsMissing(v) {
			raw[j] = v
		}
	}
	normalized := normalizeCopy(raw)

	comps := make([][]float64, nComps)
	comps[0] = normalized
	for i := 1; i < nComps; i++ {
		comps[i] = make([]float64, c)
	}
	return Result{Center: center, Components: comps}
}

func powerIterationComponents(op *matrix.SparseOp, center []float64, nComps int, cfg engineconfig.Config, startVectors [][]float64) [][]float64 {
	_, c := op.Dims()
	effectiveK := nComps
	if min := minInt(rowsOf(op), c); effectiveK > min {
		effectiveK = min
	}

	type term struct{ v, u []float64 }
	var terms []term

	baseApplyX := func(x []float64) []float64 { return applyX(op, center, x) }
	baseApplyXT := func(w []float64) []float64 { return applyXT(op, center, w) }

	deflatedApplyX := func(x []float64) []float64 {
		result := baseApplyX(x)
		for _, t := range terms {
			dot := floats.Dot(t.v, x)
			for i := range result {
				result[i] -= t.u[i] * dot
			}
		}
		return result
	}
	deflatedApplyXT := func(w []float64) []float64 {
		result := baseApplyXT(w)
		for _, t := range terms {
			dot := floats.Dot(t.u, w)
			for j := range result {
				result[j] -= t.v[j] * dot
			}
		}
		return result
	}

	comps := make([][]float64, 0, nComps)
	for i := 0; i < effectiveK; i++ {
		var start []float64
		if i < len(startVectors) && len(startVectors[i]) > 0 {
			start = padOrTrim(startVectors[i], c)
		}
		v := powerIteration(deflatedApplyX, deflatedApplyXT, c, cfg.PCAMaxIter, cfg.PCAEpsilon, start, cfg.Seed+int64(i))
		u := deflatedApplyX(v)
		terms = append(terms, term{v: v, u: u})
		comps = append(comps, v)
	}

	for i := effectiveK; i < nComps; i++ {
		comps = append(comps, oneHot(i, c))
	}
	return comps
}

func rowsOf(op *matrix.SparseOp) int { r, _ := op.Dims(); return r }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func padOrTrim(v []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, v)
	return out
}

// applyX computes X*x where X is the centred effective matrix, without
// ever materialising X: X = S - 1*center^T, so X*x = S*x - (center.x)*1.
func applyX(op *matrix.SparseOp, center, x []float64) []float64 {
	sv := op.MulVec(x)
	cx := floats.Dot(center, x)
	for i := range sv {
		sv[i] -= cx
	}
	return sv
}

// applyXT computes X^T*w = S^T*w - center*sum(w).
func applyXT(op *matrix.SparseOp, center, w []float64) []float64 {
	stw := op.MulVecTrans(w)
	sumW := floats.Sum(w)
	for j := range stw {
		stw[j] -= center[j] * sumW
	}
	return stw
}

// powerIteration finds a unit dominant eigenvector of applyXT(applyX(v))
// (i.e. X^T X) starting from start (or a fixed-seed random vector),
// iterating up to maxIter times and stopping once successive iterates'
// dot product exceeds 1-epsilon in magnitude. Falls back to the
// largest-magnitude iterate seen if it never converges.
func powerIteration(applyX, applyXT func([]float64) []float64, n, maxIter int, epsilon float64, start []float64, seed int64) []float64 {
	if start == nil || allZero(start) {
		start = randVector(n, seed)
	}
	start = normalizeCopy(start)

	best := append([]float64(nil), start...)
	bestMag := 0.0

	for i := 0; i < maxIter; i++ {
		prod := applyXT(applyX(start))
		mag := floats.Norm(prod, 2)
		if mag > bestMag {
			bestMag = mag
			best = append([]float64(nil), start...)
		}

		if allZero(prod) {
			start = randVector(n, seed+int64(i)+1)
			continue
		}

		normed := normalizeCopy(prod)
		similarity := math.Abs(floats.Dot(normed, start))
		if similarity > 1.0-epsilon {
			return signNormalize(normed)
		}
		start = normed
	}

	return signNormalize(best)
}

func randVector(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()
	}
	return v
}

func normalizeCopy(v []float64) []float64 {
	out := append([]float64(nil), v...)
	norm := floats.Norm(out, 2)
	if norm == 0 {
		return out
	}
	floats.Scale(1/norm, out)
	return out
}

// signNormalize enforces a deterministic sign: the first element whose
// magnitude exceeds zeroTol must be positive.
func signNormalize(v []float64) []float64 {
	for _, x := range v {
		if math.Abs(x) > zeroTol {
			if x < 0 {
				floats.Scale(-1, v)
			}
			break
		}
	}
	return v
}
