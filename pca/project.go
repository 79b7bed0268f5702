package pca

import (
	"math"

	"github.com/deliberata/opine/matrix"
)

// Project computes the sparsity-aware 2-D projection of a single
// participant's vote vector (length C, Missing sentinel for absent
// cells) against a fitted Result's first two components:
//
//	p1 = sum_{i present} (u_i - center_i) * comp1_i
//	p2 = sum_{i present} (u_i - center_i) * comp2_i
//	scale = sqrt(C / max(n_present, 1))
//	projection = (p1, p2) * scale
//
// u_i == 0 (a recorded pass) counts as present; only a missing cell is
// excluded. A participant with no present votes projects to (0, 0).
func Project(votes []float64, result Result) (p1, p2 float64) {
	if len(result.Components) == 0 {
		return 0, 0
	}
	comp1 := result.Components[0]
	var comp2 []float64
	if len(result.Components) > 1 {
		comp2 = result.Components[1]
	}

	nCmnts := len(votes)
	nPresent := 0
	for i, v := range votes {
		if matrix.IsMissing(v) {
			continue
		}
		adj := v - result.Center[i]
		p1 += adj * comp1[i]
		if comp2 != nil {
			p2 += adj * comp2[i]
		}
		nPresent++
	}

	if nPresent == 0 {
		return 0, 0
	}

	scale := math.Sqrt(float64(nCmnts) / math.Max(float64(nPresent), 1))
	return p1 * scale, p2 * scale
}
