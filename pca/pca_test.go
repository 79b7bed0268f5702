package pca

import (
	"math"
	"testing"

	"github.com/deliberata/opine/engineconfig"
	"github.com/deliberata/opine/matrix"
)

func buildTwoBlockMatrix() *matrix.Matrix {
	m := matrix.New()
	var updates []matrix.Update
	for i := 0; i < 10; i++ {
		p := rowName("p", i)
		updates = append(updates,
			matrix.Update{Row: p, Col: "c1", Value: "agree"},
			matrix.Update{Row: p, Col: "c2", Value: "agree"},
			matrix.Update{Row: p, Col: "c3", Value: "disagree"},
			matrix.Update{Row: p, Col: "c4", Value: "disagree"},
		)
	}
	for i := 10; i < 20; i++ {
		p := rowName("p", i)
		updates = append(updates,
			matrix.Update{Row: p, Col: "c1", Value: "disagree"},
			matrix.Update{Row: p, Col: "c2", Value: "disagree"},
			matrix.Update{Row: p, Col: "c3", Value: "agree"},
			matrix.Update{Row: p, Col: "c4", Value: "agree"},
		)
	}
	return m.BatchUpdate(updates, true)
}

func rowName(prefix string, i int) string {
	digits := "0123456789"
	if i < 10 {
		return prefix + string(digits[i])
	}
	return prefix + string(digits[i/10]) + string(digits[i%10])
}

func TestFitSeparatesTwoOpposingBlocks(t *testing.T) {
	m := buildTwoBlockMatrix()
	cfg := engineconfig.Default()
	res := Fit(m, 2, cfg, nil)

	if len(res.Components) != 2 {
		t.Fatalf("got %d components, want 2", len(res.Components))
	}

	rowP0, _ := m.GetRow("p0")
	rowP10, _ := m.GetRow("p10")
	p1a, _ := Project(rowP0, res)
	p1b, _ := Project(rowP10, res)

	if math.Signbit(p1a) == math.Signbit(p1b) {
		t.Errorf("opposing blocks projected to the same side: p0=%v p10=%v", p1a, p1b)
	}
}

func TestFitDeterministicUnderReorderedUpdates(t *testing.T) {
	m1 := buildTwoBlockMatrix()

	m2 := matrix.New()
	var updates []matrix.Update
	for i := 19; i >= 0; i-- {
		p := rowName("p", i)
		var c1, c2, c3, c4 string
		if i < 10 {
			c1, c2, c3, c4 = "agree", "agree", "disagree", "disagree"
		} else {
			c1, c2, c3, c4 = "disagree", "disagree", "agree", "agree"
		}
		updates = append(updates,
			matrix.Update{Row: p, Col: "c1", Value: c1},
			matrix.Update{Row: p, Col: "c2", Value: c2},
			matrix.Update{Row: p, Col: "c3", Value: c3},
			matrix.Update{Row: p, Col: "c4", Value: c4},
		)
	}
	m2 = m2.BatchUpdate(updates, true)

	cfg := engineconfig.Default()
	res1 := Fit(m1, 2, cfg, nil)
	res2 := Fit(m2, 2, cfg, nil)

	for comp := range res1.Components {
		for i := range res1.Components[comp] {
			if res1.Components[comp][i] != res2.Components[comp][i] {
				t.Fatalf("component %d differs between insertion orders at index %d: %v vs %v",
					comp, i, res1.Components[comp][i], res2.Components[comp][i])
			}
		}
	}
}

// TestSparseOpDeterministicAcrossCalls guards against the map-iteration
// nondeterminism that previously let two SparseOp() calls on the same
// matrix sum votes in different orders: with votes that are small exact
// integers, repeated Fit calls on the same matrix must now agree exactly.
func TestSparseOpDeterministicAcrossCalls(t *testing.T) {
	m := buildTwoBlockMatrix()
	cfg := engineconfig.Default()

	first := Fit(m, 2, cfg, nil)
	for i := 0; i < 20; i++ {
		next := Fit(m, 2, cfg, nil)
		for comp := range first.Components {
			for j := range first.Components[comp] {
				if first.Components[comp][j] != next.Components[comp][j] {
					t.Fatalf("run %d: component %d index %d differs: %v vs %v",
						i, comp, j, first.Components[comp][j], next.Components[comp][j])
				}
			}
		}
	}
}

func TestFitSingleColumn(t *testing.T) {
	m := matrix.New()
	m = m.BatchUpdate([]matrix.Update{
		{Row: "p1", Col: "c1", Value: "agree"},
		{Row: "p2", Col: "c1", Value: "disagree"},
	}, true)

	res := Fit(m, 2, engineconfig.Default(), nil)
	if len(res.Components) != 1 || len(res.Components[0]) != 1 || res.Components[0][0] != 1 {
		t.Errorf("single-column PCA = %v, want [[1]]", res.Components)
	}
}

func TestFitSingleRow(t *testing.T) {
	m := matrix.New()
	m = m.BatchUpdate([]matrix.Update{
		{Row: "p1", Col: "c1", Value: "agree"},
		{Row: "p1", Col: "c2", Value: "disagree"},
	}, true)

	res := Fit(m, 2, engineconfig.Default(), nil)
	if len(res.Components) != 2 {
		t.Fatalf("got %d components, want 2", len(res.Components))
	}
	for _, x := range res.Components[1] {
		if x != 0 {
			t.Errorf("second component for single-row data = %v, want all zeros", res.Components[1])
			break
		}
	}
	norm := res.Components[0][0]*res.Components[0][0] + res.Components[0][1]*res.Components[0][1]
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("first component not unit-length: %v (norm^2=%v)", res.Components[0], norm)
	}
}

func TestFitEmptyMatrixReturnsIdentityComponents(t *testing.T) {
	m := matrix.New()
	m = m.BatchUpdate([]matrix.Update{
		{Row: "p1", Col: "c1", Value: "pass"},
		{Row: "p2", Col: "c2", Value: "pass"},
	}, true)

	res := Fit(m, 2, engineconfig.Default(), nil)
	if res.Components[0][0] != 1 {
		t.Errorf("identity component 0 = %v, want one-hot on axis 0", res.Components[0])
	}
	if res.Components[1][1] != 1 {
		t.Errorf("identity component 1 = %v, want one-hot on axis 1", res.Components[1])
	}
}

func TestFitClipsAndPadsK(t *testing.T) {
	m := matrix.New()
	m = m.BatchUpdate([]matrix.Update{
		{Row: "p1", Col: "c1", Value: "agree"},
		{Row: "p1", Col: "c2", Value: "disagree"},
		{Row: "p2", Col: "c1", Value: "disagree"},
		{Row: "p2", Col: "c2", Value: "agree"},
	}, true)

	res := Fit(m, 5, engineconfig.Default(), nil)
	if len(res.Components) != 5 {
		t.Fatalf("got %d components, want 5 (requested K padded)", len(res.Components))
	}
	// effectiveK = min(5, min(rows=2, cols=2)) = 2; components 2..4 are
	// one-hot padding on axes 2%2=0, 3%2=1, 4%2=0.
	if res.Components[2][0] != 1 {
		t.Errorf("padded component 2 = %v, want one-hot on axis 0", res.Components[2])
	}
	if res.Components[3][1] != 1 {
		t.Errorf("padded component 3 = %v, want one-hot on axis 1", res.Components[3])
	}
}

func TestProjectZeroVotesYieldsOrigin(t *testing.T) {
	res := Result{Center: []float64{0, 0}, Components: [][]float64{{1, 0}, {0, 1}}}
	p1, p2 := Project([]float64{matrix.Missing, matrix.Missing}, res)
	if p1 != 0 || p2 != 0 {
		t.Errorf("all-missing projection = (%v,%v), want (0,0)", p1, p2)
	}
}

func TestProjectPresentZeroCountsTowardScale(t *testing.T) {
	res := Result{Center: []float64{0, 0, 0}, Components: [][]float64{{1, 0, 0}, {0, 1, 0}}}

	p1full, _ := Project([]float64{1, 0, 0}, res)
	p1sparse, _ := Project([]float64{1, matrix.Missing, matrix.Missing}, res)

	if math.Signbit(p1full) != math.Signbit(p1sparse) {
		t.Fatalf("direction changed between full and sparse projection")
	}
	if math.Abs(p1full) >= math.Abs(p1sparse) {
		t.Errorf("sparser vote (fewer present cells) should scale up, got full=%v sparse=%v", p1full, p1sparse)
	}
}
