package cluster

import (
	"testing"

	"github.com/deliberata/opine/engineconfig"
)

func TestDetermineK(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{1, 2},
		{9, 2},
		{10, 2},
		{500, 2},
		{5000, 3},
	}
	for _, c := range cases {
		if got := DetermineK(c.n); got < 2 {
			t.Errorf("DetermineK(%d) = %d, want >= 2", c.n, got)
		} else if c.n < 10 && got != c.want {
			t.Errorf("DetermineK(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func twoBlockPoints() ([]string, [][]float64) {
	names := []string{"a0", "a1", "a2", "a3", "a4", "b0", "b1", "b2", "b3", "b4"}
	points := [][]float64{
		{-10, 0}, {-9, 1}, {-11, -1}, {-10, 1}, {-9, -1},
		{10, 0}, {9, 1}, {11, -1}, {10, 1}, {9, -1},
	}
	return names, points
}

func TestFitSeparatesTwoBlocks(t *testing.T) {
	names, points := twoBlockPoints()
	cfg := engineconfig.Default()

	clusters := Fit(names, points, 2, cfg, nil, nil)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}

	groupOf := make(map[string]int)
	for _, c := range clusters {
		for _, m := range c.Members {
			groupOf[m] = c.ID
		}
	}
	for _, m := range []string{"a0", "a1", "a2", "a3", "a4"} {
		if groupOf[m] != groupOf["a0"] {
			t.Errorf("%s not grouped with a0", m)
		}
	}
	for _, m := range []string{"b0", "b1", "b2", "b3", "b4"} {
		if groupOf[m] != groupOf["b0"] {
			t.Errorf("%s not grouped with b0", m)
		}
	}
	if groupOf["a0"] == groupOf["b0"] {
		t.Error("the two opposing blocks ended up in the same cluster")
	}
}

func TestFitSortsByDescendingMemberCount(t *testing.T) {
	names := []string{"p0", "p1", "p2", "p3"}
	points := [][]float64{{0, 0}, {0.1, 0}, {0.1, 0.1}, {50, 50}}
	cfg := engineconfig.Default()

	clusters := Fit(names, points, 2, cfg, nil, nil)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	if len(clusters[0].Members) < len(clusters[1].Members) {
		t.Errorf("clusters not sorted by descending size: %d then %d",
			len(clusters[0].Members), len(clusters[1].Members))
	}
}

func TestFitWarmStartPreservesIdentity(t *testing.T) {
	names, points := twoBlockPoints()
	cfg := engineconfig.Default()

	first := Fit(names, points, 2, cfg, nil, nil)

	var idOfA, idOfB int
	for _, c := range first {
		for _, m := range c.Members {
			if m == "a0" {
				idOfA = c.ID
			}
			if m == "b0" {
				idOfB = c.ID
			}
		}
	}

	// Re-run from the same data, warm-started with the first result;
	// the cluster ids should be preserved since centers barely move.
	second := Fit(names, points, 2, cfg, first, nil)
	for _, c := range second {
		for _, m := range c.Members {
			if m == "a0" && c.ID != idOfA {
				t.Errorf("a0's cluster id changed across warm start: %d -> %d", idOfA, c.ID)
			}
			if m == "b0" && c.ID != idOfB {
				t.Errorf("b0's cluster id changed across warm start: %d -> %d", idOfB, c.ID)
			}
		}
	}
}

func TestFitSplaysToMoreClustersThanPrev(t *testing.T) {
	names, points := twoBlockPoints()
	cfg := engineconfig.Default()

	prev := Fit(names, points, 2, cfg, nil, nil)
	next := Fit(names, points, 4, cfg, prev, nil)
	if len(next) == 0 || len(next) > 4 {
		t.Fatalf("got %d clusters warm-starting from 2 to target 4, want 1..4", len(next))
	}
}

func TestFitMergesToFewerClustersThanPrev(t *testing.T) {
	names, points := twoBlockPoints()
	cfg := engineconfig.Default()

	prev := Fit(names, points, 4, cfg, nil, nil)
	next := Fit(names, points, 2, cfg, prev, nil)
	if len(next) != 2 {
		t.Fatalf("got %d clusters warm-starting from 4 to target 2, want 2", len(next))
	}
}

func TestSameClusteringDetectsEquivalence(t *testing.T) {
	a := []Cluster{{ID: 0, Center: []float64{-10, 0}}, {ID: 1, Center: []float64{10, 0}}}
	b := []Cluster{{ID: 1, Center: []float64{10.005, 0}}, {ID: 0, Center: []float64{-10.005, 0}}}
	if !Same(a, b, 0.01) {
		t.Error("near-identical reordered clusterings should be considered the same")
	}

	c := []Cluster{{ID: 0, Center: []float64{-10, 0}}, {ID: 1, Center: []float64{5, 0}}}
	if Same(a, c, 0.01) {
		t.Error("clusterings with a moved center should not be considered the same")
	}
}

func TestSilhouetteZeroForSingleCluster(t *testing.T) {
	names, points := twoBlockPoints()
	clusters := []Cluster{{ID: 0, Members: names}}
	if s := Silhouette(names, points, clusters); s != 0 {
		t.Errorf("Silhouette with one cluster = %v, want 0", s)
	}
}

func TestSilhouettePositiveForWellSeparatedBlocks(t *testing.T) {
	names, points := twoBlockPoints()
	cfg := engineconfig.Default()
	clusters := Fit(names, points, 2, cfg, nil, nil)

	s := Silhouette(names, points, clusters)
	if s <= 0 {
		t.Errorf("Silhouette for well-separated blocks = %v, want > 0", s)
	}
}

func TestToDictFromDictRoundTrip(t *testing.T) {
	clusters := []Cluster{
		{ID: 0, Center: []float64{1, 2}, Members: []string{"a", "b"}},
		{ID: 1, Center: []float64{3, 4}, Members: []string{"c"}},
	}
	dto := ToDict(clusters)
	back := FromDict(dto)

	if len(back) != len(clusters) {
		t.Fatalf("got %d clusters back, want %d", len(back), len(clusters))
	}
	for i := range clusters {
		if back[i].ID != clusters[i].ID {
			t.Errorf("cluster %d id = %v, want %v", i, back[i].ID, clusters[i].ID)
		}
		if len(back[i].Members) != len(clusters[i].Members) {
			t.Errorf("cluster %d members = %v, want %v", i, back[i].Members, clusters[i].Members)
		}
	}
}

func TestFitWeightsAffectCenterRecompute(t *testing.T) {
	names := []string{"p0", "p1"}
	points := [][]float64{{0, 0}, {10, 0}}
	cfg := engineconfig.Default()

	weights := map[string]float64{"p0": 1, "p1": 100}
	clusters := Fit(names, points, 1, cfg, nil, weights)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	if clusters[0].Center[0] < 5 {
		t.Errorf("weighted center = %v, want pulled toward heavily-weighted p1", clusters[0].Center)
	}
}
