// Package cluster implements warm-startable k-means over a participant's
// projected points (typically the 2-D PCA projection), grounded on the
// splay/merge clean-start strategy and post-processing used by the
// conversation's group-cluster stage.
package cluster

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/deliberata/opine/engineconfig"
)

// Cluster is a group of participants in projected space.
type Cluster struct {
	ID      int
	Center  []float64
	Members []string
}

// DetermineK picks a default k from the participant count n, per the
// "don't chase spurious clusters on small data, cap k on very large data"
// heuristic.
func DetermineK(n int) int {
	var k int
	switch {
	case n < 10:
		return 2
	case n >= 500:
		k = 2 + int(math.Min(1, math.Log2(float64(n))/10))
	default:
		k = 2 + int(math.Min(2, math.Log2(float64(n))/5))
	}
	if k < 2 {
		return 2
	}
	return k
}

// Fit clusters the given named points (points[i] is the projection of
// names[i]) into k groups. prev supplies a warm start: if non-empty, its
// centers and ids seed the splay/merge clean-start and its ids are
// preserved across ticks by center-proximity matching. weights, if
// non-nil, maps participant name to a center-update weight (default 1).
func Fit(names []string, points [][]float64, k int, cfg engineconfig.Config, prev []Cluster, weights map[string]float64) []Cluster {
	n := len(points)
	if n == 0 {
		return nil
	}
	dim := len(points[0])

	idx := cleanStart(points, dim, k, cfg.Seed, prev, names)

	members := make([][]int, len(idx))
	for iter := 0; iter < cfg.ClusterMaxIter; iter++ {
		assigned := assign(points, idx)
		newCenters, newMembers := recompute(points, names, assigned, idx, weights)
		newCenters, newMembers = dropEmpty(newCenters, newMembers)

		if convergedBelowTolerance(idx, newCenters, cfg.ClusterTolerance) {
			idx = newCenters
			members = newMembers
			break
		}
		idx = newCenters
		members = newMembers
	}

	clusters := make([]Cluster, len(idx))
	for i, c := range idx {
		memberNames := make([]string, len(members[i]))
		for j, pi := range members[i] {
			memberNames[j] = names[pi]
		}
		clusters[i] = Cluster{ID: i, Center: c, Members: memberNames}
	}

	matchIdentity(clusters, prev)
	sort.SliceStable(clusters, func(a, b int) bool {
		return len(clusters[a].Members) > len(clusters[b].Members)
	})
	return clusters
}

// cleanStart returns the initial centers: warm-started via splay/merge
// from prev if supplied, otherwise a fixed-seed k-means++-style seeding.
func cleanStart(points [][]float64, dim, k int, seed int64, prev []Cluster, names []string) [][]float64 {
	if len(prev) == 0 {
		return seedPlusPlus(points, k, seed)
	}

	nameIdx := make(map[string]int, len(names))
	for i, nm := range names {
		nameIdx[nm] = i
	}

	type wc struct {
		center  []float64
		members []int
	}
	clusters := make([]wc, len(prev))
	for i, c := range prev {
		center := append([]float64(nil), c.Center...)
		if len(center) != dim {
			center = padOrTrim(center, dim)
		}
		var members []int
		for _, m := range c.Members {
			if pi, ok := nameIdx[m]; ok {
				members = append(members, pi)
			}
		}
		clusters[i] = wc{center: center, members: members}
	}

	for len(clusters) < k {
		largest := 0
		for i := range clusters {
			if len(clusters[i].members) > len(clusters[largest].members) {
				largest = i
			}
		}
		c1, c2, ok := splitCluster(points, clusters[largest].center, clusters[largest].members)
		if !ok {
			// Nothing left to split; pad with a fresh random seed instead
			// of looping forever on an all-singleton warm start.
			clusters = append(clusters, wc{center: randCenter(points, dim, seed+int64(len(clusters)))})
			continue
		}
		clusters[largest] = c1
		clusters = append(clusters, c2)
	}

	for len(clusters) > k {
		bi, bj := 0, 1
		best := math.Inf(1)
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := euclidean(clusters[i].center, clusters[j].center)
				if d < best {
					best = d
					bi, bj = i, j
				}
			}
		}
		merged := make([]float64, dim)
		for d := 0; d < dim; d++ {
			merged[d] = (clusters[bi].center[d] + clusters[bj].center[d]) / 2
		}
		clusters[bi] = wc{center: merged, members: append(clusters[bi].members, clusters[bj].members...)}
		clusters = append(clusters[:bj], clusters[bj+1:]...)
	}

	out := make([][]float64, len(clusters))
	for i, c := range clusters {
		out[i] = c.center
	}
	return out
}

func splitCluster(points [][]float64, center []float64, members []int) (c1, c2 struct {
	center  []float64
	members []int
}, ok bool) {
	if len(members) <= 1 {
		return c1, c2, false
	}
	distal := members[0]
	maxDist := -1.0
	for _, m := range members {
		d := euclidean(points[m], center)
		if d > maxDist {
			maxDist = d
			distal = m
		}
	}
	c1.center = append([]float64(nil), center...)
	c2.center = append([]float64(nil), points[distal]...)
	for _, m := range members {
		if euclidean(points[m], c1.center) <= euclidean(points[m], c2.center) {
			c1.members = append(c1.members, m)
		} else {
			c2.members = append(c2.members, m)
		}
	}
	c1.center = mean(points, c1.members, nil, c1.center)
	c2.center = mean(points, c2.members, nil, c2.center)
	return c1, c2, true
}

func randCenter(points [][]float64, dim int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	p := points[rng.Intn(len(points))]
	return append([]float64(nil), p...)
}

// seedPlusPlus implements fixed-seed k-means++ seeding: first center
// uniform at random, subsequent centers proportional to squared distance
// to the nearest existing center.
func seedPlusPlus(points [][]float64, k int, seed int64) [][]float64 {
	n := len(points)
	if n <= k {
		centers := make([][]float64, n)
		for i, p := range points {
			centers[i] = append([]float64(nil), p...)
		}
		return centers
	}

	rng := rand.New(rand.NewSource(seed))
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), points[rng.Intn(n)]...))

	for len(centers) < k {
		dists := make([]float64, n)
		total := 0.0
		for i, p := range points {
			min := math.Inf(1)
			for _, c := range centers {
				if d := euclidean(p, c); d < min {
					min = d
				}
			}
			dists[i] = min * min
			total += dists[i]
		}
		var next int
		if total == 0 {
			next = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			acc := 0.0
			next = n - 1
			for i, d := range dists {
				acc += d
				if acc >= target {
					next = i
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), points[next]...))
	}
	return centers
}

func assign(points, centers [][]float64) []int {
	assigned := make([]int, len(points))
	for i, p := range points {
		best := 0
		bestDist := math.Inf(1)
		for c, center := range centers {
			d := euclidean(p, center)
			if d < bestDist {
				bestDist = d
				best = c
			}
		}
		assigned[i] = best
	}
	return assigned
}

func recompute(points [][]float64, names []string, assigned []int, prevCenters [][]float64, weights map[string]float64) ([][]float64, [][]int) {
	k := len(prevCenters)
	members := make([][]int, k)
	for i, c := range assigned {
		members[c] = append(members[c], i)
	}
	centers := make([][]float64, k)
	for c := 0; c < k; c++ {
		if len(members[c]) == 0 {
			centers[c] = prevCenters[c]
			continue
		}
		centers[c] = mean(points, members[c], func(i int) float64 {
			if weights == nil {
				return 1
			}
			if w, ok := weights[names[i]]; ok {
				return w
			}
			return 1
		}, nil)
	}
	return centers, members
}

func mean(points [][]float64, members []int, weight func(int) float64, fallback []float64) []float64 {
	if len(members) == 0 {
		return fallback
	}
	dim := len(points[members[0]])
	sum := make([]float64, dim)
	totalW := 0.0
	for _, m := range members {
		w := 1.0
		if weight != nil {
			w = weight(m)
		}
		for d := 0; d < dim; d++ {
			sum[d] += points[m][d] * w
		}
		totalW += w
	}
	if totalW == 0 {
		totalW = 1
	}
	floats.Scale(1/totalW, sum)
	return sum
}

func dropEmpty(centers [][]float64, members [][]int) ([][]float64, [][]int) {
	var c2 [][]float64
	var m2 [][]int
	for i, m := range members {
		if len(m) > 0 {
			c2 = append(c2, centers[i])
			m2 = append(m2, m)
		}
	}
	return c2, m2
}

func convergedBelowTolerance(prev, next [][]float64, tol float64) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if euclidean(prev[i], next[i]) > tol {
			return false
		}
	}
	return true
}

// matchIdentity assigns cluster ids by matching each final cluster to the
// closest unmatched previous cluster (by center distance); unmatched
// final clusters get ids continuing past the highest previous id. This
// preserves cluster identity across ticks independently of the
// descending-member-count display order applied afterwards.
func matchIdentity(clusters []Cluster, prev []Cluster) {
	if len(prev) == 0 {
		for i := range clusters {
			clusters[i].ID = i
		}
		return
	}

	usedPrev := make([]bool, len(prev))
	nextID := 0
	for _, p := range prev {
		if p.ID >= nextID {
			nextID = p.ID + 1
		}
	}

	assignedID := make([]int, len(clusters))
	for i := range assignedID {
		assignedID[i] = -1
	}

	type pair struct {
		ci, pi int
		dist   float64
	}
	var pairs []pair
	for ci, c := range clusters {
		for pi, p := range prev {
			pairs = append(pairs, pair{ci, pi, euclidean(c.Center, p.Center)})
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].dist < pairs[b].dist })

	usedCluster := make([]bool, len(clusters))
	for _, pr := range pairs {
		if usedCluster[pr.ci] || usedPrev[pr.pi] {
			continue
		}
		usedCluster[pr.ci] = true
		usedPrev[pr.pi] = true
		assignedID[pr.ci] = prev[pr.pi].ID
	}

	for i := range clusters {
		if assignedID[i] == -1 {
			assignedID[i] = nextID
			nextID++
		}
		clusters[i].ID = assignedID[i]
	}
}

// Same reports whether two cluster sets are essentially identical: equal
// count, and (after sorting both by center[0]) every pair of centers
// within tol of each other.
func Same(a, b []Cluster, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]Cluster(nil), a...)
	bs := append([]Cluster(nil), b...)
	byFirstDim := func(cs []Cluster) func(i, j int) bool {
		return func(i, j int) bool { return cs[i].Center[0] < cs[j].Center[0] }
	}
	sort.SliceStable(as, byFirstDim(as))
	sort.SliceStable(bs, byFirstDim(bs))
	for i := range as {
		if euclidean(as[i].Center, bs[i].Center) > tol {
			return false
		}
	}
	return true
}

// Silhouette computes the mean silhouette coefficient for the given
// points and clusters. Returns 0 for fewer than two clusters or no data.
func Silhouette(names []string, points [][]float64, clusters []Cluster) float64 {
	if len(clusters) <= 1 || len(points) == 0 {
		return 0
	}
	nameIdx := make(map[string]int, len(names))
	for i, nm := range names {
		nameIdx[nm] = i
	}

	var values []float64
	for ci, c := range clusters {
		for _, m := range c.Members {
			idx, ok := nameIdx[m]
			if !ok {
				continue
			}
			same := otherDistances(points, idx, c.Members, nameIdx)
			if len(same) == 0 {
				values = append(values, 0)
				continue
			}
			a := meanOf(same)

			b := math.Inf(1)
			for cj, other := range clusters {
				if cj == ci || len(other.Members) == 0 {
					continue
				}
				d := meanOf(otherDistances(points, idx, other.Members, nameIdx))
				if d < b {
					b = d
				}
			}
			if math.IsInf(b, 1) {
				values = append(values, 0)
				continue
			}
			if a == 0 && b == 0 {
				values = append(values, 0)
				continue
			}
			values = append(values, (b-a)/math.Max(a, b))
		}
	}
	if len(values) == 0 {
		return 0
	}
	return meanOf(values)
}

func otherDistances(points [][]float64, idx int, members []string, nameIdx map[string]int) []float64 {
	var out []float64
	for _, m := range members {
		j, ok := nameIdx[m]
		if !ok || j == idx {
			continue
		}
		out = append(out, euclidean(points[idx], points[j]))
	}
	return out
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Sum(v) / float64(len(v))
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func padOrTrim(v []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, v)
	return out
}

// ClusterDTO is the serialisable form of a Cluster.
type ClusterDTO struct {
	ID      int      `json:"id"`
	Center  []float64 `json:"center"`
	Members []string `json:"members"`
}

// ToDict converts clusters to their serialisable form.
func ToDict(clusters []Cluster) []ClusterDTO {
	out := make([]ClusterDTO, len(clusters))
	for i, c := range clusters {
		out[i] = ClusterDTO{ID: c.ID, Center: append([]float64(nil), c.Center...), Members: append([]string(nil), c.Members...)}
	}
	return out
}

// FromDict rebuilds clusters from their serialisable form.
func FromDict(dtos []ClusterDTO) []Cluster {
	out := make([]Cluster, len(dtos))
	for i, d := range dtos {
		out[i] = Cluster{ID: d.ID, Center: append([]float64(nil), d.Center...), Members: append([]string(nil), d.Members...)}
	}
	return out
}
