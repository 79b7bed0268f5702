package repness

import (
	"math"
	"testing"

	"github.com/deliberata/opine/cluster"
	"github.com/deliberata/opine/engineconfig"
	"github.com/deliberata/opine/matrix"
)

func buildGroupedMatrix() (*matrix.Matrix, []cluster.Cluster) {
	m := matrix.New()
	var updates []matrix.Update
	// Group A (p0..p4) strongly agrees with c1, group B (p5..p9) disagrees.
	for i := 0; i < 5; i++ {
		p := []string{"p0", "p1", "p2", "p3", "p4"}[i]
		updates = append(updates,
			matrix.Update{Row: p, Col: "c1", Value: "agree"},
			matrix.Update{Row: p, Col: "c2", Value: "agree"},
		)
	}
	for i := 0; i < 5; i++ {
		p := []string{"p5", "p6", "p7", "p8", "p9"}[i]
		updates = append(updates,
			matrix.Update{Row: p, Col: "c1", Value: "disagree"},
			matrix.Update{Row: p, Col: "c2", Value: "agree"},
		)
	}
	m = m.BatchUpdate(updates, true)

	clusters := []cluster.Cluster{
		{ID: 0, Members: []string{"p0", "p1", "p2", "p3", "p4"}},
		{ID: 1, Members: []string{"p5", "p6", "p7", "p8", "p9"}},
	}
	return m, clusters
}

func TestComputeIdentifiesDivisiveAndConsensusComments(t *testing.T) {
	eff, clusters := buildGroupedMatrix()
	cfg := engineconfig.Default()

	res := Compute(eff, clusters, cfg)

	groupAStats := res.GroupRepness[0]
	if len(groupAStats) == 0 {
		t.Fatal("expected group 0 to have representative comments")
	}
	foundC1Agree := false
	for _, s := range groupAStats {
		if s.CommentID == "c1" && s.Repful == "agree" {
			foundC1Agree = true
		}
	}
	if !foundC1Agree {
		t.Errorf("group 0 should list c1 as agreement-representative, got %+v", groupAStats)
	}

	found := false
	for _, c := range res.ConsensusComments {
		if c.CommentID == "c2" {
			found = true
		}
	}
	if !found {
		t.Errorf("c2 (agreed by both groups) should be a consensus comment, got %+v", res.ConsensusComments)
	}
}

func TestComputeSkipsEmptyGroups(t *testing.T) {
	eff, clusters := buildGroupedMatrix()
	clusters = append(clusters, cluster.Cluster{ID: 2, Members: []string{"ghost"}})
	cfg := engineconfig.Default()

	res := Compute(eff, clusters, cfg)
	if res.GroupRepness[2] != nil {
		t.Errorf("group with no matching rows should have nil repness, got %+v", res.GroupRepness[2])
	}
}

func TestPropTestZeroOnZeroSample(t *testing.T) {
	if z := propTest(0.5, 0, 0.5); z != 0 {
		t.Errorf("propTest with n=0 = %v, want 0", z)
	}
}

func TestTwoPropTestZeroOnZeroSample(t *testing.T) {
	if z := twoPropTest(0.5, 0, 0.5, 5); z != 0 {
		t.Errorf("twoPropTest with n1=0 = %v, want 0", z)
	}
}

func TestSelectRepCommentsCapsAtTargetCounts(t *testing.T) {
	var stats []CommentStat
	for i := 0; i < 10; i++ {
		stats = append(stats, CommentStat{
			CommentID: string(rune('a' + i)), Pa: 0.9, Pd: 0.1,
			AgreeMetric: float64(i), PassesSignificance: true,
		})
	}
	selected := selectRepComments(stats, 3, 2)
	agreeCount := 0
	for _, s := range selected {
		if s.Repful == "agree" {
			agreeCount++
		}
	}
	if agreeCount != 3 {
		t.Errorf("got %d agree-selected comments, want 3 (capped)", agreeCount)
	}
}

func TestParticipantStatsCountsAgreeDisagreePass(t *testing.T) {
	eff, clusters := buildGroupedMatrix()
	stats := ParticipantStats(eff, clusters)

	p0, ok := stats["p0"]
	if !ok {
		t.Fatal("expected stats for p0")
	}
	if p0.NAgree != 2 || p0.NDisagree != 0 || p0.NPass != 0 {
		t.Errorf("p0 stats = %+v, want NAgree=2 NDisagree=0 NPass=0", p0)
	}
	if !p0.HasGroup || p0.Group != 0 {
		t.Errorf("p0 group = %v (has=%v), want 0", p0.Group, p0.HasGroup)
	}
}

func TestVoteCountersAggregates(t *testing.T) {
	eff, _ := buildGroupedMatrix()
	vs := VoteCounters(eff)
	if vs.NumParticipants != 10 || vs.NumComments != 2 {
		t.Errorf("VoteCounters dims = %+v, want 10 participants, 2 comments", vs)
	}
	if vs.TotalAgree+vs.TotalDisagree+vs.TotalPass != 20 {
		t.Errorf("VoteCounters total votes = %d, want 20", vs.TotalAgree+vs.TotalDisagree+vs.TotalPass)
	}
}

func TestComputeNoConsensusWithSingleGroup(t *testing.T) {
	eff, clusters := buildGroupedMatrix()
	cfg := engineconfig.Default()
	res := Compute(eff, clusters[:1], cfg)
	if len(res.ConsensusComments) != 0 {
		t.Errorf("single-group compute should have no consensus comments, got %+v", res.ConsensusComments)
	}
}

func TestFinalizeHandlesZeroVarianceGracefully(t *testing.T) {
	cfg := engineconfig.Default()
	zero := basicStat{}
	cs := finalize(zero, zero, "c0", 0, cfg.Z90)
	if math.IsNaN(cs.Pat) || math.IsNaN(cs.Rat) {
		t.Errorf("finalize with all-zero stats produced NaN: %+v", cs)
	}
}
