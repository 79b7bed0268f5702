// Package repness computes per-group, per-comment representativeness
// statistics (two-proportion z-tests with Bayesian smoothing) and
// selects the representative and consensus comments that distinguish
// each opinion group, grounded on the agree/disagree proportion tests
// used throughout the original comment-stats pipeline.
package repness

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/deliberata/opine/cluster"
	"github.com/deliberata/opine/engineconfig"
	"github.com/deliberata/opine/matrix"
)

// CommentStat holds one comment's representativeness statistics within
// one group.
type CommentStat struct {
	CommentID string
	GroupID   int

	Na, Nd, Ns int
	Pa, Pd     float64
	Pat, Pdt   float64
	Ra, Rd     float64
	Rat, Rdt   float64

	AgreeMetric, DisagreeMetric float64
	Repful                      string
	PassesSignificance          bool
}

// ConsensusStat holds one comment's cross-group consensus statistics.
type ConsensusStat struct {
	CommentID string
	AvgAgree  float64
	Repful    string
}

// Result bundles the representativeness output of one recompute.
type Result struct {
	GroupRepness      map[int][]CommentStat
	ConsensusComments []ConsensusStat
}

// ParticipantStat holds per-participant descriptive counters and
// correlation with each group's mean vote profile.
type ParticipantStat struct {
	NAgree, NDisagree, NPass, NVotes int
	Group                           int
	HasGroup                        bool
	GroupCorrelations               map[int]float64
}

// VoteStats holds aggregate vote counters across the effective matrix.
type VoteStats struct {
	TotalAgree, TotalDisagree, TotalPass int
	NumParticipants, NumComments        int
}

func isAgree(v float64) bool    { return !matrix.IsMissing(v) && v > 0 }
func isDisagree(v float64) bool { return !matrix.IsMissing(v) && v < 0 }
func isPass(v float64) bool     { return !matrix.IsMissing(v) && v == 0 }

// propTest is the one-proportion z-test of p against null p0 over n
// observations. Returns 0 on zero-variance or zero-sample inputs.
func propTest(p float64, n int, p0 float64) float64 {
	if n == 0 || p0 <= 0 || p0 >= 1 {
		return 0
	}
	se := math.Sqrt(p0 * (1 - p0) / float64(n))
	if se == 0 {
		return 0
	}
	return (p - p0) / se
}

// twoPropTest is the pooled two-proportion z-test between (p1, n1) and
// (p2, n2). Returns 0 on zero-variance or zero-sample inputs.
func twoPropTest(p1 float64, n1 int, p2 float64, n2 int) float64 {
	if n1 == 0 || n2 == 0 {
		return 0
	}
	pooled := (p1*float64(n1) + p2*float64(n2)) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 0
	}
	return (p1 - p2) / se
}

type basicStat struct {
	na, nd, ns int
	pa, pd     float64
	pat, pdt   float64
}

func computeBasic(votes []float64, members []int, cfg engineconfig.Config) basicStat {
	var na, nd int
	for _, i := range members {
		if i < 0 || i >= len(votes) {
			continue
		}
		v := votes[i]
		switch {
		case isAgree(v):
			na++
		case isDisagree(v):
			nd++
		}
	}
	ns := na + nd
	alpha := cfg.PseudoCount
	pa, pd := 0.5, 0.5
	if ns > 0 {
		pa = (float64(na) + alpha/2) / (float64(ns) + alpha)
		pd = (float64(nd) + alpha/2) / (float64(ns) + alpha)
	}
	return basicStat{
		na: na, nd: nd, ns: ns,
		pa: pa, pd: pd,
		pat: propTest(pa, ns, 0.5),
		pdt: propTest(pd, ns, 0.5),
	}
}

func finalize(group, other basicStat, commentID string, groupID int, z90 float64) CommentStat {
	ra := 1.0
	if other.pa > 0 {
		ra = group.pa / other.pa
	}
	rd := 1.0
	if other.pd > 0 {
		rd = group.pd / other.pd
	}
	rat := twoPropTest(group.pa, group.ns, other.pa, other.ns)
	rdt := twoPropTest(group.pd, group.ns, other.pd, other.ns)

	agreeMetric := group.pa * (math.Abs(group.pat) + math.Abs(rat))
	disagreeMetric := (1 - group.pd) * (math.Abs(group.pdt) + math.Abs(rdt))

	cs := CommentStat{
		CommentID: commentID,
		GroupID:   groupID,
		Na:        group.na, Nd: group.nd, Ns: group.ns,
		Pa: group.pa, Pd: group.pd,
		Pat: group.pat, Pdt: group.pdt,
		Ra: ra, Rd: rd,
		Rat: rat, Rdt: rdt,
		AgreeMetric: agreeMetric, DisagreeMetric: disagreeMetric,
	}

	switch {
	case cs.Pa > 0.5 && cs.Ra > 1.0:
		cs.Repful = "agree"
	case cs.Pd > 0.5 && cs.Rd > 1.0:
		cs.Repful = "disagree"
	case agreeMetric >= disagreeMetric:
		cs.Repful = "agree"
	default:
		cs.Repful = "disagree"
	}

	var p, pTest, rTest float64
	if cs.Repful == "agree" {
		p, pTest, rTest = cs.Pa, cs.Pat, cs.Rat
	} else {
		p, pTest, rTest = cs.Pd, cs.Pdt, cs.Rdt
	}
	cs.PassesSignificance = p >= 0.5 && math.Abs(pTest) >= z90 && math.Abs(rTest) >= z90

	return cs
}

// Compute derives per-group, per-comment representativeness stats and
// the cross-group consensus comments from eff's votes and the current
// group clusters.
func Compute(eff *matrix.Matrix, clusters []cluster.Cluster, cfg engineconfig.Config) Result {
	result := Result{GroupRepness: make(map[int][]CommentStat)}
	rowNames := eff.RowNames()
	colNames := eff.ColNames()

	rowIdx := make(map[string]int, len(rowNames))
	for i, n := range rowNames {
		rowIdx[n] = i
	}

	colVotes := make([][]float64, len(colNames))
	for j, name := range colNames {
		col, err := eff.GetCol(name)
		if err != nil {
			continue
		}
		colVotes[j] = col
	}

	var allStats []CommentStat

	for _, g := range clusters {
		var members []int
		memberSet := make(map[int]bool)
		for _, m := range g.Members {
			if i, ok := rowIdx[m]; ok {
				members = append(members, i)
				memberSet[i] = true
			}
		}
		if len(members) == 0 {
			result.GroupRepness[g.ID] = nil
			continue
		}

		var others []int
		for i := range rowNames {
			if !memberSet[i] {
				others = append(others, i)
			}
		}

		var groupStats []CommentStat
		for j, name := range colNames {
			votes := colVotes[j]
			if votes == nil {
				continue
			}
			if !anyVoted(votes) {
				continue
			}
			groupBasic := computeBasic(votes, members, cfg)
			otherBasic := computeBasic(votes, others, cfg)
			cs := finalize(groupBasic, otherBasic, name, g.ID, cfg.Z90)
			groupStats = append(groupStats, cs)
			allStats = append(allStats, cs)
		}

		result.GroupRepness[g.ID] = selectRepComments(groupStats, 3, 2)
	}

	if len(clusters) > 1 {
		result.ConsensusComments = selectConsensusComments(allStats, clusters)
	}

	return result
}

func anyVoted(votes []float64) bool {
	for _, v := range votes {
		if !matrix.IsMissing(v) {
			return true
		}
	}
	return false
}

func selectRepComments(stats []CommentStat, agreeCount, disagreeCount int) []CommentStat {
	if len(stats) == 0 {
		return nil
	}

	var agreeCands, disagreeCands []CommentStat
	for _, s := range stats {
		if s.Pa > s.Pd {
			agreeCands = append(agreeCands, s)
		} else if s.Pd > s.Pa {
			disagreeCands = append(disagreeCands, s)
		}
	}

	agree := rankedSelection(agreeCands, func(s CommentStat) float64 { return s.AgreeMetric }, agreeCount)
	disagree := rankedSelection(disagreeCands, func(s CommentStat) float64 { return s.DisagreeMetric }, disagreeCount)

	for i := range agree {
		agree[i].Repful = "agree"
	}
	for i := range disagree {
		disagree[i].Repful = "disagree"
	}

	return append(agree, disagree...)
}

// rankedSelection sorts candidates into significant-first, then
// non-significant, each by metric descending, and takes the top n:
// "prefer significance; if fewer than target pass, fill from remainder".
func rankedSelection(cands []CommentStat, metric func(CommentStat) float64, n int) []CommentStat {
	if len(cands) == 0 || n == 0 {
		return nil
	}
	var sig, rest []CommentStat
	for _, s := range cands {
		if s.PassesSignificance {
			sig = append(sig, s)
		} else {
			rest = append(rest, s)
		}
	}
	sortDesc := func(s []CommentStat) {
		sort.SliceStable(s, func(i, j int) bool { return metric(s[i]) > metric(s[j]) })
	}
	sortDesc(sig)
	sortDesc(rest)

	out := append(sig, rest...)
	if len(out) > n {
		out = out[:n]
	}
	return append([]CommentStat(nil), out...)
}

func selectConsensusComments(allStats []CommentStat, clusters []cluster.Cluster) []ConsensusStat {
	byComment := make(map[string][]CommentStat)
	for _, s := range allStats {
		byComment[s.CommentID] = append(byComment[s.CommentID], s)
	}

	var candidates []ConsensusStat
	for cid, stats := range byComment {
		if len(stats) != len(clusters) {
			continue
		}
		allAbove := true
		sum := 0.0
		for _, s := range stats {
			if s.Pa <= 0.6 {
				allAbove = false
				break
			}
			sum += s.Pa
		}
		if !allAbove {
			continue
		}
		candidates = append(candidates, ConsensusStat{
			CommentID: cid,
			AvgAgree:  sum / float64(len(stats)),
			Repful:    "consensus",
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].AvgAgree > candidates[j].AvgAgree })
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}
	return candidates
}

// ParticipantStats computes per-participant vote counters, group
// membership, and Pearson correlation with each group's mean vote
// profile (when at least 3 common non-missing votes exist).
func ParticipantStats(eff *matrix.Matrix, clusters []cluster.Cluster) map[string]ParticipantStat {
	if len(clusters) == 0 {
		return nil
	}

	rowNames := eff.RowNames()
	colNames := eff.ColNames()

	groupOf := make(map[string]int)
	hasGroup := make(map[string]bool)
	for _, g := range clusters {
		for _, m := range g.Members {
			groupOf[m] = g.ID
			hasGroup[m] = true
		}
	}

	rowIdx := make(map[string]int, len(rowNames))
	for i, n := range rowNames {
		rowIdx[n] = i
	}

	groupMeans := make(map[int][]float64, len(clusters))
	for _, g := range clusters {
		groupMeans[g.ID] = meanVoteProfile(eff, colNames, g.Members, rowIdx)
	}

	result := make(map[string]ParticipantStat, len(rowNames))
	for _, name := range rowNames {
		row, err := eff.GetRow(name)
		if err != nil {
			continue
		}
		var na, nd, npass int
		for _, v := range row {
			switch {
			case isAgree(v):
				na++
			case isDisagree(v):
				nd++
			case isPass(v):
				npass++
			}
		}
		nVotes := na + nd
		if nVotes == 0 {
			continue
		}

		correlations := make(map[int]float64)
		for _, g := range clusters {
			gm := groupMeans[g.ID]
			var pvals, gvals []float64
			for j, v := range row {
				if matrix.IsMissing(v) || math.IsNaN(gm[j]) {
					continue
				}
				pvals = append(pvals, v)
				gvals = append(gvals, gm[j])
			}
			if len(pvals) >= 3 {
				correlations[g.ID] = stat.Correlation(pvals, gvals, nil)
			}
		}

		result[name] = ParticipantStat{
			NAgree: na, NDisagree: nd, NPass: npass, NVotes: nVotes,
			Group: groupOf[name], HasGroup: hasGroup[name],
			GroupCorrelations: correlations,
		}
	}
	return result
}

func meanVoteProfile(eff *matrix.Matrix, colNames []string, members []string, rowIdx map[string]int) []float64 {
	out := make([]float64, len(colNames))
	for j, name := range colNames {
		col, err := eff.GetCol(name)
		if err != nil {
			out[j] = math.NaN()
			continue
		}
		sum, n := 0.0, 0
		for _, m := range members {
			idx, ok := rowIdx[m]
			if !ok || idx >= len(col) || matrix.IsMissing(col[idx]) {
				continue
			}
			sum += col[idx]
			n++
		}
		if n == 0 {
			out[j] = math.NaN()
			continue
		}
		out[j] = sum / float64(n)
	}
	return out
}

// VoteCounters tallies aggregate agree/disagree/pass counts across the
// effective matrix.
func VoteCounters(eff *matrix.Matrix) VoteStats {
	rowNames := eff.RowNames()
	colNames := eff.ColNames()
	vs := VoteStats{NumParticipants: len(rowNames), NumComments: len(colNames)}
	for _, name := range rowNames {
		row, err := eff.GetRow(name)
		if err != nil {
			continue
		}
		for _, v := range row {
			switch {
			case isAgree(v):
				vs.TotalAgree++
			case isDisagree(v):
				vs.TotalDisagree++
			case isPass(v):
				vs.TotalPass++
			}
		}
	}
	return vs
}
