// Package conversation bundles the Named Matrix, moderation sets, PCA,
// clustering and representativeness stages into one immutable-style
// state object and exposes the public update_votes / update_moderation /
// recompute / to_dict / from_dict operations, grounded on the teacher's
// pattern of returning a new value from every mutator rather than
// mutating shared state in place.
package conversation

import (
	"github.com/deliberata/opine/cluster"
	"github.com/deliberata/opine/engineconfig"
	"github.com/deliberata/opine/enginelog"
	"github.com/deliberata/opine/matrix"
	"github.com/deliberata/opine/moderation"
	"github.com/deliberata/opine/pca"
	"github.com/deliberata/opine/repness"
)

var log = enginelog.Get("conversation")

// Point is a 2-D projected position.
type Point struct {
	X, Y float64
}

// VoteEvent is one raw vote as received from the caller.
type VoteEvent struct {
	PID, TID string
	Vote     any
	Created  *int64
}

// State is a conversation's full derived snapshot. Every public
// operation returns a new *State rather than mutating the receiver.
type State struct {
	ConversationID string
	LastUpdated    int64

	RawMat *matrix.Matrix

	ModOutTids, ModInTids, MetaTids, ModOutPtpts []string
	EffMat                                       *matrix.Matrix

	PCA           pca.Result
	Proj          map[string]Point
	GroupClusters []cluster.Cluster
	Repness       repness.Result
	PtptStats     map[string]repness.ParticipantStat
	VoteStats     repness.VoteStats

	StalePCA, StaleClusters, StaleRepness bool
}

// New returns an empty conversation state.
func New(conversationID string) *State {
	m := matrix.New()
	return &State{
		ConversationID: conversationID,
		RawMat:         m,
		EffMat:         m,
	}
}

func (s *State) clone() *State {
	next := *s
	return &next
}

// UpdateVotes canonicalises and batch-applies events to raw_mat, re-derives
// eff_mat, and — when recompute is true — runs the full downstream
// pipeline. When recompute is false the prior pca/clusters/repness are
// kept and marked stale; callers must eventually call Recompute.
func (s *State) UpdateVotes(events []VoteEvent, recompute bool, cfg engineconfig.Config) *State {
	updates := make([]matrix.Update, len(events))
	for i, e := range events {
		updates[i] = matrix.Update{Row: e.PID, Col: e.TID, Value: e.Vote}
	}

	next := s.clone()
	next.RawMat = s.RawMat.BatchUpdate(updates, true)
	next.LastUpdated = s.LastUpdated + 1
	next.deriveEffMat()

	if recompute {
		return next.Recompute(cfg)
	}
	next.markStale()
	return next
}

// UpdateModeration replaces the moderation sets and re-derives eff_mat.
func (s *State) UpdateModeration(mod moderation.Sets, recompute bool, cfg engineconfig.Config) *State {
	next := s.clone()
	next.ModOutTids = append([]string(nil), mod.ModOutTids...)
	next.ModInTids = append([]string(nil), mod.ModInTids...)
	next.MetaTids = append([]string(nil), mod.MetaTids...)
	next.ModOutPtpts = append([]string(nil), mod.ModOutPtpts...)
	next.LastUpdated = s.LastUpdated + 1
	next.deriveEffMat()

	if recompute {
		return next.Recompute(cfg)
	}
	next.markStale()
	return next
}

func (s *State) markStale() {
	s.StalePCA = true
	s.StaleClusters = true
	s.StaleRepness = true
}

func (s *State) deriveEffMat() {
	s.EffMat = moderation.Apply(s.RawMat, moderation.Sets{
		ModOutTids:  s.ModOutTids,
		ModInTids:   s.ModInTids,
		MetaTids:    s.MetaTids,
		ModOutPtpts: s.ModOutPtpts,
	})
}

// Recompute runs PCA, projection, warm-started clustering, representativeness
// and participant stats in order. A failing stage retains the prior
// state's value for that field and is flagged stale rather than raising;
// only unknown-row/column lookups (engineerr.ErrUnknownName) ever escape
// a public operation, and none of these stages perform lookups on
// caller-supplied names.
func (s *State) Recompute(cfg engineconfig.Config) *State {
	next := s.clone()

	if ok := next.computePCA(cfg); ok {
		next.StalePCA = false
	} else {
		next.PCA = s.PCA
		next.StalePCA = true
	}

	next.Proj = projectAll(next.EffMat, next.PCA)

	if ok := next.computeClusters(cfg); ok {
		next.StaleClusters = false
	} else {
		next.GroupClusters = s.GroupClusters
		next.StaleClusters = true
	}

	if ok := next.computeRepness(cfg); ok {
		next.StaleRepness = false
	} else {
		next.Repness = s.Repness
		next.StaleRepness = true
	}

	next.PtptStats = repness.ParticipantStats(next.EffMat, next.GroupClusters)
	next.VoteStats = repness.VoteCounters(next.EffMat)

	return next
}

func (s *State) computePCA(cfg engineconfig.Config) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("pca computation failed, retaining prior result")
			ok = false
		}
	}()
	s.PCA = pca.Fit(s.EffMat, cfg.PCAComponents, cfg, s.PCA.Components)
	return true
}

func (s *State) computeClusters(cfg engineconfig.Config) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("cluster computation failed, retaining prior result")
			ok = false
		}
	}()
	names := s.EffMat.RowNames()
	if len(names) == 0 {
		s.GroupClusters = nil
		return true
	}
	points := make([][]float64, len(names))
	for i, n := range names {
		p := s.Proj[n]
		points[i] = []float64{p.X, p.Y}
	}
	k := cluster.DetermineK(len(names))
	s.GroupClusters = cluster.Fit(names, points, k, cfg, s.GroupClusters, nil)
	return true
}

func (s *State) computeRepness(cfg engineconfig.Config) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("representativeness computation failed, retaining prior result")
			ok = false
		}
	}()
	if len(s.GroupClusters) == 0 {
		s.Repness = repness.Result{GroupRepness: map[int][]repness.CommentStat{}}
		return true
	}
	s.Repness = repness.Compute(s.EffMat, s.GroupClusters, cfg)
	return true
}

func projectAll(eff *matrix.Matrix, res pca.Result) map[string]Point {
	names := eff.RowNames()
	out := make(map[string]Point, len(names))
	for _, name := range names {
		row, err := eff.GetRow(name)
		if err != nil {
			continue
		}
		p1, p2 := pca.Project(row, res)
		out[name] = Point{X: p1, Y: p2}
	}
	return out
}

// Silhouette exposes the current clustering's silhouette coefficient.
func (s *State) Silhouette() float64 {
	names := s.EffMat.RowNames()
	points := make([][]float64, len(names))
	for i, n := range names {
		p := s.Proj[n]
		points[i] = []float64{p.X, p.Y}
	}
	return cluster.Silhouette(names, points, s.GroupClusters)
}
