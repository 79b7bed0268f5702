package conversation

import (
	"github.com/deliberata/opine/cluster"
	"github.com/deliberata/opine/matrix"
	"github.com/deliberata/opine/pca"
	"github.com/deliberata/opine/repness"
)

// PCADTO is the serialisable form of a pca.Result.
type PCADTO struct {
	Center     []float64   `json:"center"`
	Components [][]float64 `json:"components"`
}

// CommentStatDTO is the serialisable form of a repness.CommentStat.
type CommentStatDTO struct {
	CommentID   string  `json:"comment_id"`
	GroupID     int     `json:"group_id"`
	Na          int     `json:"na"`
	Nd          int     `json:"nd"`
	Ns          int     `json:"ns"`
	Pa          float64 `json:"pa"`
	Pd          float64 `json:"pd"`
	Pat         float64 `json:"pat"`
	Pdt         float64 `json:"pdt"`
	Ra          float64 `json:"ra"`
	Rd          float64 `json:"rd"`
	Rat         float64 `json:"rat"`
	Rdt         float64 `json:"rdt"`
	AgreeMetric float64 `json:"agree_metric"`
	DisagreeMetric float64 `json:"disagree_metric"`
	Repful      string  `json:"repful"`
}

// ConsensusStatDTO is the serialisable form of a repness.ConsensusStat.
type ConsensusStatDTO struct {
	CommentID string  `json:"comment_id"`
	AvgAgree  float64 `json:"avg_agree"`
	Repful    string  `json:"repful"`
}

// RepnessDTO is the serialisable form of a repness.Result.
type RepnessDTO struct {
	GroupRepness      map[int][]CommentStatDTO `json:"group_repness"`
	ConsensusComments []ConsensusStatDTO       `json:"consensus_comments"`
}

// ParticipantStatDTO is the serialisable form of a repness.ParticipantStat.
type ParticipantStatDTO struct {
	NAgree            int             `json:"n_agree"`
	NDisagree         int             `json:"n_disagree"`
	NPass             int             `json:"n_pass"`
	NVotes            int             `json:"n_votes"`
	Group             int             `json:"group"`
	HasGroup          bool            `json:"has_group"`
	GroupCorrelations map[int]float64 `json:"group_correlations"`
}

// DTO is the full serialisable form of a conversation State.
type DTO struct {
	ConversationID string `json:"conversation_id"`
	LastUpdated    int64  `json:"last_updated"`

	RawMat matrix.DTO `json:"raw_mat"`

	ModOutTids  []string `json:"mod_out_tids"`
	ModInTids   []string `json:"mod_in_tids"`
	MetaTids    []string `json:"meta_tids"`
	ModOutPtpts []string `json:"mod_out_ptpts"`

	EffMat matrix.DTO `json:"eff_mat"`

	PCA           PCADTO                        `json:"pca"`
	Proj          map[string][2]float64         `json:"proj"`
	GroupClusters []cluster.ClusterDTO          `json:"group_clusters"`
	Repness       RepnessDTO                    `json:"repness"`
	PtptStats     map[string]ParticipantStatDTO `json:"ptpt_stats"`
	VoteStats     repness.VoteStats             `json:"vote_stats"`

	StalePCA      bool `json:"stale_pca"`
	StaleClusters bool `json:"stale_clusters"`
	StaleRepness  bool `json:"stale_repness"`
}

// ToDict exports the state's full structural snapshot.
func (s *State) ToDict() DTO {
	proj := make(map[string][2]float64, len(s.Proj))
	for name, p := range s.Proj {
		proj[name] = [2]float64{p.X, p.Y}
	}

	groupRepness := make(map[int][]CommentStatDTO, len(s.Repness.GroupRepness))
	for gid, stats := range s.Repness.GroupRepness {
		dtos := make([]CommentStatDTO, len(stats))
		for i, cs := range stats {
			dtos[i] = CommentStatDTO{
				CommentID: cs.CommentID, GroupID: cs.GroupID,
				Na: cs.Na, Nd: cs.Nd, Ns: cs.Ns,
				Pa: cs.Pa, Pd: cs.Pd, Pat: cs.Pat, Pdt: cs.Pdt,
				Ra: cs.Ra, Rd: cs.Rd, Rat: cs.Rat, Rdt: cs.Rdt,
				AgreeMetric: cs.AgreeMetric, DisagreeMetric: cs.DisagreeMetric,
				Repful: cs.Repful,
			}
		}
		groupRepness[gid] = dtos
	}
	consensus := make([]ConsensusStatDTO, len(s.Repness.ConsensusComments))
	for i, c := range s.Repness.ConsensusComments {
		consensus[i] = ConsensusStatDTO{CommentID: c.CommentID, AvgAgree: c.AvgAgree, Repful: c.Repful}
	}

	ptptStats := make(map[string]ParticipantStatDTO, len(s.PtptStats))
	for name, p := range s.PtptStats {
		ptptStats[name] = ParticipantStatDTO{
			NAgree: p.NAgree, NDisagree: p.NDisagree, NPass: p.NPass, NVotes: p.NVotes,
			Group: p.Group, HasGroup: p.HasGroup, GroupCorrelations: p.GroupCorrelations,
		}
	}

	return DTO{
		ConversationID: s.ConversationID,
		LastUpdated:    s.LastUpdated,
		RawMat:         s.RawMat.ToDict(),
		ModOutTids:     append([]string(nil), s.ModOutTids...),
		ModInTids:      append([]string(nil), s.ModInTids...),
		MetaTids:       append([]string(nil), s.MetaTids...),
		ModOutPtpts:    append([]string(nil), s.ModOutPtpts...),
		EffMat:         s.EffMat.ToDict(),
		PCA:            PCADTO{Center: append([]float64(nil), s.PCA.Center...), Components: s.PCA.Components},
		Proj:           proj,
		GroupClusters:  cluster.ToDict(s.GroupClusters),
		Repness:        RepnessDTO{GroupRepness: groupRepness, ConsensusComments: consensus},
		PtptStats:      ptptStats,
		VoteStats:      s.VoteStats,
		StalePCA:       s.StalePCA,
		StaleClusters:  s.StaleClusters,
		StaleRepness:   s.StaleRepness,
	}
}

func pcaResultFromDTO(d PCADTO) pca.Result {
	return pca.Result{Center: append([]float64(nil), d.Center...), Components: d.Components}
}

// FromDict rebuilds a State from its structural snapshot.
func FromDict(d DTO) *State {
	proj := make(map[string]Point, len(d.Proj))
	for name, p := range d.Proj {
		proj[name] = Point{X: p[0], Y: p[1]}
	}

	groupRepness := make(map[int][]repness.CommentStat, len(d.Repness.GroupRepness))
	for gid, dtos := range d.Repness.GroupRepness {
		stats := make([]repness.CommentStat, len(dtos))
		for i, cs := range dtos {
			stats[i] = repness.CommentStat{
				CommentID: cs.CommentID, GroupID: cs.GroupID,
				Na: cs.Na, Nd: cs.Nd, Ns: cs.Ns,
				Pa: cs.Pa, Pd: cs.Pd, Pat: cs.Pat, Pdt: cs.Pdt,
				Ra: cs.Ra, Rd: cs.Rd, Rat: cs.Rat, Rdt: cs.Rdt,
				AgreeMetric: cs.AgreeMetric, DisagreeMetric: cs.DisagreeMetric,
				Repful: cs.Repful,
			}
		}
		groupRepness[gid] = stats
	}
	consensus := make([]repness.ConsensusStat, len(d.Repness.ConsensusComments))
	for i, c := range d.Repness.ConsensusComments {
		consensus[i] = repness.ConsensusStat{CommentID: c.CommentID, AvgAgree: c.AvgAgree, Repful: c.Repful}
	}

	ptptStats := make(map[string]repness.ParticipantStat, len(d.PtptStats))
	for name, p := range d.PtptStats {
		ptptStats[name] = repness.ParticipantStat{
			NAgree: p.NAgree, NDisagree: p.NDisagree, NPass: p.NPass, NVotes: p.NVotes,
			Group: p.Group, HasGroup: p.HasGroup, GroupCorrelations: p.GroupCorrelations,
		}
	}

	return &State{
		ConversationID: d.ConversationID,
		LastUpdated:    d.LastUpdated,
		RawMat:         matrix.FromDict(d.RawMat),
		ModOutTids:     append([]string(nil), d.ModOutTids...),
		ModInTids:      append([]string(nil), d.ModInTids...),
		MetaTids:       append([]string(nil), d.MetaTids...),
		ModOutPtpts:    append([]string(nil), d.ModOutPtpts...),
		EffMat:         matrix.FromDict(d.EffMat),
		PCA:            pcaResultFromDTO(d.PCA),
		Proj:           proj,
		GroupClusters:  cluster.FromDict(d.GroupClusters),
		Repness:        repness.Result{GroupRepness: groupRepness, ConsensusComments: consensus},
		PtptStats:      ptptStats,
		VoteStats:      d.VoteStats,
		StalePCA:       d.StalePCA,
		StaleClusters:  d.StaleClusters,
		StaleRepness:   d.StaleRepness,
	}
}
