// Package moderation derives the effective vote matrix from a raw matrix
// and a set of moderation decisions, without ever mutating the raw
// matrix it reads from.
package moderation

import "github.com/deliberata/opine/matrix"

// Sets bundles the four moderation string sets a conversation carries.
// ModInTids is accepted (and round-trips through a conversation's
// to_dict/from_dict) but has no effect at this layer: it is a hint
// consumed by callers surfacing comments, not a filtering signal. A tid
// present in both ModOutTids and ModInTids is moderated out: out wins.
type Sets struct {
	ModOutTids  []string
	ModInTids   []string
	MetaTids    []string
	ModOutPtpts []string
}

// Apply derives the effective matrix from raw by, in order: dropping
// rows named in ModOutPtpts, dropping columns named in ModOutTids, then
// forcing every cell of columns named in MetaTids to 0. It never
// mutates raw, and is re-run from raw on every moderation update.
func Apply(raw *matrix.Matrix, mod Sets) *matrix.Matrix {
	eff := raw.InvRowSubset(mod.ModOutPtpts)
	eff = eff.InvColSubset(mod.ModOutTids)
	eff = eff.ZeroColumns(mod.MetaTids)
	return eff
}
