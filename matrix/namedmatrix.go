// Package matrix implements the Named Matrix: a sparse, append-only
// participant x comment store indexed by opaque string names rather than
// bare integer positions, adapted from the teacher's DOK/COO sparse
// formats.
package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/deliberata/opine/engineerr"
	"github.com/deliberata/opine/enginelog"
	"github.com/deliberata/opine/vote"
)

// presentShift moves the domain {-1, 0, +1} to {1, 2, 3} so that the
// store's native absent-key zero means "missing" and an explicit
// recorded pass (value 0) is distinguishable as present. This is the
// load-bearing trick that lets a sparse format with one zero value carry
// the engine's three-valued vote domain without a parallel presence
// bitmap. It assumes cell values stay within [-1, 1]; the Named Matrix
// here is specialised to votes, not an arbitrary-float store.
const presentShift = 2.0

func encode(v float64) float64 { return v + presentShift }
func decode(stored float64) float64 { return stored - presentShift }

// Missing is the sentinel value GetRow/GetCol use for absent cells.
var Missing = math.NaN()

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Update is a single cell write: row and column are resolved (and
// created, if new) by name; Value is interpreted according to the
// normalise flag passed to BatchUpdate.
type Update struct {
	Row, Col string
	Value    any
}

// Matrix is the Named Matrix: row_name/col_name -> float | missing, with
// append-only, externally observable insertion order for both axes.
// All operations are pure: each returns a new Matrix rather than
// mutating the receiver, per spec's functional-state contract.
type Matrix struct {
	rows  *nameIndex
	cols  *nameIndex
	store *dok
}

// New returns an empty Named Matrix.
func New() *Matrix {
	return &Matrix{rows: newNameIndex(), cols: newNameIndex(), store: newDOK(0, 0)}
}

// RowNames returns the row names in insertion order.
func (m *Matrix) RowNames() []string { return append([]string(nil), m.rows.Names()...) }

// ColNames returns the column names in insertion order.
func (m *Matrix) ColNames() []string { return append([]string(nil), m.cols.Names()...) }

// NumRows and NumCols report the matrix's current dimensions.
func (m *Matrix) NumRows() int { return m.rows.Len() }
func (m *Matrix) NumCols() int { return m.cols.Len() }

// HasRow and HasCol report row/column membership.
func (m *Matrix) HasRow(name string) bool { _, ok := m.rows.IndexOf(name); return ok }
func (m *Matrix) HasCol(name string) bool { _, ok := m.cols.IndexOf(name); return ok }

// Update writes a single cell with a literal value (no normalisation),
// adding the row/column if either is new. Equivalent to
// BatchUpdate([]Update{{row, col, v}}, false).
func (m *Matrix) Update(row, col string, v float64) *Matrix {
	return m.BatchUpdate([]Update{{Row: row, Col: col, Value: v}}, false)
}

// BatchUpdate applies every update in order, last duplicate (r,c) wins,
// adding new rows/columns (which start all-missing) as needed. When
// normalise is true, each Value is coerced through vote.Normalise before
// being written; a normalised-missing result deletes any existing cell
// rather than writing a value. When normalise is false, Value must
// already be a concrete numeric vote value (used by Update, never by
// external vote events); a non-numeric Value deletes the cell.
//
// Unaffected cells retain their prior values: the row/column indices are
// cloned once and the store is grown and copied once, then updates are
// applied, matching the "reindex once, then assign" guidance around
// batch_update's resource footprint.
func (m *Matrix) BatchUpdate(updates []Update, normalise bool) *Matrix {
	rows := m.rows.clone()
	cols := m.cols.clone()

	for _, u := range updates {
		rows.EnsureAppend(u.Row)
		cols.EnsureAppend(u.Col)
	}

	store := m.store.growTo(rows.Len(), cols.Len())

	logger := enginelog.Get("matrix")
	reportable := len(updates) >= reportThreshold
	if reportable {
		logger.Info().Int("updates", len(updates)).Msg("batch_update: starting")
	}

	for i, u := range updates {
		ri, _ := rows.IndexOf(u.Row)
		ci, _ := cols.IndexOf(u.Col)

		if normalise {
			nv := vote.Normalise(u.Value)
			if nv.Missing {
				store.Delete(ri, ci)
			} else {
				store.Set(ri, ci, encode(nv.Num))
			}
		} else {
			f, ok := asFloat64(u.Value)
			if !ok {
				store.Delete(ri, ci)
			} else {
				store.Set(ri, ci, encode(f))
			}
		}

		if reportable && (i+1)%progressInterval == 0 {
			logger.Info().Int("applied", i+1).Int("total", len(updates)).Msg("batch_update: progress")
		}
	}

	if reportable {
		logger.Info().Int("updates", len(updates)).Msg("batch_update: done")
	}

	return &Matrix{rows: rows, cols: cols, store: store}
}

// reportThreshold/progressInterval mirror engineconfig's defaults for the
// progress-logging ambient concern. BatchUpdate is low-level enough that
// it does not thread an engineconfig.Config through; conversation.State
// owns the config and only matrix's logging cadence is fixed here.
const (
	reportThreshold  = 8000
	progressInterval = 5000
)

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// RowSubset returns a new matrix restricted to the given row names,
// preserving their original relative order. Names not present in the
// matrix are silently skipped.
func (m *Matrix) RowSubset(names []string) *Matrix {
	keep := toSet(names)
	return m.filterRows(func(n string) bool { return keep[n] })
}

// InvRowSubset returns a new matrix excluding the given row names.
func (m *Matrix) InvRowSubset(names []string) *Matrix {
	drop := toSet(names)
	return m.filterRows(func(n string) bool { return !drop[n] })
}

// ColSubset returns a new matrix restricted to the given column names,
// preserving their original relative order.
func (m *Matrix) ColSubset(names []string) *Matrix {
	keep := toSet(names)
	return m.filterCols(func(n string) bool { return keep[n] })
}

// InvColSubset returns a new matrix excluding the given column names.
func (m *Matrix) InvColSubset(names []string) *Matrix {
	drop := toSet(names)
	return m.filterCols(func(n string) bool { return !drop[n] })
}

func (m *Matrix) filterRows(keep func(string) bool) *Matrix {
	oldToNew, rows := m.rows.subsetMap(keep)
	store := m.store.reindexRows(oldToNew, rows.Len())
	return &Matrix{rows: rows, cols: m.cols.clone(), store: store}
}

func (m *Matrix) filterCols(keep func(string) bool) *Matrix {
	oldToNew, cols := m.cols.subsetMap(keep)
	store := m.store.reindexCols(oldToNew, cols.Len())
	return &Matrix{rows: m.rows.clone(), cols: cols, store: store}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// GetRow returns the dense row vector for name, Missing where a cell was
// never written. Returns engineerr.ErrUnknownName if name is absent.
func (m *Matrix) GetRow(name string) ([]float64, error) {
	i, ok := m.rows.IndexOf(name)
	if !ok {
		return nil, engineerr.WrapUnknownName(name, "row")
	}
	out := make([]float64, m.cols.Len())
	for j := range out {
		if m.store.Has(i, j) {
			out[j] = decode(m.store.At(i, j))
		} else {
			out[j] = Missing
		}
	}
	return out, nil
}

// GetCol returns the dense column vector for name, Missing where a cell
// was never written. Returns engineerr.ErrUnknownName if name is absent.
func (m *Matrix) GetCol(name string) ([]float64, error) {
	j, ok := m.cols.IndexOf(name)
	if !ok {
		return nil, engineerr.WrapUnknownName(name, "col")
	}
	out := make([]float64, m.rows.Len())
	for i := range out {
		if m.store.Has(i, j) {
			out[i] = decode(m.store.At(i, j))
		} else {
			out[i] = Missing
		}
	}
	return out, nil
}

// ZeroColumns returns a new matrix with every cell in the named columns
// forced to the recorded-present value 0, for every row, regardless of
// whether that cell was previously missing. Columns not present are
// ignored.
func (m *Matrix) ZeroColumns(names []string) *Matrix {
	store := m.store.clone()
	for _, name := range names {
		j, ok := m.cols.IndexOf(name)
		if !ok {
			continue
		}
		for i := 0; i < m.rows.Len(); i++ {
			store.Set(i, j, encode(0))
		}
	}
	return &Matrix{rows: m.rows.clone(), cols: m.cols.clone(), store: store}
}

// Snapshot returns two dense rows-by-cols matrices: values (missing
// cells filled with 0, matching §4.4's "missing treated as 0 for the
// mean computation") and present (1 where a cell was explicitly written,
// 0 where it is missing), so a recorded-zero pass can be told apart
// from a never-voted cell.
func (m *Matrix) Snapshot() (values, present *mat.Dense) {
	r, c := m.rows.Len(), m.cols.Len()
	values = mat.NewDense(r, c, nil)
	present = mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.store.Has(i, j) {
				values.Set(i, j, decode(m.store.At(i, j)))
				present.Set(i, j, 1)
			}
		}
	}
	return values, present
}
