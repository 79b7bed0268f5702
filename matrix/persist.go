package matrix

// DTO is the structural export/import shape for a Matrix: row/column
// names in insertion order, plus a triplet list of present cells. This
// is the wire shape a persistence collaborator round-trips through
// to_dict/from_dict (spec.md §6); it mirrors a vote-event list (already a
// triplet list) rather than the teacher's binary MarshalBinary codec,
// since the engine's persistence contract is a structural dict, not an
// opaque blob.
type DTO struct {
	RowNames []string  `json:"row_names"`
	ColNames []string  `json:"col_names"`
	Rows     []int     `json:"rows"`
	Cols     []int     `json:"cols"`
	Values   []float64 `json:"values"`
}

// ToDict exports the receiver as a DTO. Only present cells appear in the
// triplet list; missing cells are implicit by omission.
func (m *Matrix) ToDict() DTO {
	coo := m.store.ToCOO()
	rows, cols, data := coo.Triplets()
	for i, v := range data {
		data[i] = decode(v)
	}
	return DTO{
		RowNames: m.RowNames(),
		ColNames: m.ColNames(),
		Rows:     rows,
		Cols:     cols,
		Values:   data,
	}
}

// FromDict rebuilds a Matrix from a DTO produced by ToDict. Row/column
// order is taken from the DTO's name lists directly, so round-tripping
// preserves insertion order without replaying the original updates.
func FromDict(d DTO) *Matrix {
	rows := newNameIndex()
	cols := newNameIndex()
	for _, name := range d.RowNames {
		rows.EnsureAppend(name)
	}
	for _, name := range d.ColNames {
		cols.EnsureAppend(name)
	}

	store := newDOK(rows.Len(), cols.Len())
	for k := range d.Values {
		store.Set(d.Rows[k], d.Cols[k], encode(d.Values[k]))
	}

	return &Matrix{rows: rows, cols: cols, store: store}
}
