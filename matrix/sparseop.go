package matrix

// SparseOp is a read-only sparse view of a Matrix's present, non-zero
// cells, exposing only the matrix-vector products PCA's power iteration
// needs. It is built once per Fit call from the matrix's underlying COO
// triplets: missing cells and recorded-zero passes both decode to 0 and
// are never materialised, so the operator's cost tracks the number of
// genuine +1/-1 votes rather than participants x comments.
type SparseOp struct {
	coo  *coo
	rows int
	cols int
}

// SparseOp builds the sparse operator for the receiver: every present
// cell whose decoded value is non-zero becomes one triplet, sorted
// row-major so MulVec/MulVecTrans always accumulate in the same order.
func (m *Matrix) SparseOp() *SparseOp {
	r, c := m.rows.Len(), m.cols.Len()
	rows := make([]int, 0, m.store.NNZ())
	cols := make([]int, 0, m.store.NNZ())
	data := make([]float64, 0, m.store.NNZ())
	for k, stored := range m.store.elements {
		v := decode(stored)
		if v == 0 {
			continue
		}
		rows = append(rows, k.i)
		cols = append(cols, k.j)
		data = append(data, v)
	}
	sortTriplets(rows, cols, data)
	return &SparseOp{coo: newCOO(r, c, rows, cols, data), rows: r, cols: c}
}

// Dims returns (rows, cols) of the underlying matrix.
func (s *SparseOp) Dims() (int, int) { return s.rows, s.cols }

// NNZ returns the number of stored non-zero entries.
func (s *SparseOp) NNZ() int { return s.coo.NNZ() }

// ColumnSums returns the sum of each column's stored values (0 for
// columns with no non-zero entries), used to compute the column mean
// with missing treated as 0.
func (s *SparseOp) ColumnSums() []float64 {
	sums := make([]float64, s.cols)
	s.coo.DoNonZero(func(_, j int, v float64) { sums[j] += v })
	return sums
}

// MulVec computes S*x.
func (s *SparseOp) MulVec(x []float64) []float64 {
	dst := make([]float64, s.rows)
	s.coo.MulVecTo(dst, false, x)
	return dst
}

// MulVecTrans computes S^T*x.
func (s *SparseOp) MulVecTrans(x []float64) []float64 {
	dst := make([]float64, s.cols)
	s.coo.MulVecTo(dst, true, x)
	return dst
}
