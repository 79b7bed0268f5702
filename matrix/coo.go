package matrix

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// sortTriplets orders (rows, cols, data) row-major in place so that
// every caller building a coo from a map gets a fixed summation order:
// float64 addition is not associative, and MulVecTo accumulates in
// triplet order, so an unsorted (map-derived) triplet list would make
// PCA's power iteration depend on Go's randomized map iteration order.
func sortTriplets(rows, cols []int, data []float64) {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if rows[ia] != rows[ib] {
			return rows[ia] < rows[ib]
		}
		return cols[ia] < cols[ib]
	})
	sortedRows := make([]int, len(rows))
	sortedCols := make([]int, len(cols))
	sortedData := make([]float64, len(data))
	for newPos, oldPos := range idx {
		sortedRows[newPos] = rows[oldPos]
		sortedCols[newPos] = cols[oldPos]
		sortedData[newPos] = data[oldPos]
	}
	copy(rows, sortedRows)
	copy(cols, sortedCols)
	copy(data, sortedData)
}

// coo is a COOrdinate (triplet) format sparse store, adapted from the
// teacher's COO. It is the wire shape for Matrix's triplet export/import
// and, via MulVecTo, the operational format PCA's power iteration
// multiplies against directly (see coordinate.go in the teacher: COO
// already supports Xv and X^T v without a CSR conversion step).
type coo struct {
	r, c int
	rows []int
	cols []int
	data []float64
}

func newCOO(r, c int, rows, cols []int, data []float64) *coo {
	if r < 0 || c < 0 {
		panic("matrix: negative dimension")
	}
	return &coo{r: r, c: c, rows: rows, cols: cols, data: data}
}

func (m *coo) Dims() (int, int) { return m.r, m.c }

func (m *coo) NNZ() int { return len(m.data) }

// DoNonZero calls fn for every stored triplet. Order is not guaranteed.
func (m *coo) DoNonZero(fn func(i, j int, v float64)) {
	for k := range m.data {
		fn(m.rows[k], m.cols[k], m.data[k])
	}
}

func (m *coo) At(i, j int) float64 {
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		panic(mat.ErrRowAccess)
	}
	var total float64
	for k := range m.data {
		if m.rows[k] == i && m.cols[k] == j {
			total += m.data[k]
		}
	}
	return total
}

func (m *coo) T() mat.Matrix {
	return newCOO(m.c, m.r, m.cols, m.rows, m.data)
}

func (m *coo) ToDense() *mat.Dense {
	dense := mat.NewDense(m.r, m.c, nil)
	for k := range m.data {
		dense.Set(m.rows[k], m.cols[k], dense.At(m.rows[k], m.cols[k])+m.data[k])
	}
	return dense
}

func (m *coo) ToDOK() *dok {
	out := newDOK(m.r, m.c)
	for k := range m.data {
		out.Set(m.rows[k], m.cols[k], out.At(m.rows[k], m.cols[k])+m.data[k])
	}
	return out
}

func (m *coo) ToCOO() *coo { return m }

// MulVecTo computes dst += A*x (trans=false) or dst += A^T*x (trans=true),
// where A is the receiver. Panics on shape mismatch. This is the one
// primitive power iteration needs and is why no CSR conversion step is
// required for PCA (see coordinate.go's MulVecTo in the teacher).
func (m *coo) MulVecTo(dst []float64, trans bool, x []float64) {
	if trans {
		if m.c != len(dst) || m.r != len(x) {
			panic(mat.ErrShape)
		}
		for k, v := range m.data {
			dst[m.cols[k]] += v * x[m.rows[k]]
		}
		return
	}
	if m.c != len(x) || m.r != len(dst) {
		panic(mat.ErrShape)
	}
	for k, v := range m.data {
		dst[m.rows[k]] += v * x[m.cols[k]]
	}
}

// Triplets returns copies of the receiver's row indices, column indices
// and values, for callers that need to export or iterate without a
// closure (e.g. persist.go's to-dict encoding).
func (m *coo) Triplets() (rows, cols []int, data []float64) {
	rows = append([]int(nil), m.rows...)
	cols = append([]int(nil), m.cols...)
	data = append([]float64(nil), m.data...)
	return rows, cols, data
}
