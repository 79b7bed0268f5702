package matrix

import "gonum.org/v1/gonum/mat"

// dokKey is the row/column coordinate used by dok's element map, adapted
// from the teacher's DOK key{i, j} — unchanged, since the name-to-index
// resolution happens one layer up in Matrix.
type dokKey struct {
	i, j int
}

// dok is a Dictionary-Of-Keys sparse store: good for incremental
// construction (repeated Set of scattered cells), poor for arithmetic.
// Matrix uses it as the mutable backing store that BatchUpdate writes
// into; absence of a key is the store's native zero, which Matrix relies
// on to represent a missing vote (see encode/decode in namedmatrix.go).
type dok struct {
	r, c     int
	elements map[dokKey]float64
}

func newDOK(r, c int) *dok {
	if r < 0 || c < 0 {
		panic("matrix: negative dimension")
	}
	return &dok{r: r, c: c, elements: make(map[dokKey]float64)}
}

// clone returns a deep copy so callers can hand out a dok without the
// original remaining mutable through the copy.
func (d *dok) clone() *dok {
	cp := &dok{r: d.r, c: d.c, elements: make(map[dokKey]float64, len(d.elements))}
	for k, v := range d.elements {
		cp.elements[k] = v
	}
	return cp
}

func (d *dok) Dims() (int, int) { return d.r, d.c }

func (d *dok) At(i, j int) float64 {
	if i < 0 || i >= d.r || j < 0 || j >= d.c {
		panic(mat.ErrRowAccess)
	}
	return d.elements[dokKey{i, j}]
}

func (d *dok) T() mat.Matrix { return mat.Transpose{Matrix: d} }

func (d *dok) Set(i, j int, v float64) {
	if i < 0 || i >= d.r || j < 0 || j >= d.c {
		panic(mat.ErrRowAccess)
	}
	if v == 0 {
		delete(d.elements, dokKey{i, j})
		return
	}
	d.elements[dokKey{i, j}] = v
}

// Delete removes any stored value at (i, j), restoring the implicit zero.
func (d *dok) Delete(i, j int) {
	delete(d.elements, dokKey{i, j})
}

// Has reports whether (i, j) has an explicitly stored value.
func (d *dok) Has(i, j int) bool {
	_, ok := d.elements[dokKey{i, j}]
	return ok
}

func (d *dok) NNZ() int { return len(d.elements) }

func (d *dok) ToDense() *mat.Dense {
	dense := mat.NewDense(d.r, d.c, nil)
	for k, v := range d.elements {
		dense.Set(k.i, k.j, v)
	}
	return dense
}

func (d *dok) ToDOK() *dok { return d }

func (d *dok) ToCOO() *coo {
	nnz := d.NNZ()
	rows := make([]int, 0, nnz)
	cols := make([]int, 0, nnz)
	data := make([]float64, 0, nnz)
	for k, v := range d.elements {
		rows = append(rows, k.i)
		cols = append(cols, k.j)
		data = append(data, v)
	}
	sortTriplets(rows, cols, data)
	return newCOO(d.r, d.c, rows, cols, data)
}

// reindexRows returns a new dok with rows renumbered by oldToNew (entries
// whose old row index maps to -1 are dropped), keeping r == len(oldToNew
// entries that survive). Used by RowSubset/InvRowSubset.
func (d *dok) reindexRows(oldToNew []int, newR int) *dok {
	out := newDOK(newR, d.c)
	for k, v := range d.elements {
		ni := oldToNew[k.i]
		if ni < 0 {
			continue
		}
		out.elements[dokKey{ni, k.j}] = v
	}
	return out
}

// reindexCols mirrors reindexRows for columns.
func (d *dok) reindexCols(oldToNew []int, newC int) *dok {
	out := newDOK(d.r, newC)
	for k, v := range d.elements {
		nj := oldToNew[k.j]
		if nj < 0 {
			continue
		}
		out.elements[dokKey{k.i, nj}] = v
	}
	return out
}

// growTo returns a copy resized to r*c (r >= d.r, c >= d.c), preserving all
// existing entries at their original coordinates. New rows/columns start
// with no stored entries, i.e. implicit zero/missing everywhere.
func (d *dok) growTo(r, c int) *dok {
	if r == d.r && c == d.c {
		return d.clone()
	}
	out := newDOK(r, c)
	for k, v := range d.elements {
		out.elements[k] = v
	}
	return out
}
