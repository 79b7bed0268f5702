package matrix

import "gonum.org/v1/gonum/mat"

// sparser is the interface satisfied by the integer-indexed sparse formats
// this package adapts from the teacher's Sparser: any mat.Matrix that also
// reports its number of stored (non-zero) entries.
type sparser interface {
	mat.Matrix
	NNZ() int
}

// typeConverter mirrors the teacher's TypeConverter, trimmed to the two
// formats this engine actually needs: DOK for incremental construction,
// COO for triplet export and the matrix-vector products power iteration
// performs. CSR/CSC never gain a caller here (see DESIGN.md) so they are
// not part of the converter surface.
type typeConverter interface {
	ToDense() *mat.Dense
	ToDOK() *dok
	ToCOO() *coo
}

var (
	_ sparser       = (*dok)(nil)
	_ sparser       = (*coo)(nil)
	_ typeConverter = (*dok)(nil)
	_ typeConverter = (*coo)(nil)
)
