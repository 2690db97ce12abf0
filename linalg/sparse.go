package linalg

// CSR is a sparse matrix in compressed sparse row format: RowPtr has
// Rows+1 entries, ColIdx/Values are parallel slices of the nonzeros of
// each row, row by row.
type CSR struct {
	Rows, Cols int
	RowPtr     []int
	ColIdx     []int
	Values     []float64
}

// NewCSRFromTriplets builds a CSR matrix from (row, col, value) triplets,
// summing duplicates. Triplets need not be sorted.
func NewCSRFromTriplets(rows, cols int, rowIdx, colIdx []int, values []float64) *CSR {
	counts := make([]int, rows+1)
	for _, r := range rowIdx {
		counts[r+1]++
	}
	for i := 0; i < rows; i++ {
		counts[i+1] += counts[i]
	}

	colOut := make([]int, len(values))
	valOut := make([]float64, len(values))
	cursor := make([]int, rows)
	copy(cursor, counts[:rows])
	for i := range rowIdx {
		r := rowIdx[i]
		pos := cursor[r]
		colOut[pos] = colIdx[i]
		valOut[pos] = values[i]
		cursor[r]++
	}

	m := &CSR{Rows: rows, Cols: cols, RowPtr: counts, ColIdx: colOut, Values: valOut}
	return m.coalesced()
}

// coalesced returns a copy with duplicate (row, col) entries summed and
// columns sorted within each row.
func (m *CSR) coalesced() *CSR {
	newRowPtr := make([]int, m.Rows+1)
	var newCol []int
	var newVal []float64

	for r := 0; r < m.Rows; r++ {
		start, end := m.RowPtr[r], m.RowPtr[r+1]
		acc := map[int]float64{}
		order := []int{}
		for i := start; i < end; i++ {
			c := m.ColIdx[i]
			if _, seen := acc[c]; !seen {
				order = append(order, c)
			}
			acc[c] += m.Values[i]
		}
		for i := 1; i < len(order); i++ {
			for j := i; j > 0 && order[j-1] > order[j]; j-- {
				order[j-1], order[j] = order[j], order[j-1]
			}
		}
		for _, c := range order {
			newCol = append(newCol, c)
			newVal = append(newVal, acc[c])
		}
		newRowPtr[r+1] = len(newCol)
	}
	return &CSR{Rows: m.Rows, Cols: m.Cols, RowPtr: newRowPtr, ColIdx: newCol, Values: newVal}
}

// MulVec computes y = M * x.
func (m *CSR) MulVec(x []float64) []float64 {
	y := make([]float64, m.Rows)
	for r := 0; r < m.Rows; r++ {
		var sum float64
		for i := m.RowPtr[r]; i < m.RowPtr[r+1]; i++ {
			sum += m.Values[i] * x[m.ColIdx[i]]
		}
		y[r] = sum
	}
	return y
}

// Transpose returns Mt as a CSR matrix.
func (m *CSR) Transpose() *CSR {
	var rowIdx, colIdx []int
	var values []float64
	for r := 0; r < m.Rows; r++ {
		for i := m.RowPtr[r]; i < m.RowPtr[r+1]; i++ {
			rowIdx = append(rowIdx, m.ColIdx[i])
			colIdx = append(colIdx, r)
			values = append(values, m.Values[i])
		}
	}
	return NewCSRFromTriplets(m.Cols, m.Rows, rowIdx, colIdx, values)
}

// ComputeJtJ returns the symmetric sparse product Jt * J for a sparse
// Jacobian J, the quantity the analytical LM path needs when the problem
// is too large for the dense Cholesky path.
func ComputeJtJ(j *CSR) *CSR {
	jt := j.Transpose()
	return sparseMatMul(jt, j)
}

func sparseMatMul(a, b *CSR) *CSR {
	bDense := make(map[int]map[int]float64, b.Rows)
	for r := 0; r < b.Rows; r++ {
		row := make(map[int]float64, b.RowPtr[r+1]-b.RowPtr[r])
		for i := b.RowPtr[r]; i < b.RowPtr[r+1]; i++ {
			row[b.ColIdx[i]] = b.Values[i]
		}
		bDense[r] = row
	}

	var rowIdx, colIdx []int
	var values []float64
	for r := 0; r < a.Rows; r++ {
		acc := map[int]float64{}
		for i := a.RowPtr[r]; i < a.RowPtr[r+1]; i++ {
			k := a.ColIdx[i]
			aval := a.Values[i]
			for c, bval := range bDense[k] {
				acc[c] += aval * bval
			}
		}
		for c, v := range acc {
			rowIdx = append(rowIdx, r)
			colIdx = append(colIdx, c)
			values = append(values, v)
		}
	}
	return NewCSRFromTriplets(a.Rows, b.Cols, rowIdx, colIdx, values)
}
