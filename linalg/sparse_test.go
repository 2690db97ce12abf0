package linalg

import (
	"testing"

	"go.viam.com/test"
)

func TestCSRMulVec(t *testing.T) {
	// [[1,0,2],[0,3,0]]
	m := NewCSRFromTriplets(2, 3,
		[]int{0, 0, 1},
		[]int{0, 2, 1},
		[]float64{1, 2, 3})
	y := m.MulVec([]float64{1, 1, 1})
	test.That(t, y[0], test.ShouldAlmostEqual, 3, 1e-12)
	test.That(t, y[1], test.ShouldAlmostEqual, 3, 1e-12)
}

func TestCSRFromTripletsCoalescesDuplicates(t *testing.T) {
	m := NewCSRFromTriplets(1, 1, []int{0, 0}, []int{0, 0}, []float64{2, 3})
	test.That(t, m.Values[0], test.ShouldAlmostEqual, 5, 1e-12)
}

func TestCSRTranspose(t *testing.T) {
	m := NewCSRFromTriplets(2, 3,
		[]int{0, 0, 1},
		[]int{0, 2, 1},
		[]float64{1, 2, 3})
	mt := m.Transpose()
	test.That(t, mt.Rows, test.ShouldEqual, 3)
	test.That(t, mt.Cols, test.ShouldEqual, 2)

	x := []float64{1, 1}
	y := mt.MulVec(x)
	test.That(t, y[0], test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, y[1], test.ShouldAlmostEqual, 3, 1e-12)
	test.That(t, y[2], test.ShouldAlmostEqual, 2, 1e-12)
}

func TestComputeJtJSymmetric(t *testing.T) {
	j := NewCSRFromTriplets(2, 2,
		[]int{0, 0, 1, 1},
		[]int{0, 1, 0, 1},
		[]float64{1, 2, 3, 4})
	jtj := ComputeJtJ(j)

	dense := make(map[[2]int]float64)
	for r := 0; r < jtj.Rows; r++ {
		for i := jtj.RowPtr[r]; i < jtj.RowPtr[r+1]; i++ {
			dense[[2]int{r, jtj.ColIdx[i]}] = jtj.Values[i]
		}
	}
	test.That(t, dense[[2]int{0, 1}], test.ShouldAlmostEqual, dense[[2]int{1, 0}], 1e-9)
}
