package matrix

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

const testBinSize = 10

// newTestMatrix builds a matrix with the given number of bins per chromosome
// and the given pixels, which must be sorted and upper-triangular. Weights
// are 0.5, 1.5, 2.5, ...
func newTestMatrix(t testing.TB, chromBins []int, pixels []Pixel) *Matrix {
	var a Arrays
	for c, n := range chromBins {
		a.ChromName = append(a.ChromName, fmt.Sprintf("chr%d", c+1))
		length := n*testBinSize - testBinSize/2
		if n == 0 {
			length = 0
		}
		a.ChromLength = append(a.ChromLength, int32(length))
		for i := 0; i < n; i++ {
			a.BinChrom = append(a.BinChrom, int32(c))
			a.BinStart = append(a.BinStart, int32(i*testBinSize))
			end := (i + 1) * testBinSize
			if i == n-1 {
				end -= testBinSize / 2
			}
			a.BinEnd = append(a.BinEnd, int32(end))
			a.BinWeight = append(a.BinWeight, float64(len(a.BinWeight))+0.5)
		}
	}
	for _, p := range pixels {
		a.Bin1ID = append(a.Bin1ID, p.Row)
		a.Bin2ID = append(a.Bin2ID, p.Col)
		a.Count = append(a.Count, p.Count)
	}
	a.Bin1Offset = make([]int64, len(a.BinChrom)+1)
	a.Bin1Offset[len(a.BinChrom)] = int64(len(pixels))
	a.ChromOffset = make([]int64, len(chromBins)+1)
	a.ChromOffset[len(chromBins)] = int64(len(a.BinChrom))
	m, err := New(a)
	require.NoError(t, err)
	require.NoError(t, m.RecalculateIndex())
	require.NoError(t, m.Validate())
	return m
}

// newRandomMatrix builds a matrix with random chromosome sizes and a random
// upper-triangular pixel set. Some weights are NaN, as in balanced coolers.
func newRandomMatrix(t testing.TB, r *rand.Rand) *Matrix {
	chromBins := make([]int, 2+r.Intn(5))
	for i := range chromBins {
		chromBins[i] = 1 + r.Intn(6)
	}
	return newRandomPixels(t, r, chromBins)
}

// newRandomPixels builds a matrix with the given chromosome sizes and a
// random pixel set, as newRandomMatrix does.
func newRandomPixels(t testing.TB, r *rand.Rand, chromBins []int) *Matrix {
	nBins := 0
	for _, n := range chromBins {
		nBins += n
	}
	density := 0.1 + 0.8*r.Float64()
	var pixels []Pixel
	for row := 0; row < nBins; row++ {
		for col := row; col < nBins; col++ {
			if r.Float64() < density {
				pixels = append(pixels, Pixel{Row: int64(row), Col: int64(col), Count: int32(1 + r.Intn(1000))})
			}
		}
	}
	m := newTestMatrix(t, chromBins, pixels)
	for i := range m.a.BinWeight {
		if r.Intn(8) == 0 {
			m.a.BinWeight[i] = math.NaN()
		}
	}
	return m
}

// permutePixels is the brute-force reference: it moves every pixel of m from
// (row, col) to (perm[row], perm[col]), mirrors it into the upper triangle,
// and sorts.
func permutePixels(m *Matrix, perm []int) []Pixel {
	pixels := make([]Pixel, 0, m.NNZ())
	for _, p := range m.Entries() {
		row, col := int64(perm[p.Row]), int64(perm[p.Col])
		if row > col {
			row, col = col, row
		}
		pixels = append(pixels, Pixel{Row: row, Col: col, Count: p.Count})
	}
	sort.Slice(pixels, func(i, j int) bool { return pixels[i].Less(pixels[j]) })
	return pixels
}

// orderToPerm converts a new bin order (order[new] = old) to a permutation
// (perm[old] = new).
func orderToPerm(order []int) []int {
	perm := make([]int, len(order))
	for newID, oldID := range order {
		perm[oldID] = newID
	}
	return perm
}

func binRange(start, end int) []int {
	var r []int
	for i := start; i < end; i++ {
		r = append(r, i)
	}
	return r
}

// relocationOrder lists the old bin ids in their order after moving
// [start, end) to destination.
func relocationOrder(nBins, start, end, destination int) []int {
	var order []int
	if destination < start {
		order = append(order, binRange(0, destination)...)
		order = append(order, binRange(start, end)...)
		order = append(order, binRange(destination, start)...)
		order = append(order, binRange(end, nBins)...)
	} else {
		order = append(order, binRange(0, start)...)
		order = append(order, binRange(end, destination)...)
		order = append(order, binRange(start, end)...)
		order = append(order, binRange(destination, nBins)...)
	}
	return order
}

// requireInvariants checks the stored-form invariants plus conservation of
// the pixel count and the count sum against the matrix before the operation.
func requireInvariants(t testing.TB, before, after *Matrix) {
	require.NoError(t, after.Validate())
	require.Equal(t, before.NNZ(), after.NNZ())
	require.Equal(t, before.NumBins(), after.NumBins())
	require.Equal(t, before.NumChroms(), after.NumChroms())
	require.Equal(t, CountSum(before), CountSum(after))
	rowOffset := after.RowOffset()
	require.Equal(t, int64(0), rowOffset[0])
	require.Equal(t, int64(after.NNZ()), rowOffset[after.NumBins()])
	chromOffset := after.ChromOffset()
	require.Equal(t, int64(0), chromOffset[0])
	require.Equal(t, int64(after.NumBins()), chromOffset[after.NumChroms()])
}

// chromBoundaries lists the distinct chromosome offsets of m.
func chromBoundaries(m *Matrix) []int {
	var b []int
	for _, off := range m.ChromOffset() {
		if len(b) == 0 || b[len(b)-1] != int(off) {
			b = append(b, int(off))
		}
	}
	return b
}
