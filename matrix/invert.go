package matrix

import "github.com/grailbio/base/log"

// checkBlock verifies that [start, end) is a nonempty bin range whose ends are
// both chromosome boundaries.
func (m *Matrix) checkBlock(start, end int) error {
	if start < 0 || end > m.NumBins() || start >= end {
		return invalidf("block [%d,%d) is not a nonempty range in [0,%d)", start, end, m.NumBins())
	}
	if m.chromAt(start) < 0 || m.chromAt(end) < 0 {
		return invalidf("block [%d,%d) is not aligned to chromosome boundaries", start, end)
	}
	return nil
}

// InvertBlock reverses the bin order inside [start, end): bin i of the block
// becomes bin start+end-1-i. Pixels and bin weights are remapped; the genomic
// grid (bin chromosome, start and end) stays as it is, so inverting one
// chromosome flips its orientation.
//
// start and end must both be chromosome offsets. Otherwise an errors.Invalid
// error is returned and m is not modified. Inverting the same block twice
// restores the matrix.
func InvertBlock(m *Matrix, start, end int) error {
	if err := m.checkBlock(start, end); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	entries := invertEntries(m, start, end)
	if err := m.SetEntries(entries); err != nil {
		return err
	}
	reverseFloat64s(m.a.BinWeight[start:end])
	log.Debug.Printf("inverted block [%d,%d)", start, end)
	return m.RecalculateIndex()
}

// InvertChrom inverts the named chromosome.
func InvertChrom(m *Matrix, name string) error {
	idx, err := m.ChromIndex(name)
	if err != nil {
		return err
	}
	start, end, err := m.ChromBlock(idx)
	if err != nil {
		return err
	}
	return InvertBlock(m, start, end)
}

// invertEntries builds the pixel list of m with [s, e) reversed.
//
// Rows before the block keep their index; the run of block columns in each of
// them is reversed. Block row r becomes row s+e-1-r. A pixel (r, c) with both
// ends in the block becomes (flip(c), flip(r)), because c >= r implies
// flip(c) <= flip(r). Rows at or after e are copied.
func invertEntries(m *Matrix, s, e int) []Pixel {
	flip := func(i int64) int64 { return int64(s+e-1) - i }
	out := make([]Pixel, 0, m.NNZ())
	cols := m.a.Bin2ID

	for r := 0; r < s; r++ {
		lo, hi := m.rowRange(r)
		is := m.searchCol(lo, hi, int64(s))
		ie := m.searchCol(is, hi, int64(e))
		for i := lo; i < is; i++ {
			out = append(out, m.pixel(i))
		}
		for i := ie - 1; i >= is; i-- {
			out = append(out, Pixel{Row: int64(r), Col: flip(cols[i]), Count: m.a.Count[i]})
		}
		for i := ie; i < hi; i++ {
			out = append(out, m.pixel(i))
		}
	}

	// diag[k] collects the in-block pixels of new row s+k. Visiting old rows
	// from the bottom up makes flip(r), the new column, ascend in each bucket.
	diag := make([][]Pixel, e-s)
	for r := e - 1; r >= s; r-- {
		lo, hi := m.rowRange(r)
		for i := lo; i < hi && cols[i] < int64(e); i++ {
			row := flip(cols[i])
			diag[row-int64(s)] = append(diag[row-int64(s)], Pixel{Row: row, Col: flip(int64(r)), Count: m.a.Count[i]})
		}
	}
	for row := s; row < e; row++ {
		out = append(out, diag[row-s]...)
		lo, hi := m.rowRange(int(flip(int64(row))))
		for i := m.searchCol(lo, hi, int64(e)); i < hi; i++ {
			out = append(out, Pixel{Row: int64(row), Col: cols[i], Count: m.a.Count[i]})
		}
	}

	for i := int(m.a.Bin1Offset[e]); i < m.NNZ(); i++ {
		out = append(out, m.pixel(i))
	}
	return out
}

func reverseFloat64s(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
