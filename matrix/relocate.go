package matrix

import "github.com/grailbio/base/log"

// RelocateBlock moves the bins of [start, end) so that they keep their order
// but sit at another place in the bin order.
//
// If destination < start, the block is reinserted at destination and the bins
// of [destination, start) shift right by end-start. If destination > end, the
// block is reinserted ending at destination and the bins of [end, destination)
// shift left by end-start.
//
// start, end and destination must be chromosome offsets, and destination must
// lie outside [start, end]. Otherwise an errors.Invalid error is returned and
// m is not modified. The bin table and the chromosome table move along with the
// pixels; bin chromosome ids are renumbered to the new chromosome order.
//
// Moving [start, end) left to d is undone by moving [d, d+end-start) right to
// end; moving it right to d is undone by moving [d-(end-start), d) left to
// start.
func RelocateBlock(m *Matrix, start, end, destination int) error {
	if err := m.checkBlock(start, end); err != nil {
		return err
	}
	if destination < 0 || destination > m.NumBins() {
		return invalidf("destination %d out of range [0,%d]", destination, m.NumBins())
	}
	if destination >= start && destination <= end {
		return invalidf("destination %d inside block [%d,%d]", destination, start, end)
	}
	if m.chromAt(destination) < 0 {
		return invalidf("destination %d is not a chromosome boundary", destination)
	}
	if destination < start {
		return swapBlocks(m, destination, start, end)
	}
	return swapBlocks(m, start, end, destination)
}

// MoveLeft is RelocateBlock restricted to destination < start.
func MoveLeft(m *Matrix, start, end, destination int) error {
	if destination >= start {
		return invalidf("move left: destination %d is not before block [%d,%d)", destination, start, end)
	}
	return RelocateBlock(m, start, end, destination)
}

// MoveRight is RelocateBlock restricted to destination > end.
func MoveRight(m *Matrix, start, end, destination int) error {
	if destination <= end {
		return invalidf("move right: destination %d is not after block [%d,%d)", destination, start, end)
	}
	return RelocateBlock(m, start, end, destination)
}

// MoveChrom moves the named chromosome so that it is placed immediately before
// chromosome "before". An empty "before" moves it to the end.
func MoveChrom(m *Matrix, name, before string) error {
	idx, err := m.ChromIndex(name)
	if err != nil {
		return err
	}
	start, end, err := m.ChromBlock(idx)
	if err != nil {
		return err
	}
	destination := m.NumBins()
	if before != "" {
		beforeIdx, err := m.ChromIndex(before)
		if err != nil {
			return err
		}
		if destination, _, err = m.ChromBlock(beforeIdx); err != nil {
			return err
		}
	}
	return RelocateBlock(m, start, end, destination)
}

// blockSwap is the bin permutation that exchanges the adjacent blocks
// A=[a,b) and B=[b,c), so that B comes first. Moving a block left is a swap
// with the block it jumps over as A; moving it right, as B.
type blockSwap struct {
	a, b, c int64
}

func (t blockSwap) apply(i int64) int64 {
	switch {
	case i < t.a || i >= t.c:
		return i
	case i < t.b:
		return i + (t.c - t.b)
	default:
		return i - (t.b - t.a)
	}
}

func swapBlocks(m *Matrix, a, b, c int) error {
	if err := m.Validate(); err != nil {
		return err
	}
	t := blockSwap{int64(a), int64(b), int64(c)}
	entries := swapEntries(m, t)
	if err := m.SetEntries(entries); err != nil {
		return err
	}

	// Chromosome indexes of the block boundaries. Empty chromosomes sitting
	// on a boundary travel with the block that follows them.
	ct := blockSwap{int64(m.chromAt(a)), int64(m.chromAt(b)), int64(m.chromAt(c))}
	bins := m.a
	rotateInt32s(bins.BinChrom[a:c], b-a)
	rotateInt32s(bins.BinStart[a:c], b-a)
	rotateInt32s(bins.BinEnd[a:c], b-a)
	rotateFloat64s(bins.BinWeight[a:c], b-a)
	for i := a; i < c; i++ {
		bins.BinChrom[i] = int32(ct.apply(int64(bins.BinChrom[i])))
	}
	rotateStrings(bins.ChromName[ct.a:ct.c], int(ct.b-ct.a))
	rotateInt32s(bins.ChromLength[ct.a:ct.c], int(ct.b-ct.a))
	log.Debug.Printf("swapped bin blocks [%d,%d) and [%d,%d), chromosomes [%d,%d) and [%d,%d)",
		a, b, b, c, ct.a, ct.b, ct.b, ct.c)
	return m.RecalculateIndex()
}

// swapEntries builds the pixel list of m with bin permutation t applied.
//
// Every coordinate falls in one of four regions: before A, A, B, or at or
// after c. Rows before A keep their index, and their runs of A and B columns
// trade places. B rows move up to [a, a+|B|), A rows move down to [a+|B|, c),
// and a pixel (r, col) with r in A and col in B becomes (t(col), t(r)) in a
// former B row. Rows at or after c are copied.
func swapEntries(m *Matrix, t blockSwap) []Pixel {
	a, b, c := int(t.a), int(t.b), int(t.c)
	out := make([]Pixel, 0, m.NNZ())
	cols, counts := m.a.Bin2ID, m.a.Count
	remap := func(row int64, lo, hi int) {
		for i := lo; i < hi; i++ {
			out = append(out, Pixel{Row: row, Col: t.apply(cols[i]), Count: counts[i]})
		}
	}

	for r := 0; r < a; r++ {
		lo, hi := m.rowRange(r)
		ia := m.searchCol(lo, hi, t.a)
		ib := m.searchCol(ia, hi, t.b)
		ic := m.searchCol(ib, hi, t.c)
		remap(int64(r), lo, ia)
		remap(int64(r), ib, ic)
		remap(int64(r), ia, ib)
		remap(int64(r), ic, hi)
	}

	// cross[k] collects the A-row pixels whose column is b+k. Visiting A rows
	// top-down makes the new column t(r) ascend in each bucket.
	cross := make([][]Pixel, c-b)
	for r := a; r < b; r++ {
		lo, hi := m.rowRange(r)
		ib := m.searchCol(lo, hi, t.b)
		ic := m.searchCol(ib, hi, t.c)
		for i := ib; i < ic; i++ {
			k := cols[i] - t.b
			cross[k] = append(cross[k], Pixel{Row: t.apply(cols[i]), Col: t.apply(int64(r)), Count: counts[i]})
		}
	}
	for r := b; r < c; r++ {
		lo, hi := m.rowRange(r)
		ic := m.searchCol(lo, hi, t.c)
		row := t.apply(int64(r))
		remap(row, lo, ic)
		out = append(out, cross[r-b]...)
		remap(row, ic, hi)
	}
	for r := a; r < b; r++ {
		lo, hi := m.rowRange(r)
		ib := m.searchCol(lo, hi, t.b)
		ic := m.searchCol(ib, hi, t.c)
		row := t.apply(int64(r))
		remap(row, lo, ib)
		remap(row, ic, hi)
	}

	for i := int(m.a.Bin1Offset[c]); i < m.NNZ(); i++ {
		out = append(out, m.pixel(i))
	}
	return out
}

// rotate* move s[k:] in front of s[:k], by three reversals.

func rotateInt32s(s []int32, k int) {
	rev := func(s []int32) {
		for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
	}
	rev(s[:k])
	rev(s[k:])
	rev(s)
}

func rotateFloat64s(s []float64, k int) {
	reverseFloat64s(s[:k])
	reverseFloat64s(s[k:])
	reverseFloat64s(s)
}

func rotateStrings(s []string, k int) {
	rev := func(s []string) {
		for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
	}
	rev(s[:k])
	rev(s[k:])
	rev(s)
}
