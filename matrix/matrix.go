package matrix

import (
	"math"
	"sort"
)

// Arrays holds the columnar arrays of one resolution group. Each field
// corresponds to one dataset of the container (see encoding/cool.Schema).
type Arrays struct {
	// bins group, length nBins.
	BinChrom  []int32
	BinStart  []int32
	BinEnd    []int32
	BinWeight []float64

	// chroms group, length nChrom.
	ChromName   []string
	ChromLength []int32

	// indexes group. Bin1Offset has length nBins+1, ChromOffset nChrom+1.
	Bin1Offset  []int64
	ChromOffset []int64

	// pixels group, length nnz.
	Bin1ID []int64
	Bin2ID []int64
	Count  []int32
}

// Bin is one fixed-width genomic interval. Its position in the bin table is
// its row and column index in the matrix.
type Bin struct {
	Chrom      int
	Start, End int
	Weight     float64
}

// Chrom is one entry of the chromosome table.
type Chrom struct {
	Name   string
	Length int
}

// Pixel is one stored nonzero entry. Row <= Col always holds.
type Pixel struct {
	Row, Col int64
	Count    int32
}

// Less compares pixels in (row, col) order.
func (p Pixel) Less(q Pixel) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// Matrix is an in-memory contact matrix. It is not safe for concurrent use;
// a session loads one Matrix, applies one operation and stores it back.
type Matrix struct {
	a Arrays
}

// New creates a Matrix that takes ownership of the slices in a. It fails with
// an errors.Precondition error if the array lengths disagree, e.g.
// len(a.Bin1Offset) != len(a.BinChrom)+1. Ordering invariants are not
// checked here; use Validate.
func New(a Arrays) (*Matrix, error) {
	if err := checkShape(a); err != nil {
		return nil, err
	}
	return &Matrix{a: a}, nil
}

func checkShape(a Arrays) error {
	nBins := len(a.BinChrom)
	if len(a.BinStart) != nBins || len(a.BinEnd) != nBins || len(a.BinWeight) != nBins {
		return mismatchf("bins: chrom=%d start=%d end=%d weight=%d entries",
			nBins, len(a.BinStart), len(a.BinEnd), len(a.BinWeight))
	}
	nChrom := len(a.ChromName)
	if len(a.ChromLength) != nChrom {
		return mismatchf("chroms: name=%d length=%d entries", nChrom, len(a.ChromLength))
	}
	nnz := len(a.Bin1ID)
	if len(a.Bin2ID) != nnz || len(a.Count) != nnz {
		return mismatchf("pixels: bin1_id=%d bin2_id=%d count=%d entries",
			nnz, len(a.Bin2ID), len(a.Count))
	}
	if len(a.Bin1Offset) != nBins+1 {
		return mismatchf("indexes: bin1_offset has %d entries, want nBins+1=%d", len(a.Bin1Offset), nBins+1)
	}
	if len(a.ChromOffset) != nChrom+1 {
		return mismatchf("indexes: chrom_offset has %d entries, want nChrom+1=%d", len(a.ChromOffset), nChrom+1)
	}
	if a.Bin1Offset[nBins] != int64(nnz) {
		return mismatchf("indexes: bin1_offset[%d]=%d, but there are %d pixels", nBins, a.Bin1Offset[nBins], nnz)
	}
	if a.ChromOffset[nChrom] != int64(nBins) {
		return mismatchf("indexes: chrom_offset[%d]=%d, but there are %d bins", nChrom, a.ChromOffset[nChrom], nBins)
	}
	return nil
}

// NumBins returns the number of bins, i.e., the matrix dimension.
func (m *Matrix) NumBins() int { return len(m.a.BinChrom) }

// NumChroms returns the number of chromosomes.
func (m *Matrix) NumChroms() int { return len(m.a.ChromName) }

// NNZ returns the number of stored pixels.
func (m *Matrix) NNZ() int { return len(m.a.Bin1ID) }

// Arrays returns the arrays backing m. The slices alias the matrix; callers
// must not modify them.
func (m *Matrix) Arrays() Arrays { return m.a }

// Bin returns bin id.
func (m *Matrix) Bin(id int) (Bin, error) {
	if id < 0 || id >= m.NumBins() {
		return Bin{}, invalidf("bin %d out of range [0,%d)", id, m.NumBins())
	}
	return Bin{
		Chrom:  int(m.a.BinChrom[id]),
		Start:  int(m.a.BinStart[id]),
		End:    int(m.a.BinEnd[id]),
		Weight: m.a.BinWeight[id],
	}, nil
}

// Chrom returns the idx'th chromosome.
func (m *Matrix) Chrom(idx int) (Chrom, error) {
	if idx < 0 || idx >= m.NumChroms() {
		return Chrom{}, invalidf("chromosome %d out of range [0,%d)", idx, m.NumChroms())
	}
	return Chrom{Name: m.a.ChromName[idx], Length: int(m.a.ChromLength[idx])}, nil
}

// ChromIndex finds the chromosome with the given name.
func (m *Matrix) ChromIndex(name string) (int, error) {
	for i, n := range m.a.ChromName {
		if n == name {
			return i, nil
		}
	}
	return -1, invalidf("chromosome %q not found", name)
}

// ChromBlock returns the bin range [start, end) of the idx'th chromosome.
func (m *Matrix) ChromBlock(idx int) (start, end int, err error) {
	if idx < 0 || idx >= m.NumChroms() {
		return 0, 0, invalidf("chromosome %d out of range [0,%d)", idx, m.NumChroms())
	}
	return int(m.a.ChromOffset[idx]), int(m.a.ChromOffset[idx+1]), nil
}

// chromAt returns the smallest chromosome index whose first bin is bin, or
// -1 if no chromosome starts there. chromAt(nBins) is the smallest index whose
// offset is nBins, which is nChrom unless trailing chromosomes are empty.
func (m *Matrix) chromAt(bin int) int {
	offsets := m.a.ChromOffset
	k := sort.Search(len(offsets), func(i int) bool { return offsets[i] >= int64(bin) })
	if k == len(offsets) || offsets[k] != int64(bin) {
		return -1
	}
	return k
}

// Weights returns a copy of the bin weights.
func (m *Matrix) Weights() []float64 {
	return append([]float64(nil), m.a.BinWeight...)
}

// RowOffset returns a copy of the bin1_offset index.
func (m *Matrix) RowOffset() []int64 {
	return append([]int64(nil), m.a.Bin1Offset...)
}

// ChromOffset returns a copy of the chrom_offset index.
func (m *Matrix) ChromOffset() []int64 {
	return append([]int64(nil), m.a.ChromOffset...)
}

func (m *Matrix) pixel(i int) Pixel {
	return Pixel{Row: m.a.Bin1ID[i], Col: m.a.Bin2ID[i], Count: m.a.Count[i]}
}

// rowRange returns the pixel index range [lo, hi) of row r.
func (m *Matrix) rowRange(r int) (lo, hi int) {
	return int(m.a.Bin1Offset[r]), int(m.a.Bin1Offset[r+1])
}

// searchCol returns the first index in [lo, hi) whose column is >= col, or hi.
// REQUIRES: [lo, hi) is a single row.
func (m *Matrix) searchCol(lo, hi int, col int64) int {
	cols := m.a.Bin2ID
	return lo + sort.Search(hi-lo, func(i int) bool { return cols[lo+i] >= col })
}

// EntriesForRow returns the pixels of row r in column order.
func (m *Matrix) EntriesForRow(r int) ([]Pixel, error) {
	if r < 0 || r >= m.NumBins() {
		return nil, invalidf("row %d out of range [0,%d)", r, m.NumBins())
	}
	lo, hi := m.rowRange(r)
	if lo < 0 || hi > m.NNZ() || lo > hi {
		return nil, integrityf("bin1_offset for row %d is [%d,%d), nnz=%d", r, lo, hi, m.NNZ())
	}
	entries := make([]Pixel, 0, hi-lo)
	for i := lo; i < hi; i++ {
		entries = append(entries, m.pixel(i))
	}
	return entries, nil
}

// Entries returns a copy of the whole pixel list.
func (m *Matrix) Entries() []Pixel {
	entries := make([]Pixel, m.NNZ())
	for i := range entries {
		entries[i] = m.pixel(i)
	}
	return entries
}

// SetEntries replaces the pixel list. The list must have exactly NNZ entries,
// each with Row <= Col inside the matrix, in strictly ascending (Row, Col)
// order; otherwise an errors.Integrity error is returned and m is unchanged.
// The caller must run RecalculateIndex afterwards.
func (m *Matrix) SetEntries(entries []Pixel) error {
	if len(entries) != m.NNZ() {
		return integrityf("replacement has %d pixels, want %d", len(entries), m.NNZ())
	}
	if err := checkPixels(entries, m.NumBins()); err != nil {
		return err
	}
	for i, p := range entries {
		m.a.Bin1ID[i] = p.Row
		m.a.Bin2ID[i] = p.Col
		m.a.Count[i] = p.Count
	}
	return nil
}

func checkPixels(entries []Pixel, nBins int) error {
	for i, p := range entries {
		if p.Row < 0 || p.Col >= int64(nBins) {
			return integrityf("pixel %d (%d,%d) outside [0,%d)", i, p.Row, p.Col, nBins)
		}
		if p.Row > p.Col {
			return integrityf("pixel %d (%d,%d) below the diagonal", i, p.Row, p.Col)
		}
		if i > 0 && !entries[i-1].Less(p) {
			return integrityf("pixel %d (%d,%d) does not follow (%d,%d)",
				i, p.Row, p.Col, entries[i-1].Row, entries[i-1].Col)
		}
	}
	return nil
}

// Validate checks every invariant of the stored form: triangular, strictly
// sorted pixels; bin1_offset consistent with the pixel rows; chrom_offset
// consistent with the bin chromosome ids. Violations are reported as
// errors.Integrity, length disagreements as errors.Precondition.
func (m *Matrix) Validate() error {
	if err := checkShape(m.a); err != nil {
		return err
	}
	nBins, nnz := m.NumBins(), m.NNZ()
	for i := 0; i < nnz; i++ {
		p := m.pixel(i)
		if p.Row < 0 || p.Col >= int64(nBins) {
			return integrityf("pixel %d (%d,%d) outside [0,%d)", i, p.Row, p.Col, nBins)
		}
		if p.Row > p.Col {
			return integrityf("pixel %d (%d,%d) below the diagonal", i, p.Row, p.Col)
		}
		if i > 0 && !m.pixel(i-1).Less(p) {
			return integrityf("pixel %d (%d,%d) out of order", i, p.Row, p.Col)
		}
	}
	offsets := m.a.Bin1Offset
	if offsets[0] != 0 {
		return integrityf("bin1_offset[0]=%d", offsets[0])
	}
	for r := 0; r < nBins; r++ {
		lo, hi := offsets[r], offsets[r+1]
		if lo > hi {
			return integrityf("bin1_offset decreases at row %d: %d > %d", r, lo, hi)
		}
		if hi > int64(nnz) {
			return integrityf("bin1_offset[%d]=%d exceeds nnz=%d", r+1, hi, nnz)
		}
		for i := lo; i < hi; i++ {
			if m.a.Bin1ID[i] != int64(r) {
				return integrityf("pixel %d has row %d, but bin1_offset assigns it to row %d", i, m.a.Bin1ID[i], r)
			}
		}
	}
	chromOffsets := m.a.ChromOffset
	if chromOffsets[0] != 0 {
		return integrityf("chrom_offset[0]=%d", chromOffsets[0])
	}
	for k := 0; k < m.NumChroms(); k++ {
		lo, hi := chromOffsets[k], chromOffsets[k+1]
		if lo > hi {
			return integrityf("chrom_offset decreases at chromosome %d: %d > %d", k, lo, hi)
		}
		if hi > int64(nBins) {
			return integrityf("chrom_offset[%d]=%d exceeds nBins=%d", k+1, hi, nBins)
		}
		for i := lo; i < hi; i++ {
			if m.a.BinChrom[i] != int32(k) {
				return integrityf("bin %d has chrom %d, but chrom_offset assigns it to %d", i, m.a.BinChrom[i], k)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	a := m.a
	return &Matrix{a: Arrays{
		BinChrom:    append([]int32(nil), a.BinChrom...),
		BinStart:    append([]int32(nil), a.BinStart...),
		BinEnd:      append([]int32(nil), a.BinEnd...),
		BinWeight:   append([]float64(nil), a.BinWeight...),
		ChromName:   append([]string(nil), a.ChromName...),
		ChromLength: append([]int32(nil), a.ChromLength...),
		Bin1Offset:  append([]int64(nil), a.Bin1Offset...),
		ChromOffset: append([]int64(nil), a.ChromOffset...),
		Bin1ID:      append([]int64(nil), a.Bin1ID...),
		Bin2ID:      append([]int64(nil), a.Bin2ID...),
		Count:       append([]int32(nil), a.Count...),
	}}
}

// Equal checks that m and o hold identical arrays. Weights are compared
// bitwise, so NaN weights (unbalanced bins) compare equal to themselves.
func (m *Matrix) Equal(o *Matrix) bool {
	a, b := m.a, o.a
	return equalInt32s(a.BinChrom, b.BinChrom) &&
		equalInt32s(a.BinStart, b.BinStart) &&
		equalInt32s(a.BinEnd, b.BinEnd) &&
		equalFloat64s(a.BinWeight, b.BinWeight) &&
		equalStrings(a.ChromName, b.ChromName) &&
		equalInt32s(a.ChromLength, b.ChromLength) &&
		equalInt64s(a.Bin1Offset, b.Bin1Offset) &&
		equalInt64s(a.ChromOffset, b.ChromOffset) &&
		equalInt64s(a.Bin1ID, b.Bin1ID) &&
		equalInt64s(a.Bin2ID, b.Bin2ID) &&
		equalInt32s(a.Count, b.Count)
}

func equalInt32s(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInt64s(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalFloat64s(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Build assembles a Matrix from its tables and computes both indexes. Bin
// chromosome ids index chroms. The pixels must be upper-triangular and
// strictly sorted; errors.Integrity is returned otherwise.
func Build(chroms []Chrom, bins []Bin, pixels []Pixel) (*Matrix, error) {
	var a Arrays
	for _, c := range chroms {
		a.ChromName = append(a.ChromName, c.Name)
		a.ChromLength = append(a.ChromLength, int32(c.Length))
	}
	for _, b := range bins {
		a.BinChrom = append(a.BinChrom, int32(b.Chrom))
		a.BinStart = append(a.BinStart, int32(b.Start))
		a.BinEnd = append(a.BinEnd, int32(b.End))
		a.BinWeight = append(a.BinWeight, b.Weight)
	}
	if err := checkPixels(pixels, len(bins)); err != nil {
		return nil, err
	}
	a.Bin1ID = make([]int64, len(pixels))
	a.Bin2ID = make([]int64, len(pixels))
	a.Count = make([]int32, len(pixels))
	for i, p := range pixels {
		a.Bin1ID[i], a.Bin2ID[i], a.Count[i] = p.Row, p.Col, p.Count
	}
	a.Bin1Offset = make([]int64, len(bins)+1)
	a.Bin1Offset[len(bins)] = int64(len(pixels))
	a.ChromOffset = make([]int64, len(chroms)+1)
	a.ChromOffset[len(chroms)] = int64(len(bins))
	m, err := New(a)
	if err != nil {
		return nil, err
	}
	if err := m.RecalculateIndex(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
