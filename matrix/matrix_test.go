package matrix

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsShapeMismatch(t *testing.T) {
	valid := func() Arrays { return scenarioMatrix(t).Clone().Arrays() }
	for name, mutate := range map[string]func(a *Arrays){
		"short weight":       func(a *Arrays) { a.BinWeight = a.BinWeight[:5] },
		"long bin end":       func(a *Arrays) { a.BinEnd = append(a.BinEnd, 60) },
		"chrom length":       func(a *Arrays) { a.ChromLength = a.ChromLength[:1] },
		"bin2_id":            func(a *Arrays) { a.Bin2ID = a.Bin2ID[:3] },
		"count":              func(a *Arrays) { a.Count = append(a.Count, 1) },
		"bin1_offset length": func(a *Arrays) { a.Bin1Offset = a.Bin1Offset[:6] },
		"chrom_offset length": func(a *Arrays) {
			a.ChromOffset = append(a.ChromOffset, 6)
		},
		"bin1_offset end":  func(a *Arrays) { a.Bin1Offset[6] = 5 },
		"chrom_offset end": func(a *Arrays) { a.ChromOffset[2] = 5 },
	} {
		a := valid()
		mutate(&a)
		_, err := New(a)
		require.Error(t, err, name)
		assert.True(t, errors.Is(errors.Precondition, err), "%s: %v", name, err)
	}
	_, err := New(valid())
	require.NoError(t, err)
}

func TestAccessors(t *testing.T) {
	m := scenarioMatrix(t)
	expect.EQ(t, m.NumBins(), 6)
	expect.EQ(t, m.NumChroms(), 2)
	expect.EQ(t, m.NNZ(), 6)

	b, err := m.Bin(5)
	require.NoError(t, err)
	expect.EQ(t, b, Bin{Chrom: 1, Start: 20, End: 25, Weight: 5.5})
	_, err = m.Bin(6)
	assert.True(t, errors.Is(errors.Invalid, err))
	_, err = m.Bin(-1)
	assert.True(t, errors.Is(errors.Invalid, err))

	c, err := m.Chrom(1)
	require.NoError(t, err)
	expect.EQ(t, c, Chrom{Name: "chr2", Length: 25})
	_, err = m.Chrom(2)
	assert.True(t, errors.Is(errors.Invalid, err))

	idx, err := m.ChromIndex("chr2")
	require.NoError(t, err)
	expect.EQ(t, idx, 1)
	start, end, err := m.ChromBlock(idx)
	require.NoError(t, err)
	expect.EQ(t, []int{start, end}, []int{3, 6})

	row, err := m.EntriesForRow(0)
	require.NoError(t, err)
	expect.EQ(t, row, []Pixel{{0, 0, 5}, {0, 3, 2}})
	_, err = m.EntriesForRow(6)
	assert.True(t, errors.Is(errors.Invalid, err))

	expect.EQ(t, CountSum(m), int64(27))
}

func TestSetEntriesRejects(t *testing.T) {
	for name, entries := range map[string][]Pixel{
		"short":      {{0, 0, 1}},
		"lower":      {{0, 0, 1}, {0, 1, 1}, {2, 1, 1}, {2, 2, 1}, {3, 3, 1}, {4, 4, 1}},
		"unsorted":   {{0, 0, 1}, {1, 1, 1}, {0, 2, 1}, {2, 2, 1}, {3, 3, 1}, {4, 4, 1}},
		"duplicated": {{0, 0, 1}, {0, 0, 1}, {1, 1, 1}, {2, 2, 1}, {3, 3, 1}, {4, 4, 1}},
		"outside":    {{0, 0, 1}, {1, 1, 1}, {2, 2, 1}, {3, 3, 1}, {4, 4, 1}, {5, 6, 1}},
	} {
		m := scenarioMatrix(t)
		orig := m.Clone()
		err := m.SetEntries(entries)
		assert.True(t, errors.Is(errors.Integrity, err), "%s: %v", name, err)
		assert.True(t, m.Equal(orig), name)
	}
}

func TestValidate(t *testing.T) {
	m := scenarioMatrix(t)
	require.NoError(t, m.Validate())

	bad := m.Clone()
	bad.a.Bin1Offset[1] = 1
	assert.True(t, errors.Is(errors.Integrity, bad.Validate()))

	bad = m.Clone()
	bad.a.ChromOffset[1] = 2
	assert.True(t, errors.Is(errors.Integrity, bad.Validate()))

	bad = m.Clone()
	bad.a.BinChrom[0] = 1
	assert.True(t, errors.Is(errors.Integrity, bad.Validate()))

	bad = m.Clone()
	bad.a.Bin1ID[1], bad.a.Bin2ID[1] = 3, 0
	assert.True(t, errors.Is(errors.Integrity, bad.Validate()))
}

func TestValidateOffsetsPastEnd(t *testing.T) {
	twoBins := func() Arrays {
		return Arrays{
			BinChrom:    []int32{0, 0},
			BinStart:    []int32{0, 10},
			BinEnd:      []int32{10, 20},
			BinWeight:   []float64{1, 1},
			ChromName:   []string{"chr1"},
			ChromLength: []int32{20},
			Bin1Offset:  []int64{0, 2, 2},
			ChromOffset: []int64{0, 2},
			Bin1ID:      []int64{0, 0},
			Bin2ID:      []int64{0, 1},
			Count:       []int32{1, 1},
		}
	}
	m, err := New(twoBins())
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	// A row offset beyond nnz that falls back at the next row.
	a := twoBins()
	a.Bin1Offset = []int64{0, 5, 2}
	m, err = New(a)
	require.NoError(t, err)
	err = m.Validate()
	assert.True(t, errors.Is(errors.Integrity, err), "%v", err)
	err = InvertBlock(m, 0, 2)
	assert.True(t, errors.Is(errors.Integrity, err), "%v", err)

	// Same for a chromosome offset beyond nBins.
	a = twoBins()
	a.ChromName = []string{"chr1", "chr2"}
	a.ChromLength = []int32{20, 0}
	a.ChromOffset = []int64{0, 3, 2}
	m, err = New(a)
	require.NoError(t, err)
	err = m.Validate()
	assert.True(t, errors.Is(errors.Integrity, err), "%v", err)
}

func TestCloneAndFingerprint(t *testing.T) {
	m := scenarioMatrix(t)
	c := m.Clone()
	expect.True(t, m.Equal(c))
	expect.EQ(t, Fingerprint(m), Fingerprint(c))

	c.a.Count[0]++
	expect.False(t, m.Equal(c))
	expect.True(t, Fingerprint(m) != Fingerprint(c))

	c = m.Clone()
	c.a.ChromName[0] = "chrX"
	expect.True(t, Fingerprint(m) != Fingerprint(c))
}
