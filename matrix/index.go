package matrix

import "github.com/grailbio/base/log"

// RecalculateIndex rebuilds bin1_offset from the pixel rows and chrom_offset
// from the bin chromosome ids. Rows without pixels get the offset of the next
// nonempty row, and a chromosome starts at the first bin whose id is >= its
// index.
//
// It returns an errors.Integrity error, leaving both indexes as they were, if
// the pixel rows or the bin chromosome ids are not sorted. That means a
// reordering step upstream produced a broken list.
func (m *Matrix) RecalculateIndex() error {
	rowOffsets, err := rowOffsets(m.a.Bin1ID, m.NumBins())
	if err != nil {
		return err
	}
	chromOffsets, err := chromOffsets(m.a.BinChrom, m.NumChroms())
	if err != nil {
		return err
	}
	copy(m.a.Bin1Offset, rowOffsets)
	copy(m.a.ChromOffset, chromOffsets)
	log.Debug.Printf("recalculated index: %d bins, %d chroms, %d pixels", m.NumBins(), m.NumChroms(), m.NNZ())
	return nil
}

func rowOffsets(rows []int64, nBins int) ([]int64, error) {
	offsets := make([]int64, nBins+1)
	next := 0 // next row whose offset is unset
	for i, row := range rows {
		if row < 0 || row >= int64(nBins) {
			return nil, integrityf("pixel %d: row %d outside [0,%d)", i, row, nBins)
		}
		if i > 0 && row < rows[i-1] {
			return nil, integrityf("pixel %d: row %d follows row %d", i, row, rows[i-1])
		}
		for ; next <= int(row); next++ {
			offsets[next] = int64(i)
		}
	}
	for ; next <= nBins; next++ {
		offsets[next] = int64(len(rows))
	}
	return offsets, nil
}

func chromOffsets(chroms []int32, nChrom int) ([]int64, error) {
	offsets := make([]int64, nChrom+1)
	next := 0
	for i, c := range chroms {
		if c < 0 || int(c) >= nChrom {
			return nil, integrityf("bin %d: chrom %d outside [0,%d)", i, c, nChrom)
		}
		if i > 0 && c < chroms[i-1] {
			return nil, integrityf("bin %d: chrom %d follows chrom %d", i, c, chroms[i-1])
		}
		for ; next <= int(c); next++ {
			offsets[next] = int64(i)
		}
	}
	for ; next <= nChrom; next++ {
		offsets[next] = int64(len(chroms))
	}
	return offsets, nil
}
