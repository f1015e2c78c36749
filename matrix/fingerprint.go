package matrix

import (
	"encoding/binary"
	"hash"
	"math"

	"blainsmith.com/go/seahash"
)

// Fingerprint computes a seahash digest of the chromosome table, the bin
// table and the pixels of m. The indexes are derived data and are left out.
// Matrices for which Equal reports true have the same fingerprint.
func Fingerprint(m *Matrix) uint64 {
	h := seahash.New()
	var buf [8]byte
	putUint64 := func(h hash.Hash64, v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:]) // nolint: errcheck
	}
	a := m.a
	putUint64(h, uint64(len(a.ChromName)))
	for i, name := range a.ChromName {
		putUint64(h, uint64(len(name)))
		h.Write([]byte(name)) // nolint: errcheck
		putUint64(h, uint64(a.ChromLength[i]))
	}
	putUint64(h, uint64(len(a.BinChrom)))
	for i := range a.BinChrom {
		putUint64(h, uint64(a.BinChrom[i]))
		putUint64(h, uint64(a.BinStart[i]))
		putUint64(h, uint64(a.BinEnd[i]))
		putUint64(h, math.Float64bits(a.BinWeight[i]))
	}
	putUint64(h, uint64(len(a.Bin1ID)))
	for i := range a.Bin1ID {
		putUint64(h, uint64(a.Bin1ID[i]))
		putUint64(h, uint64(a.Bin2ID[i]))
		putUint64(h, uint64(a.Count[i]))
	}
	return h.Sum64()
}

// CountSum returns the sum of all stored counts.
func CountSum(m *Matrix) int64 {
	var sum int64
	for _, c := range m.a.Count {
		sum += int64(c)
	}
	return sum
}
