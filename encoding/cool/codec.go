package cool

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/contact/matrix"
)

// A dataset file is a single-record recordio file. The record is
//
//   magic   uint32  // datasetMagic
//   type    uint8   // ElemType
//   width   uint32  // bytes per element
//   length  uint64  // # of elements
//   data    [length*width]byte
//
// in little endian. Strings are NUL-padded to width.
const (
	datasetMagic      = uint32(0xc001da7a)
	datasetHeaderSize = 4 + 1 + 4 + 8
)

// shape is the declared type, width and length of a stored dataset.
type shape struct {
	typ    ElemType
	width  int
	length int
}

func (s shape) String() string {
	return fmt.Sprintf("%v[%d] width %d", s.typ, s.length, s.width)
}

// stringWidth returns the fixed width needed to store names, at least 1.
func stringWidth(names []string) int {
	width := 1
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}
	return width
}

// shapeOf computes the shape d would be stored with. For strings, width is
// the given width if positive, else the minimum that fits.
func shapeOf(d Dataset, a *matrix.Arrays, width int) shape {
	s := shape{typ: d.Type, length: d.Len(a)}
	switch d.Type {
	case ElemInt32:
		s.width = 4
	case ElemInt64, ElemFloat64:
		s.width = 8
	case ElemString:
		s.width = width
		if s.width <= 0 {
			s.width = stringWidth(*d.strings(a))
		}
	}
	return s
}

func encodeDataset(d Dataset, a *matrix.Arrays, s shape) ([]byte, error) {
	buf := make([]byte, datasetHeaderSize+s.length*s.width)
	binary.LittleEndian.PutUint32(buf[0:4], datasetMagic)
	buf[4] = byte(s.typ)
	binary.LittleEndian.PutUint32(buf[5:9], uint32(s.width))
	binary.LittleEndian.PutUint64(buf[9:17], uint64(s.length))
	data := buf[datasetHeaderSize:]
	switch d.Type {
	case ElemInt32:
		for i, v := range *d.int32s(a) {
			binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
		}
	case ElemInt64:
		for i, v := range *d.int64s(a) {
			binary.LittleEndian.PutUint64(data[i*8:], uint64(v))
		}
	case ElemFloat64:
		for i, v := range *d.float64s(a) {
			binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
		}
	case ElemString:
		for i, v := range *d.strings(a) {
			if len(v) > s.width {
				return nil, errors.E(errors.Precondition,
					fmt.Sprintf("%s: %q is longer than the dataset width %d", d.Path(), v, s.width))
			}
			copy(data[i*s.width:], v)
		}
	}
	return buf, nil
}

// decodeDataset parses data into the field of a that d points to.
func decodeDataset(d Dataset, data []byte, a *matrix.Arrays) (shape, error) {
	var s shape
	if len(data) < datasetHeaderSize {
		return s, errors.E(errors.Integrity, fmt.Sprintf("%s: %d byte record is too short", d.Path(), len(data)))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != datasetMagic {
		return s, errors.E(errors.Integrity, fmt.Sprintf("%s: wrong magic %x, expect %x", d.Path(), magic, datasetMagic))
	}
	s.typ = ElemType(data[4])
	width := binary.LittleEndian.Uint32(data[5:9])
	length := binary.LittleEndian.Uint64(data[9:17])
	s.width = int(width)
	if s.typ != d.Type {
		return s, errors.E(errors.Precondition, fmt.Sprintf("%s: stored as %v, expect %v", d.Path(), s.typ, d.Type))
	}
	if want := shapeOf(d, a, s.width).width; width == 0 || s.width != want {
		return s, errors.E(errors.Precondition, fmt.Sprintf("%s: element width %d, expect %d", d.Path(), s.width, want))
	}
	data = data[datasetHeaderSize:]
	if length > uint64(len(data))/uint64(width) || length*uint64(width) != uint64(len(data)) {
		return s, errors.E(errors.Precondition,
			fmt.Sprintf("%s: declares %d elements of %d bytes, but holds %d bytes", d.Path(), length, width, len(data)))
	}
	s.length = int(length)
	switch d.Type {
	case ElemInt32:
		v := make([]int32, s.length)
		for i := range v {
			v[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
		*d.int32s(a) = v
	case ElemInt64:
		v := make([]int64, s.length)
		for i := range v {
			v[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
		*d.int64s(a) = v
	case ElemFloat64:
		v := make([]float64, s.length)
		for i := range v {
			v[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		*d.float64s(a) = v
	case ElemString:
		v := make([]string, s.length)
		for i := range v {
			v[i] = strings.TrimRight(string(data[i*s.width:(i+1)*s.width]), "\x00")
		}
		*d.strings(a) = v
	}
	return s, nil
}
