package cool

import (
	"fmt"

	"github.com/grailbio/contact/matrix"
)

// ElemType is the element type of a dataset.
type ElemType uint8

const (
	// ElemInvalid is a sentinel
	ElemInvalid ElemType = iota
	// ElemInt32 is a little-endian int32.
	ElemInt32
	// ElemInt64 is a little-endian int64.
	ElemInt64
	// ElemFloat64 is a little-endian IEEE-754 float64.
	ElemFloat64
	// ElemString is a NUL-padded string of a per-dataset fixed width.
	ElemString
)

func (t ElemType) String() string {
	switch t {
	case ElemInt32:
		return "int32"
	case ElemInt64:
		return "int64"
	case ElemFloat64:
		return "float64"
	case ElemString:
		return "string"
	}
	return fmt.Sprintf("ElemType(%d)", uint8(t))
}

// Dataset describes one array of a resolution group and where it lives in
// matrix.Arrays. Exactly one accessor, the one matching Type, is set.
type Dataset struct {
	Group string
	Name  string
	Type  ElemType

	int32s   func(a *matrix.Arrays) *[]int32
	int64s   func(a *matrix.Arrays) *[]int64
	float64s func(a *matrix.Arrays) *[]float64
	strings  func(a *matrix.Arrays) *[]string
}

// Path returns "group/name".
func (d Dataset) Path() string { return d.Group + "/" + d.Name }

// Len returns the number of elements of the dataset in a.
func (d Dataset) Len(a *matrix.Arrays) int {
	switch d.Type {
	case ElemInt32:
		return len(*d.int32s(a))
	case ElemInt64:
		return len(*d.int64s(a))
	case ElemFloat64:
		return len(*d.float64s(a))
	case ElemString:
		return len(*d.strings(a))
	}
	panic(d)
}

// Schema lists every dataset of a resolution group, in load and store order.
var Schema = []Dataset{
	{Group: "bins", Name: "chrom", Type: ElemInt32, int32s: func(a *matrix.Arrays) *[]int32 { return &a.BinChrom }},
	{Group: "bins", Name: "start", Type: ElemInt32, int32s: func(a *matrix.Arrays) *[]int32 { return &a.BinStart }},
	{Group: "bins", Name: "end", Type: ElemInt32, int32s: func(a *matrix.Arrays) *[]int32 { return &a.BinEnd }},
	{Group: "bins", Name: "weight", Type: ElemFloat64, float64s: func(a *matrix.Arrays) *[]float64 { return &a.BinWeight }},
	{Group: "chroms", Name: "name", Type: ElemString, strings: func(a *matrix.Arrays) *[]string { return &a.ChromName }},
	{Group: "chroms", Name: "length", Type: ElemInt32, int32s: func(a *matrix.Arrays) *[]int32 { return &a.ChromLength }},
	{Group: "indexes", Name: "bin1_offset", Type: ElemInt64, int64s: func(a *matrix.Arrays) *[]int64 { return &a.Bin1Offset }},
	{Group: "indexes", Name: "chrom_offset", Type: ElemInt64, int64s: func(a *matrix.Arrays) *[]int64 { return &a.ChromOffset }},
	{Group: "pixels", Name: "bin1_id", Type: ElemInt64, int64s: func(a *matrix.Arrays) *[]int64 { return &a.Bin1ID }},
	{Group: "pixels", Name: "bin2_id", Type: ElemInt64, int64s: func(a *matrix.Arrays) *[]int64 { return &a.Bin2ID }},
	{Group: "pixels", Name: "count", Type: ElemInt32, int32s: func(a *matrix.Arrays) *[]int32 { return &a.Count }},
}
