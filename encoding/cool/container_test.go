package cool

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/contact/matrix"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMatrix builds chr1 with bins 0-2 and chr2 with bins 3-5, 10bp each.
func testMatrix(t *testing.T) *matrix.Matrix {
	chroms := []matrix.Chrom{{Name: "chr1", Length: 30}, {Name: "chr2", Length: 30}}
	var bins []matrix.Bin
	for i := 0; i < 6; i++ {
		bins = append(bins, matrix.Bin{Chrom: i / 3, Start: (i % 3) * 10, End: (i%3)*10 + 10, Weight: float64(i) + 0.5})
	}
	pixels := []matrix.Pixel{
		{Row: 0, Col: 0, Count: 5},
		{Row: 0, Col: 3, Count: 2},
		{Row: 1, Col: 2, Count: 7},
		{Row: 2, Col: 2, Count: 9},
		{Row: 3, Col: 5, Count: 1},
		{Row: 4, Col: 4, Count: 3},
	}
	m, err := matrix.Build(chroms, bins, pixels)
	require.NoError(t, err)
	return m
}

func TestCreateLoad(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	m := testMatrix(t)
	_, err := Create(ctx, tempDir, 10, m, Opts{})
	require.NoError(t, err)

	c := Open(tempDir, 10, Opts{})
	expect.EQ(t, c.Path(), filepath.Join(tempDir, "resolutions", "10"))
	got, err := c.Load(ctx)
	require.NoError(t, err)
	expect.True(t, got.Equal(m))

	_, err = Create(ctx, tempDir, 1000, m, Opts{Transformers: []string{}})
	require.NoError(t, err)
	resolutions, err := ListResolutions(ctx, tempDir)
	require.NoError(t, err)
	expect.EQ(t, resolutions, []int{10, 1000})

	got, err = Open(tempDir, 1000, Opts{Parallelism: 1}).Load(ctx)
	require.NoError(t, err)
	expect.True(t, got.Equal(m))
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	m := testMatrix(t)
	_, err := Create(ctx, tempDir, 10, m, Opts{})
	require.NoError(t, err)

	c := Open(tempDir, 10, Opts{})
	require.NoError(t, Apply(ctx, c, func(m *matrix.Matrix) error { return matrix.MoveChrom(m, "chr2", "chr1") }))

	want := m.Clone()
	require.NoError(t, matrix.MoveChrom(want, "chr2", "chr1"))
	got, err := Open(tempDir, 10, Opts{}).Load(ctx)
	require.NoError(t, err)
	expect.True(t, got.Equal(want))
	expect.EQ(t, got.Arrays().ChromName, []string{"chr2", "chr1"})

	// A failed operation leaves the container untouched.
	err = Apply(ctx, c, func(m *matrix.Matrix) error { return matrix.InvertBlock(m, 1, 4) })
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
	got, err = Open(tempDir, 10, Opts{}).Load(ctx)
	require.NoError(t, err)
	expect.True(t, got.Equal(want))

	// The same handle can keep storing after a successful Store.
	require.NoError(t, Apply(ctx, c, func(m *matrix.Matrix) error { return matrix.MoveChrom(m, "chr1", "chr2") }))
	got, err = Open(tempDir, 10, Opts{}).Load(ctx)
	require.NoError(t, err)
	expect.True(t, got.Equal(m))
}

func TestStoreRejectsShapeChange(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	m := testMatrix(t)
	_, err := Create(ctx, tempDir, 10, m, Opts{})
	require.NoError(t, err)

	c := Open(tempDir, 10, Opts{})
	err = c.Store(ctx, m)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)

	_, err = c.Load(ctx)
	require.NoError(t, err)
	bigger, err := matrix.Build(
		[]matrix.Chrom{{Name: "chr1", Length: 30}, {Name: "chr2", Length: 30}},
		binsOf(m),
		append(m.Entries(), matrix.Pixel{Row: 5, Col: 5, Count: 1}))
	require.NoError(t, err)
	err = c.Store(ctx, bigger)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)
	assert.Contains(t, err.Error(), "pixels/bin1_id")

	got, err := Open(tempDir, 10, Opts{}).Load(ctx)
	require.NoError(t, err)
	expect.True(t, got.Equal(m))
}

func TestStoreRejectsConcurrentChange(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	m := testMatrix(t)
	_, err := Create(ctx, tempDir, 10, m, Opts{})
	require.NoError(t, err)
	c := Open(tempDir, 10, Opts{})
	loaded, err := c.Load(ctx)
	require.NoError(t, err)

	// Someone else rewrites the group with a different pixel count.
	other, err := matrix.Build(
		[]matrix.Chrom{{Name: "chr1", Length: 30}, {Name: "chr2", Length: 30}},
		binsOf(m), nil)
	require.NoError(t, err)
	_, err = Create(ctx, tempDir, 10, other, Opts{})
	require.NoError(t, err)

	err = c.Store(ctx, loaded)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)
	got, err := Open(tempDir, 10, Opts{}).Load(ctx)
	require.NoError(t, err)
	expect.True(t, got.Equal(other))
}

func TestLoadMissingDataset(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	_, err := Create(ctx, tempDir, 10, testMatrix(t), Opts{})
	require.NoError(t, err)
	path := filepath.Join(GroupPath(tempDir, 10), "bins", "weight")
	require.NoError(t, os.Remove(path))
	_, err = Open(tempDir, 10, Opts{}).Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)

	_, err = Open(tempDir, 20, Opts{}).Load(ctx)
	require.Error(t, err)
}

func TestLoadLengthMismatch(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	m := testMatrix(t)
	c, err := Create(ctx, tempDir, 10, m, Opts{})
	require.NoError(t, err)

	// Truncate bins/start behind the container's back.
	a := m.Clone().Arrays()
	a.BinStart = a.BinStart[:4]
	var start Dataset
	for _, d := range Schema {
		if d.Path() == "bins/start" {
			start = d
		}
	}
	_, err = c.writeDataset(ctx, start, &a, shapeOf(start, &a, 0))
	require.NoError(t, err)

	_, err = Open(tempDir, 10, Opts{}).Load(ctx)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)
}

func TestCodec(t *testing.T) {
	a := testMatrix(t).Clone().Arrays()
	for _, d := range Schema {
		s := shapeOf(d, &a, 0)
		data, err := encodeDataset(d, &a, s)
		require.NoError(t, err)
		var got matrix.Arrays
		gs, err := decodeDataset(d, data, &got)
		require.NoError(t, err, d.Path())
		expect.EQ(t, gs, s)
		expect.EQ(t, d.Len(&got), d.Len(&a))
	}

	names := Schema[4]
	require.Equal(t, names.Path(), "chroms/name")
	s := shapeOf(names, &a, 0)
	expect.EQ(t, s.width, 4)
	data, err := encodeDataset(names, &a, s)
	require.NoError(t, err)

	var got matrix.Arrays
	_, err = decodeDataset(Schema[0], data, &got)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)

	bad := append([]byte{}, data...)
	bad[0] ^= 0xff
	_, err = decodeDataset(names, bad, &got)
	assert.True(t, errors.Is(errors.Integrity, err), "%v", err)

	_, err = decodeDataset(names, data[:len(data)-1], &got)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)

	_, err = decodeDataset(names, data[:3], &got)
	assert.True(t, errors.Is(errors.Integrity, err), "%v", err)

	// A declared length whose byte size overflows must not reach make().
	header := func(typ ElemType, width uint32, length uint64) []byte {
		h := make([]byte, datasetHeaderSize)
		binary.LittleEndian.PutUint32(h[0:4], datasetMagic)
		h[4] = byte(typ)
		binary.LittleEndian.PutUint32(h[5:9], width)
		binary.LittleEndian.PutUint64(h[9:17], length)
		return h
	}
	counts := Schema[len(Schema)-1]
	require.Equal(t, counts.Path(), "pixels/count")
	_, err = decodeDataset(counts, header(ElemInt32, 4, 1<<63), &got)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)
	_, err = decodeDataset(counts, append(header(ElemInt32, 4, 1<<62), 1, 2, 3, 4), &got)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)
	_, err = decodeDataset(names, header(ElemString, 0, 3), &got)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)
	gs, err := decodeDataset(counts, append(header(ElemInt32, 4, 1), 7, 0, 0, 0), &got)
	require.NoError(t, err)
	expect.EQ(t, gs, shape{typ: ElemInt32, width: 4, length: 1})
	expect.EQ(t, got.Count, []int32{7})

	a.ChromName[0] = "chrom1"
	_, err = encodeDataset(names, &a, s)
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)
	assert.True(t, strings.Contains(err.Error(), "chrom1"))
}

func binsOf(m *matrix.Matrix) []matrix.Bin {
	bins := make([]matrix.Bin, m.NumBins())
	for i := range bins {
		bins[i], _ = m.Bin(i)
	}
	return bins
}
