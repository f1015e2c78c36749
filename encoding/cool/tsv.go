package cool

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/contact/matrix"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// DumpOpts controls the pixel TSV layout.
type DumpOpts struct {
	// Join replaces the bin1_id and bin2_id columns by the genomic
	// coordinates of both bins.
	Join bool
	// Balanced adds a "balanced" column, count*weight[bin1]*weight[bin2].
	Balanced bool
}

// binRow is one line of a bins TSV.
type binRow struct {
	Chrom  string  `tsv:"chrom"`
	Start  int     `tsv:"start"`
	End    int     `tsv:"end"`
	Weight float64 `tsv:"weight"`
}

// pixelRow is one line of a pixels TSV with bin ids.
type pixelRow struct {
	Bin1  int64 `tsv:"bin1_id"`
	Bin2  int64 `tsv:"bin2_id"`
	Count int32 `tsv:"count"`
}

// WriteBinsTSV writes the bin table with a header line.
func WriteBinsTSV(w io.Writer, m *matrix.Matrix) error {
	out := tsv.NewWriter(w)
	out.WriteString("chrom\tstart\tend\tweight")
	if err := out.EndLine(); err != nil {
		return err
	}
	a := m.Arrays()
	for i := range a.BinChrom {
		out.WriteString(a.ChromName[a.BinChrom[i]])
		out.WriteInt64(int64(a.BinStart[i]))
		out.WriteInt64(int64(a.BinEnd[i]))
		out.WriteFloat64(a.BinWeight[i], 'g', -1)
		if err := out.EndLine(); err != nil {
			return errors.Wrapf(err, "write bin %d", i)
		}
	}
	return out.Flush()
}

// WritePixelsTSV writes the stored pixels, in storage order, with a header
// line.
func WritePixelsTSV(w io.Writer, m *matrix.Matrix, opts DumpOpts) error {
	out := tsv.NewWriter(w)
	var cols []string
	if opts.Join {
		cols = []string{"chrom1", "start1", "end1", "chrom2", "start2", "end2", "count"}
	} else {
		cols = []string{"bin1_id", "bin2_id", "count"}
	}
	if opts.Balanced {
		cols = append(cols, "balanced")
	}
	out.WriteString(strings.Join(cols, "\t"))
	if err := out.EndLine(); err != nil {
		return err
	}
	a := m.Arrays()
	writeBin := func(id int64) {
		out.WriteString(a.ChromName[a.BinChrom[id]])
		out.WriteInt64(int64(a.BinStart[id]))
		out.WriteInt64(int64(a.BinEnd[id]))
	}
	for i := range a.Bin1ID {
		row, col := a.Bin1ID[i], a.Bin2ID[i]
		if opts.Join {
			writeBin(row)
			writeBin(col)
		} else {
			out.WriteInt64(row)
			out.WriteInt64(col)
		}
		out.WriteInt64(int64(a.Count[i]))
		if opts.Balanced {
			out.WriteFloat64(float64(a.Count[i])*a.BinWeight[row]*a.BinWeight[col], 'g', -1)
		}
		if err := out.EndLine(); err != nil {
			return errors.Wrapf(err, "write pixel %d", i)
		}
	}
	return out.Flush()
}

// ReadBinsTSV parses a bins TSV as written by WriteBinsTSV. Chromosomes are
// numbered in order of first appearance and their bins must be contiguous.
// A chromosome's length is the largest end among its bins.
func ReadBinsTSV(r io.Reader) ([]matrix.Chrom, []matrix.Bin, error) {
	in := tsv.NewReader(r)
	in.HasHeaderRow = true
	in.UseHeaderNames = true
	var (
		chroms []matrix.Chrom
		bins   []matrix.Bin
		index  = map[string]int{}
	)
	for line := 1; ; line++ {
		var row binRow
		if err := in.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, errors.Wrapf(err, "bins line %d", line)
		}
		idx, ok := index[row.Chrom]
		if !ok {
			idx = len(chroms)
			index[row.Chrom] = idx
			chroms = append(chroms, matrix.Chrom{Name: row.Chrom})
		} else if idx != len(chroms)-1 {
			return nil, nil, errors.Errorf("bins line %d: bins of %s are not contiguous", line, row.Chrom)
		}
		if row.End > chroms[idx].Length {
			chroms[idx].Length = row.End
		}
		bins = append(bins, matrix.Bin{Chrom: idx, Start: row.Start, End: row.End, Weight: row.Weight})
	}
	return chroms, bins, nil
}

// ReadPixelsTSV parses a pixels TSV with bin1_id, bin2_id and count columns.
// Pixels below the diagonal are mirrored and the result is sorted by (row,
// col).
func ReadPixelsTSV(r io.Reader) ([]matrix.Pixel, error) {
	in := tsv.NewReader(r)
	in.HasHeaderRow = true
	in.UseHeaderNames = true
	var pixels []matrix.Pixel
	for line := 1; ; line++ {
		var row pixelRow
		if err := in.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "pixels line %d", line)
		}
		p := matrix.Pixel{Row: row.Bin1, Col: row.Bin2, Count: row.Count}
		if p.Row > p.Col {
			p.Row, p.Col = p.Col, p.Row
		}
		pixels = append(pixels, p)
	}
	sort.SliceStable(pixels, func(i, j int) bool { return pixels[i].Less(pixels[j]) })
	return pixels, nil
}

// ImportTSV builds a matrix from a bins TSV and a pixels TSV. Paths ending
// in ".gz" are gunzipped.
func ImportTSV(ctx context.Context, binsPath, pixelsPath string) (m *matrix.Matrix, err error) {
	var (
		chroms []matrix.Chrom
		bins   []matrix.Bin
		pixels []matrix.Pixel
	)
	err = readFile(ctx, binsPath, func(r io.Reader) (err error) {
		chroms, bins, err = ReadBinsTSV(r)
		return
	})
	if err != nil {
		return nil, err
	}
	err = readFile(ctx, pixelsPath, func(r io.Reader) (err error) {
		pixels, err = ReadPixelsTSV(r)
		return
	})
	if err != nil {
		return nil, err
	}
	return matrix.Build(chroms, bins, pixels)
}

// ExportTSV writes the bins and pixels of m to two files. Paths ending in
// ".gz" are gzipped.
func ExportTSV(ctx context.Context, m *matrix.Matrix, binsPath, pixelsPath string, opts DumpOpts) error {
	err := writeFile(ctx, binsPath, func(w io.Writer) error { return WriteBinsTSV(w, m) })
	if err != nil {
		return err
	}
	return writeFile(ctx, pixelsPath, func(w io.Writer) error { return WritePixelsTSV(w, m, opts) })
}

func readFile(ctx context.Context, path string, fn func(r io.Reader) error) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return errors.Wrapf(err, "gunzip %s", path)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
	}
	if err := fn(r); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}

func writeFile(ctx context.Context, path string, fn func(w io.Writer) error) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	e := errorreporter.T{}
	var w io.Writer = out.Writer(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(w)
		e.Set(fn(gz))
		e.Set(gz.Close())
	} else {
		e.Set(fn(w))
	}
	e.Set(out.Close(ctx))
	if e.Err() != nil {
		return errors.Wrap(e.Err(), path)
	}
	return nil
}
