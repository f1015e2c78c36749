package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/contact/encoding/cool"
	"github.com/grailbio/contact/matrix"
)

// groupFlags selects the resolution group to work on.
type groupFlags struct {
	// resolution is the bin size. Zero picks the only resolution stored.
	resolution int
	// output, if nonempty, is a container root that receives a copy of the
	// group; the operation is applied to the copy.
	output string
}

// blockFlags names a block either as a chromosome or as a bin range.
type blockFlags struct {
	chrom      string
	start, end int
}

// moveFlags names a block and where it goes.
type moveFlags struct {
	blockFlags
	// before and after name the chromosome the block lands next to. dest is
	// a bin offset. Exactly one of them is set.
	before, after string
	dest          int
}

// openGroup resolves the resolution and, when output is set, copies the group
// there first.
func openGroup(ctx context.Context, root string, flags groupFlags) (*cool.Container, error) {
	res := flags.resolution
	if res == 0 {
		resolutions, err := cool.ListResolutions(ctx, root)
		if err != nil {
			return nil, err
		}
		if len(resolutions) != 1 {
			return nil, fmt.Errorf("%s: found resolutions %v; pick one with -resolution", root, resolutions)
		}
		res = resolutions[0]
	}
	c := cool.Open(root, res, cool.Opts{})
	if flags.output == "" || flags.output == root {
		return c, nil
	}
	m, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("copying %s to %s", c.Path(), cool.GroupPath(flags.output, res))
	return cool.Create(ctx, flags.output, res, m, cool.Opts{})
}

// resolveBlock returns the bin range a blockFlags names.
func resolveBlock(m *matrix.Matrix, b blockFlags) (start, end int, err error) {
	if b.chrom == "" {
		return b.start, b.end, nil
	}
	if b.start != 0 || b.end != 0 {
		return 0, 0, errors.E(errors.Invalid, "-chrom cannot be combined with -start or -end")
	}
	idx, err := m.ChromIndex(b.chrom)
	if err != nil {
		return 0, 0, err
	}
	return m.ChromBlock(idx)
}

// resolveDest returns the bin offset a moveFlags names.
func resolveDest(m *matrix.Matrix, f moveFlags) (int, error) {
	var (
		name  string
		after bool
	)
	switch {
	case f.before != "" && f.after != "":
		return 0, errors.E(errors.Invalid, "-before and -after are exclusive")
	case f.before != "":
		name = f.before
	case f.after != "":
		name, after = f.after, true
	default:
		return f.dest, nil
	}
	idx, err := m.ChromIndex(name)
	if err != nil {
		return 0, err
	}
	start, end, err := m.ChromBlock(idx)
	if after {
		return end, err
	}
	return start, err
}

func invert(ctx context.Context, root string, group groupFlags, block blockFlags) error {
	c, err := openGroup(ctx, root, group)
	if err != nil {
		return err
	}
	return cool.Apply(ctx, c, func(m *matrix.Matrix) error {
		start, end, err := resolveBlock(m, block)
		if err != nil {
			return err
		}
		log.Printf("%s: inverting bins [%d,%d)", c.Path(), start, end)
		return matrix.InvertBlock(m, start, end)
	})
}

func move(ctx context.Context, root string, group groupFlags, flags moveFlags) error {
	c, err := openGroup(ctx, root, group)
	if err != nil {
		return err
	}
	return cool.Apply(ctx, c, func(m *matrix.Matrix) error {
		start, end, err := resolveBlock(m, flags.blockFlags)
		if err != nil {
			return err
		}
		dest, err := resolveDest(m, flags)
		if err != nil {
			return err
		}
		log.Printf("%s: moving bins [%d,%d) to %d", c.Path(), start, end, dest)
		return matrix.RelocateBlock(m, start, end, dest)
	})
}

func validate(ctx context.Context, out io.Writer, root string, group groupFlags) error {
	c, err := openGroup(ctx, root, group)
	if err != nil {
		return err
	}
	m, err := c.Load(ctx)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return errors.E(err, c.Path())
	}
	_, err = fmt.Fprintf(out, "%s: ok, %d bins, %d chromosomes, %d pixels\n", c.Path(), m.NumBins(), m.NumChroms(), m.NNZ())
	return err
}

func checksum(ctx context.Context, out io.Writer, root string, group groupFlags) error {
	c, err := openGroup(ctx, root, group)
	if err != nil {
		return err
	}
	m, err := c.Load(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%016x\tnnz=%d\tsum=%d\n", matrix.Fingerprint(m), m.NNZ(), matrix.CountSum(m))
	return err
}

func dump(ctx context.Context, root string, group groupFlags, binsPath, pixelsPath, headerPath string, opts cool.DumpOpts) error {
	c, err := openGroup(ctx, root, group)
	if err != nil {
		return err
	}
	m, err := c.Load(ctx)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return errors.E(err, c.Path())
	}
	if err := cool.ExportTSV(ctx, m, binsPath, pixelsPath, opts); err != nil {
		return err
	}
	if headerPath == "" {
		return nil
	}
	return writeHeader(ctx, headerPath, m)
}

func importTSV(ctx context.Context, binsPath, pixelsPath, root string, resolution int) error {
	if resolution <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("import needs a positive -resolution, got %d", resolution))
	}
	m, err := cool.ImportTSV(ctx, binsPath, pixelsPath)
	if err != nil {
		return err
	}
	c, err := cool.Create(ctx, root, resolution, m, cool.Opts{})
	if err != nil {
		return err
	}
	log.Printf("%s: imported %d bins, %d pixels", c.Path(), m.NumBins(), m.NNZ())
	return nil
}

// writeHeader writes the chromosome order of m as a SAM header.
func writeHeader(ctx context.Context, path string, m *matrix.Matrix) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, path)
	}
	e := errorreporter.T{}
	e.Set(cool.WriteChromHeader(out.Writer(ctx), m))
	e.Set(out.Close(ctx))
	return e.Err()
}
