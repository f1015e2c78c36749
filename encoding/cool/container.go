package cool

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/contact/matrix"
)

func init() {
	recordiozstd.Init()
}

// Opts controls how datasets are written.
type Opts struct {
	// Transformers is the recordio transformer list applied to every dataset
	// file. The default is zstd.
	Transformers []string
	// Parallelism bounds the number of datasets read or written concurrently.
	// Zero means one per dataset.
	Parallelism int
}

func (o Opts) transformers() []string {
	if o.Transformers == nil {
		return []string{recordiozstd.Name}
	}
	return o.Transformers
}

func (o Opts) parallelism() int {
	if o.Parallelism <= 0 {
		return len(Schema)
	}
	return o.Parallelism
}

// Storage loads a whole matrix and stores it back in place.
type Storage interface {
	Load(ctx context.Context) (*matrix.Matrix, error)
	Store(ctx context.Context, m *matrix.Matrix) error
}

// Container is one resolution group of a container directory,
// "<root>/resolutions/<resolution>". Each dataset is the file
// "<group>/<name>" below it.
type Container struct {
	root       string
	resolution int
	dir        string
	opts       Opts

	// Shapes and file sizes seen by the last Load or Store, indexed like
	// Schema. Nil until then.
	shapes []shape
	sizes  []int64
}

var _ Storage = (*Container)(nil)

// GroupPath returns the directory of one resolution group.
func GroupPath(root string, resolution int) string {
	return file.Join(root, "resolutions", strconv.Itoa(resolution))
}

// Open returns a handle on a resolution group. Nothing is read until Load.
func Open(root string, resolution int, opts Opts) *Container {
	return &Container{
		root:       root,
		resolution: resolution,
		dir:        GroupPath(root, resolution),
		opts:       opts,
	}
}

// Path returns the resolution group directory.
func (c *Container) Path() string { return c.dir }

// Resolution returns the bin size of the group.
func (c *Container) Resolution() int { return c.resolution }

func (c *Container) datasetPath(d Dataset) string {
	return file.Join(c.dir, d.Group, d.Name)
}

// Load reads every dataset of the group. A missing or unreadable dataset is
// reported with its path. Datasets whose sibling lengths disagree, e.g.,
// bins/start shorter than bins/chrom, yield an errors.Precondition error.
func (c *Container) Load(ctx context.Context) (*matrix.Matrix, error) {
	var (
		a      matrix.Arrays
		shapes = make([]shape, len(Schema))
		sizes  = make([]int64, len(Schema))
		parts  = make([]matrix.Arrays, len(Schema))
	)
	err := traverse.Limit(c.opts.parallelism()).Each(len(Schema), func(i int) error {
		var err error
		shapes[i], sizes[i], err = c.readDataset(ctx, Schema[i], &parts[i])
		return err
	})
	if err != nil {
		return nil, err
	}
	for i, d := range Schema {
		moveDataset(d, &parts[i], &a)
	}
	m, err := matrix.New(a)
	if err != nil {
		return nil, errors.E(err, c.dir)
	}
	c.shapes, c.sizes = shapes, sizes
	log.Debug.Printf("%s: loaded %d bins, %d chromosomes, %d pixels", c.dir, m.NumBins(), m.NumChroms(), m.NNZ())
	return m, nil
}

// moveDataset copies the field of src that d describes into dst.
func moveDataset(d Dataset, src, dst *matrix.Arrays) {
	switch d.Type {
	case ElemInt32:
		*d.int32s(dst) = *d.int32s(src)
	case ElemInt64:
		*d.int64s(dst) = *d.int64s(src)
	case ElemFloat64:
		*d.float64s(dst) = *d.float64s(src)
	case ElemString:
		*d.strings(dst) = *d.strings(src)
	}
}

// Store writes m back over the datasets read by Load. Reordering never
// changes a dataset's length, so Store refuses, with errors.Precondition and
// before writing anything, if any dataset would change shape or if any file
// changed size since it was loaded.
func (c *Container) Store(ctx context.Context, m *matrix.Matrix) error {
	if c.shapes == nil {
		return errors.E(errors.Precondition, fmt.Sprintf("%s: store before load", c.dir))
	}
	a := m.Arrays()
	shapes := make([]shape, len(Schema))
	for i, d := range Schema {
		shapes[i] = shapeOf(d, &a, c.shapes[i].width)
		if shapes[i] != c.shapes[i] {
			return errors.E(errors.Precondition,
				fmt.Sprintf("%s: loaded as %v, storing as %v", c.datasetPath(d), c.shapes[i], shapes[i]))
		}
	}
	err := traverse.Each(len(Schema), func(i int) error {
		path := c.datasetPath(Schema[i])
		info, err := file.Stat(ctx, path)
		if err != nil {
			return errors.E(err, path)
		}
		if info.Size() != c.sizes[i] {
			return errors.E(errors.Precondition,
				fmt.Sprintf("%s: size changed from %d to %d bytes since load", path, c.sizes[i], info.Size()))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.writeAll(ctx, &a, shapes)
}

// Create writes m as a new resolution group, overwriting any existing
// datasets, and returns a handle ready for Store.
func Create(ctx context.Context, root string, resolution int, m *matrix.Matrix, opts Opts) (*Container, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c := Open(root, resolution, opts)
	a := m.Arrays()
	shapes := make([]shape, len(Schema))
	for i, d := range Schema {
		shapes[i] = shapeOf(d, &a, 0)
	}
	if err := c.writeAll(ctx, &a, shapes); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) writeAll(ctx context.Context, a *matrix.Arrays, shapes []shape) error {
	sizes := make([]int64, len(Schema))
	err := traverse.Limit(c.opts.parallelism()).Each(len(Schema), func(i int) error {
		var err error
		sizes[i], err = c.writeDataset(ctx, Schema[i], a, shapes[i])
		return err
	})
	if err != nil {
		return err
	}
	c.shapes, c.sizes = shapes, sizes
	log.Debug.Printf("%s: stored %d datasets", c.dir, len(Schema))
	return nil
}

// readDataset reads the single-record recordio file of d into a.
func (c *Container) readDataset(ctx context.Context, d Dataset, a *matrix.Arrays) (s shape, size int64, err error) {
	path := c.datasetPath(d)
	in, err := file.Open(ctx, path)
	if err != nil {
		return s, 0, errors.E(err, path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	info, err := in.Stat(ctx)
	if err != nil {
		return s, 0, errors.E(err, path)
	}
	rio := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	defer rio.Finish() // nolint: errcheck
	if !rio.Scan() {
		if rio.Err() != nil {
			return s, 0, errors.E(rio.Err(), path)
		}
		return s, 0, errors.E(errors.Integrity, fmt.Sprintf("%s: no record", path))
	}
	if s, err = decodeDataset(d, rio.Get().([]byte), a); err != nil {
		return s, 0, errors.E(err, path)
	}
	return s, info.Size(), rio.Err()
}

// writeDataset serializes d into a single-record recordio file, clobbering
// the existing contents, and returns the resulting file size.
func (c *Container) writeDataset(ctx context.Context, d Dataset, a *matrix.Arrays, s shape) (int64, error) {
	path := c.datasetPath(d)
	data, e := encodeDataset(d, a, s)
	if e != nil {
		return 0, e
	}
	out, e := file.Create(ctx, path)
	if e != nil {
		return 0, errors.E(e, path)
	}
	err := errorreporter.T{}
	rio := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: c.opts.transformers(),
	})
	rio.Append(data)
	err.Set(rio.Finish())
	err.Set(out.Close(ctx))
	if err.Err() != nil {
		return 0, errors.E(err.Err(), path)
	}
	info, e := file.Stat(ctx, path)
	if e != nil {
		return 0, errors.E(e, path)
	}
	return info.Size(), nil
}

// ListResolutions returns the resolutions stored under root, ascending.
func ListResolutions(ctx context.Context, root string) ([]int, error) {
	dir := file.Join(root, "resolutions")
	seen := map[int]bool{}
	lister := file.List(ctx, dir, true)
	for lister.Scan() {
		rel := strings.TrimLeft(strings.TrimPrefix(lister.Path(), dir), "/")
		res, err := strconv.Atoi(strings.SplitN(rel, "/", 2)[0])
		if err != nil {
			log.Debug.Printf("ignore %s: %v", lister.Path(), err)
			continue
		}
		seen[res] = true
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E(err, dir)
	}
	var resolutions []int
	for res := range seen {
		resolutions = append(resolutions, res)
	}
	sort.Ints(resolutions)
	return resolutions, nil
}

// Apply loads the matrix from s, runs op on it and stores the result. If op
// fails nothing is stored.
func Apply(ctx context.Context, s Storage, op func(m *matrix.Matrix) error) error {
	m, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := op(m); err != nil {
		return err
	}
	return s.Store(ctx, m)
}
