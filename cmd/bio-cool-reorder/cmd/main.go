package cmd

import (
	"fmt"
	"log"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/contact/encoding/cool"
	"v.io/x/lib/cmdline"
)

func addGroupFlags(cmd *cmdline.Command, flags *groupFlags) {
	cmd.Flags.IntVar(&flags.resolution, "resolution", 0, "Bin size of the resolution group. If zero, the container must hold exactly one resolution")
	cmd.Flags.StringVar(&flags.output, "o", "", `Container root to write the result to.
If set, the resolution group is copied there and the input is left untouched.`)
}

func addBlockFlags(cmd *cmdline.Command, flags *blockFlags) {
	cmd.Flags.StringVar(&flags.chrom, "chrom", "", "Name of the chromosome to operate on. Exclusive with -start and -end")
	cmd.Flags.IntVar(&flags.start, "start", 0, "First bin of the block. Must be a chromosome offset")
	cmd.Flags.IntVar(&flags.end, "end", 0, "One past the last bin of the block. Must be a chromosome offset")
}

func newCmdInvert() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "invert",
		Short:    "Reverse the bin order of a chromosome or a run of chromosomes",
		ArgsName: "root",
	}
	var (
		group groupFlags
		block blockFlags
	)
	addGroupFlags(cmd, &group)
	addBlockFlags(cmd, &block)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("invert takes one container root, but got %v", argv)
		}
		return invert(vcontext.Background(), argv[0], group, block)
	})
	return cmd
}

func newCmdMove() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "move",
		Short:    "Move a chromosome or a run of chromosomes to another place in the bin order",
		ArgsName: "root",
	}
	var (
		group groupFlags
		flags moveFlags
	)
	addGroupFlags(cmd, &group)
	addBlockFlags(cmd, &flags.blockFlags)
	cmd.Flags.StringVar(&flags.before, "before", "", "Place the block immediately before this chromosome")
	cmd.Flags.StringVar(&flags.after, "after", "", "Place the block immediately after this chromosome")
	cmd.Flags.IntVar(&flags.dest, "dest", 0, `Destination bin offset, used when neither -before nor -after is set.
If dest < start, the block is reinserted starting at dest.
If dest > end, the block is reinserted ending at dest.`)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("move takes one container root, but got %v", argv)
		}
		return move(vcontext.Background(), argv[0], group, flags)
	})
	return cmd
}

func newCmdValidate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "validate",
		Short:    "Check the storage invariants of a resolution group",
		ArgsName: "root",
	}
	var group groupFlags
	cmd.Flags.IntVar(&group.resolution, "resolution", 0, "Bin size of the resolution group")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("validate takes one container root, but got %v", argv)
		}
		return validate(vcontext.Background(), env.Stdout, argv[0], group)
	})
	return cmd
}

func newCmdChecksum() *cmdline.Command {
	cmd := &cmdline.Command{
		Name: "checksum",
		Short: `Print a fingerprint of a resolution group.
The fingerprint covers the chromosome table, the bins and the pixels.`,
		ArgsName: "root",
	}
	var group groupFlags
	cmd.Flags.IntVar(&group.resolution, "resolution", 0, "Bin size of the resolution group")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("checksum takes one container root, but got %v", argv)
		}
		return checksum(vcontext.Background(), env.Stdout, argv[0], group)
	})
	return cmd
}

func newCmdDump() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "dump",
		Short:    "Write the bins and pixels of a resolution group as TSV",
		ArgsName: "root binspath pixelspath",
	}
	var (
		group  groupFlags
		opts   cool.DumpOpts
		header string
	)
	cmd.Flags.IntVar(&group.resolution, "resolution", 0, "Bin size of the resolution group")
	cmd.Flags.BoolVar(&opts.Join, "join", false, "Write genomic coordinates instead of bin ids for pixels")
	cmd.Flags.BoolVar(&opts.Balanced, "balanced", false, "Add a column of balanced counts")
	cmd.Flags.StringVar(&header, "sam-header", "", "If set, also write the chromosome order as a SAM header to this path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("dump takes root binspath pixelspath, but got %v", argv)
		}
		return dump(vcontext.Background(), argv[0], group, argv[1], argv[2], header, opts)
	})
	return cmd
}

func newCmdImport() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "import",
		Short:    "Create a resolution group from bins and pixels TSV files",
		ArgsName: "binspath pixelspath root",
	}
	resolution := cmd.Flags.Int("resolution", 0, "Bin size of the new resolution group")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("import takes binspath pixelspath root, but got %v", argv)
		}
		return importTSV(vcontext.Background(), argv[0], argv[1], argv[2], *resolution)
	})
	return cmd
}

// Run is the entry point of bio-cool-reorder.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-cool-reorder",
			Short:    "Invert and move chromosomes of a contact matrix in place",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdInvert(),
				newCmdMove(),
				newCmdValidate(),
				newCmdChecksum(),
				newCmdDump(),
				newCmdImport(),
			},
		})
}
