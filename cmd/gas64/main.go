package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gas64/debug"
	"gas64/internal/arch"
	"gas64/internal/arch/x86_64"
	"gas64/internal/asm"
	"gas64/internal/ast"
	"gas64/internal/config"
	"gas64/internal/diag"
	"gas64/internal/format"
	"gas64/internal/format/elf"
	"gas64/internal/format/raw"
	"gas64/internal/listing"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	output     string
	arch       string
	format     string
	listing    bool
	dumpAST    bool
	logLevel   string
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "gas64 [flags] <input.s>",
		Short:         "Assemble a subset of x86-64 AT&T syntax into an ELF64 object",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mergeConfig(cmd, opts); err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), opts, args[0])
		},
	}

	addFlags(cmd.Flags(), opts)
	return cmd
}

func addFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format's extension)")
	flags.StringVar(&opts.arch, "arch", "x86_64", "target architecture")
	flags.StringVar(&opts.format, "format", "elf", "output format: elf or raw")
	flags.BoolVar(&opts.listing, "listing", false, "print a disassembly listing of the encoded text")
	flags.BoolVar(&opts.dumpAST, "dump-ast", false, "print the parsed statements")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&opts.configPath, "config", "", "TOML config file (default: $"+config.EnvPath+")")
}

// mergeConfig fills options from the config file unless the flag was set.
func mergeConfig(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(config.Path(opts.configPath))
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("log-level") {
		opts.logLevel = cfg.LogLevel
	}
	if !flags.Changed("format") {
		opts.format = cfg.Format
	}
	if !flags.Changed("listing") {
		opts.listing = cfg.Listing
	}

	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	logrus.SetLevel(level)
	return nil
}

func newEncoder(a arch.Arch) (asm.Encoder, error) {
	switch a {
	case arch.ArchX86_64:
		return x86_64.NewEncoder(), nil
	default:
		return nil, errors.Errorf("unsupported architecture: %s", a)
	}
}

func newBuilder(f format.Format, a arch.Arch) (format.Builder, error) {
	switch f {
	case format.FormatELF:
		return elf.NewBuilder(a), nil
	case format.FormatRaw:
		return raw.NewBuilder(), nil
	default:
		return nil, errors.Errorf("unsupported format: %s", f)
	}
}

func outputPath(input, output, ext string) string {
	if output != "" {
		return output
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

func run(stdout io.Writer, opts *options, input string) error {
	f := format.ParseFormat(opts.format)
	if f == format.FormatUnknown {
		return errors.Errorf("unknown format: %s", opts.format)
	}
	encoder, err := newEncoder(arch.ParseArch(opts.arch))
	if err != nil {
		return err
	}
	builder, err := newBuilder(f, encoder.Arch())
	if err != nil {
		return err
	}
	assembler := asm.NewAssembler(encoder, builder)

	src, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer src.Close()

	u, err := assembler.AssembleSource(input, src)
	if err != nil {
		return err
	}
	if opts.dumpAST {
		ast.Fprint(stdout, u)
	}
	if opts.listing {
		listing.Fprint(stdout, u)
	}

	bin, err := assembler.BuildBinary(u)
	if err != nil {
		return err
	}
	out := outputPath(input, opts.output, builder.Extension())
	if err := os.WriteFile(out, bin, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}

	logrus.Infof("assembled %s -> %s (%s, %s, %s)", input, out, encoder.Arch(), f, units.HumanSize(float64(len(bin))))
	logrus.Debugf("%s sha256 %s", out, debug.CheckSum(bin))
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			diag.Print(os.Stderr, de)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
