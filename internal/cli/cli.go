// Package cli builds the cobra commands behind the probe binaries.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/alecthomas/probe"
)

const (
	identifierUsage = "You must supply exactly one argument:  an instance identifier (to be printed)."
	byteCountUsage  = "You must supply exactly one argument:  an amount of memory to allocate (in bytes)."
)

var errInvalidFlag = errors.New("invalid flag")

type options struct {
	hold     time.Duration
	logLevel string
	noColor  bool
}

func (o *options) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&o.hold, "hold", o.hold, "How long the probe stays alive after printing")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "warn", "Log level for stderr diagnostics (debug, info, warn, error)")
	cmd.Flags().BoolVar(&o.noColor, "no-color", false, "Disable coloured log output")
}

func (o *options) logger(w io.Writer) (*slog.Logger, error) {
	level, err := probe.ParseLevel(o.logLevel)
	if err != nil {
		return nil, errors.Wrap(errInvalidFlag, err.Error())
	}
	return probe.NewLogger(w, level, o.noColor), nil
}

func newCommand(use, short string, o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(errInvalidFlag, err.Error())
	})
	cmd.Flags().SetInterspersed(false)
	o.register(cmd)
	return cmd
}

// NewEchoCommand returns a probe that prints its identifier argument and then
// holds for hold.
func NewEchoCommand(use string, hold time.Duration) *cobra.Command {
	o := &options{hold: hold}
	cmd := newCommand(use+" [flags] [--] <identifier>", "Print an instance identifier and stay alive", o)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		log, err := o.logger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if len(args) != 1 {
			return errors.Wrap(probe.ErrInvalidArgumentCount, identifierUsage)
		}
		log.Debug("Probe started", "pid", os.Getpid(), "hold", o.hold)
		if err := probe.Echo(cmd.OutOrStdout(), args[0]); err != nil {
			return errors.Wrap(err, "write identifier")
		}
		if err := probe.Hold(cmd.Context(), o.hold); err != nil {
			return errors.Wrap(err, "hold")
		}
		log.Debug("Hold elapsed")
		return nil
	}
	return cmd
}

// NewAllocateCommand returns a probe that allocates the number of bytes given
// as its argument and then holds for probe.AllocateHold.
func NewAllocateCommand(use string) *cobra.Command {
	o := &options{hold: probe.AllocateHold}
	var (
		parse string
		touch bool
	)
	cmd := newCommand(use+" [flags] [--] <bytes>", "Allocate memory and stay alive", o)
	cmd.Flags().StringVar(&parse, "parse", probe.ParseStrict.String(), "Byte count parsing: strict rejects non-integers, legacy reads them as 0")
	cmd.Flags().BoolVar(&touch, "touch", false, "Write to every page of the allocation so it is resident")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		log, err := o.logger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		mode, err := probe.ParseParseMode(parse)
		if err != nil {
			return errors.Wrap(errInvalidFlag, err.Error())
		}
		if len(args) != 1 {
			return errors.Wrap(probe.ErrInvalidArgumentCount, byteCountUsage)
		}
		n, err := probe.ParseByteCount(args[0], mode)
		if err != nil {
			return err
		}
		log.Debug("Probe started", "pid", os.Getpid(), "hold", o.hold, "parse", mode)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), probe.AllocationStatus(n)); err != nil {
			return errors.Wrap(err, "write status")
		}
		res, err := probe.Allocate(n, touch)
		switch {
		case err != nil && mode == probe.ParseLegacy:
			log.Warn("Allocation failed, continuing", "bytes", n, "err", err)
		case err != nil:
			return err
		default:
			log.Debug("Allocated", "size", humanize.IBytes(uint64(res.Len())))
		}
		if err := probe.Hold(cmd.Context(), o.hold); err != nil {
			return errors.Wrap(err, "hold")
		}
		log.Debug("Hold elapsed")
		if err := res.Release(); err != nil {
			log.Warn("Release failed", "err", err)
		}
		return nil
	}
	return cmd
}

// Run executes cmd with args and returns the process exit status. Errors are
// reported on stderr.
func Run(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	switch {
	case args == nil:
		// cobra falls back to os.Args for nil.
		args = []string{}
	case len(args) == 1 && strings.HasPrefix(args[0], "-"):
		// A lone argument is always the operand, never a flag.
		args = []string{"--", args[0]}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return probe.ExitOK
	}
	fmt.Fprintf(stderr, "%s: %v\n", cmd.Name(), err) //nolint
	if errors.Is(err, errInvalidFlag) {
		return probe.ExitUsage
	}
	return probe.ExitCode(err)
}

// Main runs cmd against the process arguments and exits.
func Main(cmd *cobra.Command) {
	os.Exit(Run(context.Background(), cmd, os.Args[1:], os.Stdout, os.Stderr))
}
