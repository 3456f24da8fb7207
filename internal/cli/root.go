// internal/cli/root.go

// Package cli implements the dotmail command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/dotmail/internal/logging"
	"github.com/dalemusser/dotmail/internal/variant"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errReported marks an error the command has already explained to the user.
var errReported = errors.New("reported")

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
}

// logger builds the CLI logger for the chosen level. It writes to stderr so
// stdout stays clean for output.
func (o *rootOptions) logger() *zap.Logger {
	return logging.CLILogger(o.logLevel)
}

// NewRootCmd returns the dotmail command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dotmail",
		Short: "Generate dot variants of an email address",
		Long: `dotmail turns one address into the variants that reach the same mailbox
on providers that ignore dots in the local part, e.g. name@gmail.com,
n.ame@gmail.com, n.a.m.e@gmail.com.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log_level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		checkCmd(opts),
		countCmd(opts),
		generateCmd(opts),
		exampleCmd(),
		shellCmd(opts),
		serveCmd(),
		versionCmd(),
	)
	return cmd
}

// validator returns the strict or minimal validator.
func validator(strict bool) variant.Validator {
	if strict {
		return variant.Validator{Tier: variant.TierStrict}
	}
	return variant.Validator{}
}

// parseArg validates email and prints "invalid: <reason>" to stderr on
// failure.
func parseArg(cmd *cobra.Command, email string, strict bool) (variant.Address, error) {
	addr, err := validator(strict).Parse(email)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "invalid:", variant.Reason(err))
		return addr, errReported
	}
	return addr, nil
}
