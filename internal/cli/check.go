// internal/cli/check.go
package cli

import (
	"fmt"

	"github.com/dalemusser/dotmail/internal/session"
	"github.com/dalemusser/dotmail/internal/text"
	"github.com/dalemusser/dotmail/internal/variant"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func checkCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	c := &cobra.Command{
		Use:   "check <email>",
		Short: "Check whether an address has a usable local@domain shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validator(strict)
			_, err := v.Parse(args[0])
			opts.logger().Debug("checked address",
				zap.Stringer("tier", v.Tier), zap.Bool("valid", err == nil))
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid:", variant.Reason(err))
				return errReported
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}

	c.Flags().BoolVar(&strict, "strict", false, "Also require a dotted domain")
	return c
}

func countCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	c := &cobra.Command{
		Use:   "count <email>",
		Short: "Print how many variants an address has",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseArg(cmd, args[0], strict)
			if err != nil {
				return err
			}
			total := addr.Count()
			opts.logger().Debug("counted variants", zap.Int("gaps", total.Gaps))
			fmt.Fprintln(cmd.OutOrStdout(), text.Total(language.English, total))
			return nil
		},
	}

	c.Flags().BoolVar(&strict, "strict", false, "Also require a dotted domain")
	return c
}

func exampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Print an example address",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), session.Example)
		},
	}
}
