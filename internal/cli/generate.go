// internal/cli/generate.go
package cli

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/dalemusser/dotmail/internal/export"
	"github.com/dalemusser/dotmail/internal/session"
	"github.com/dalemusser/dotmail/internal/text"
	"github.com/dalemusser/dotmail/internal/variant"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type generateOptions struct {
	count     int
	all       bool
	output    string
	format    string
	strict    bool
	normalize bool
}

func generateCmd(root *rootOptions) *cobra.Command {
	o := &generateOptions{}

	c := &cobra.Command{
		Use:   "generate <email>",
		Short: "Print or save the dot variants of an address",
		Example: `  dotmail generate name@gmail.com
  dotmail generate name@gmail.com -n 3
  dotmail generate name@gmail.com --all -o emails.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, root.logger(), args[0])
		},
	}

	c.Flags().IntVarP(&o.count, "count", "n", session.DefaultCount, "Number of variants (clamped to the total)")
	c.Flags().BoolVar(&o.all, "all", false, "Generate every variant")
	c.Flags().StringVarP(&o.output, "output", "o", "", "Write to this file instead of stdout")
	c.Flags().StringVarP(&o.format, "format", "f", "", "Output format: txt, csv, json, yaml, xlsx (default from --output, else txt)")
	c.Flags().BoolVar(&o.strict, "strict", false, "Also require a dotted domain")
	c.Flags().BoolVar(&o.normalize, "normalize", false, "Trim, NFC-normalize and lowercase the input first")
	c.MarkFlagsMutuallyExclusive("count", "all")
	return c
}

func (o *generateOptions) limit() (variant.Limit, error) {
	if o.all {
		return variant.All(), nil
	}
	if o.count < 1 {
		return variant.Limit{}, fmt.Errorf("--count must be at least 1, got %d", o.count)
	}
	return variant.Max(o.count), nil
}

func (o *generateOptions) resolveFormat() (export.Format, error) {
	if o.format != "" {
		return export.ParseFormat(o.format)
	}
	if f, ok := export.FormatFromName(o.output); ok {
		return f, nil
	}
	return export.Text, nil
}

func (o *generateOptions) run(cmd *cobra.Command, logger *zap.Logger, email string) error {
	if o.normalize {
		email = text.Normalize(email)
	}
	addr, err := parseArg(cmd, email, o.strict)
	if err != nil {
		return err
	}
	limit, err := o.limit()
	if err != nil {
		return err
	}
	format, err := o.resolveFormat()
	if err != nil {
		return err
	}

	n := 0
	seq := counted(withContext(cmd.Context(), variant.Variants(addr.Local, addr.Domain, limit)), &n)

	if o.output != "" {
		if err := export.Save(o.output, format, seq); err != nil {
			return fmt.Errorf("write %s: %w", o.output, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d addresses to %s\n", n, o.output)
	} else {
		out := cmd.OutOrStdout()
		if err := export.Write(out, format, seq); err != nil {
			return err
		}
		if format == export.Text && n > 0 {
			_, _ = io.WriteString(out, "\n")
		}
	}

	logger.Debug("generated variants",
		zap.Int("count", n),
		zap.String("total", addr.Count().String()),
		zap.String("format", string(format)),
	)
	return cmd.Context().Err()
}

// withContext stops seq once ctx is done.
func withContext(ctx context.Context, seq iter.Seq[string]) iter.Seq[string] {
	if ctx == nil {
		return seq
	}
	return func(yield func(string) bool) {
		for v := range seq {
			if ctx.Err() != nil || !yield(v) {
				return
			}
		}
	}
}

func counted(seq iter.Seq[string], n *int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for v := range seq {
			*n++
			if !yield(v) {
				return
			}
		}
	}
}
