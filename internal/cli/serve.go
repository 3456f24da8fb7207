// internal/cli/serve.go
package cli

import (
	"fmt"
	"runtime"

	"github.com/dalemusser/dotmail/internal/app"
	"github.com/dalemusser/dotmail/internal/config"
	"github.com/dalemusser/dotmail/internal/logging"
	"github.com/dalemusser/dotmail/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Settings come from flags, DOTMAIL_* environment
variables, an optional .env file and dotmail.{yaml,yml,json,toml} in the
working directory, in that order of precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			boot := logging.BootstrapLogger()
			defer func() { _ = boot.Sync() }()

			cfg, err := config.Load(boot, cmd.Flags())
			if err != nil {
				boot.Error("config load failed", zap.Error(err))
				return err
			}
			return app.Run(cmd.Context(), cfg)
		},
	}

	// Local log_level shadows the root's CLI default of "warn".
	config.RegisterFlags(c.Flags())
	return c
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "dotmail %s %s/%s %s\n",
				version.String(), info.OS, info.Arch, runtime.Version())
		},
	}
}
