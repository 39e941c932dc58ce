package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-scope/internal/scope/common/log"
	"github.com/haukened/rr-scope/internal/scope/config"
)

// state carries the loaded configuration from the root command to subcommands.
type state struct {
	cfg *config.AppConfig
}

// NewRootCmd creates the root command for rr-scope.
func NewRootCmd() *cobra.Command {
	st := &state{}
	cmd := &cobra.Command{
		Use:   "rr-scope",
		Short: "Evaluate crawl candidate URLs against admission rules",
		Long: `rr-scope decides whether candidate URLs are in scope for a crawl and which
work queue they belong to.

Rules and queue policy are configured through SCOPE_* environment variables or
a YAML, JSON or TOML file named by SCOPE_CONFIG.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
				return fmt.Errorf("logging configuration error: %w", err)
			}
			st.cfg = cfg
			return nil
		},
	}

	cmd.AddCommand(NewCheckCmd(st))
	cmd.AddCommand(NewSegmentsCmd(st))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
