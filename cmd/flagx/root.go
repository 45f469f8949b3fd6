package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/OrlandoBitencourt/flagx"
)

const version = "0.1.0"

type globalOptions struct {
	baseURL     string
	readTimeout time.Duration
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "flagx",
		Short: "Feature flag client",
		Long: `flagx evaluates boolean feature flags against a remote evaluation service.

Configuration is read from FLAGX_* environment variables and can be overridden
with flags.

Common usage:
  flagx eval new-checkout                      # Evaluate for no target
  flagx eval new-checkout --target user-123    # Evaluate for a target
  flagx eval new-checkout --default=true       # Value returned on failure
  flagx serve --admin :19000 --webhook :18001  # Run admin and webhook servers`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "evaluation service URL (overrides FLAGX_BASE_URL)")
	cmd.PersistentFlags().DurationVar(&opts.readTimeout, "timeout", 0, "remote call timeout (overrides FLAGX_READ_TIMEOUT)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(newEvalCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

// clientOptions merges environment configuration with command-line overrides.
func (g *globalOptions) clientOptions() ([]flagx.Option, error) {
	cfg, err := flagx.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	opts := []flagx.Option{
		flagx.WithConfig(cfg),
		flagx.WithLogger(flagx.NewJSONLogger(os.Stderr, g.logLevel)),
	}
	if g.baseURL != "" {
		opts = append(opts, flagx.WithBaseURL(g.baseURL))
	}
	if g.readTimeout > 0 {
		opts = append(opts, flagx.WithReadTimeout(g.readTimeout))
	}
	return opts, nil
}
