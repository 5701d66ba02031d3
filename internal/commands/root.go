// Package commands implements the httpretry command-line interface.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/httpretry/config"
	"github.com/gaborage/httpretry/http"
	"github.com/gaborage/httpretry/logger"
	"github.com/gaborage/httpretry/observability"
)

// RootOptions holds the flags shared by every subcommand
type RootOptions struct {
	ConfigFile string
	BaseURL    string
	LogLevel   string
	Pretty     bool
}

// NewRootCommand creates the httpretry root command
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "httpretry",
		Short: "Send HTTP requests with timeout-aware retries",
		Long: `httpretry sends GET and POST requests relative to a configured base URL.

Attempts that time out or return a retriable status are repeated with exponential
backoff. Configuration comes from a YAML file, HTTPRETRY_* environment variables
and the flags below, in increasing priority.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.BaseURL, "base-url", "", "Base URL prepended to every endpoint")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.Pretty, "pretty", false, "Human-readable logs")

	cmd.AddCommand(
		newGetCommand(opts),
		newPostCommand(opts),
		NewVersionCommand(version),
	)

	return cmd
}

// runtime bundles everything a request command needs.
type runtime struct {
	log      logger.Logger
	client   http.Client
	provider observability.Provider
}

// overrides maps explicitly set flags onto configuration keys.
func (o *RootOptions) overrides(cmd *cobra.Command) map[string]any {
	values := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		values["client.baseurl"] = o.BaseURL
	}
	if flags.Changed("log-level") {
		values["log.level"] = o.LogLevel
	}
	if flags.Changed("pretty") {
		values["log.pretty"] = o.Pretty
	}
	return values
}

func newRuntime(cmd *cobra.Command, opts *RootOptions) (*runtime, error) {
	cfg, err := config.LoadWithOverrides(opts.ConfigFile, opts.overrides(cmd))
	if err != nil {
		return nil, err
	}

	filter := logger.DefaultFilterConfig()
	filter.SensitiveFields = append(filter.SensitiveFields, cfg.Log.MaskFields...)
	log := logger.NewWithFilter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty, filter)

	provider, err := observability.NewProvider(&cfg.Observability, log)
	if err != nil {
		return nil, err
	}

	client, err := http.NewBuilderFromConfig(&cfg.Client, log).
		WithTracerProvider(provider.TracerProvider()).
		WithMeterProvider(provider.MeterProvider()).
		Build()
	if err != nil {
		_ = observability.Shutdown(provider, observability.DefaultShutdownTimeout)
		return nil, fmt.Errorf("failed to build client: %w", err)
	}

	return &runtime{log: log, client: client, provider: provider}, nil
}

func (r *runtime) close() {
	if err := observability.Shutdown(r.provider, observability.DefaultShutdownTimeout); err != nil {
		r.log.Warn().Err(err).Msg("Observability shutdown failed")
	}
}

// commandContext returns the command context, which cobra leaves nil outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
