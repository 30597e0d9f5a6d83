package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/traininduction/traininduction/internal/app"
	"github.com/traininduction/traininduction/internal/config"
	"github.com/traininduction/traininduction/internal/schedule"
	"github.com/traininduction/traininduction/internal/scoring"
)

type rootOptions struct {
	cfgPath string
	date    string
	time    string
	asJSON  bool
	verbose bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "inductctl",
		Short:         "Score and rank trains for overnight induction",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.cfgPath, "config", "c", os.Getenv("INDUCTION_CONFIG"), "configuration file")
	flags.StringVar(&opts.date, "date", "", "reference date YYYY-MM-DD (default today)")
	flags.StringVar(&opts.time, "time", "", "service time HH:mm")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newScoreCmd(opts),
		newRankCmd(opts),
		newOptimizeCmd(opts),
	)
	return root
}

// withApp loads configuration, builds the services and runs fn against them.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := zerolog.Nop()
	if o.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, logger, app.Options{SkipPublisher: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("close services")
		}
	}()
	return fn(ctx, a)
}

// operationalContext parses the --date and --time flags.
func (o *rootOptions) operationalContext() (scoring.OperationalContext, error) {
	date, err := scoring.ParseOptionalDate("date", o.date)
	if err != nil {
		return scoring.OperationalContext{}, err
	}
	if o.time != "" && !schedule.ValidTime(o.time) {
		return scoring.OperationalContext{}, fmt.Errorf("time: %q is not HH:mm", o.time)
	}
	return scoring.OperationalContext{Date: date, Time: o.time}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
