package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/app"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/config"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/similarity"
)

const Version = "1.0.0"

const (
	exitOK      = 0
	exitFailure = 1
)

// errReported marks a failure whose payload is already on stdout.
var errReported = errors.New("reported")

type options struct {
	envFile   string
	threshold float64
	workers   int
	policy    string
	fold      bool
	progress  bool
	timeout   time.Duration
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			// flag parsing failed before RunE ran
			writePayload(stdout, domain.NewErrorPayload(domain.ErrUsage.WithError(err)))
			fmt.Fprintln(stderr, err)
		}
		return exitFailure
	}
	return exitOK
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "facefinder <image_url> <corpus>",
		Short:         "Find the corpus images that show the face in image_url",
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return report(stdout, stderr, domain.ErrUsage)
			}
			return run(cmd, args[0], args[1], opts, stdout, stderr)
		},
	}

	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	bindFlags(cmd, &opts)

	return cmd
}

func bindFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment (default .env)")
	f.Float64VarP(&opts.threshold, "threshold", "t", similarity.DefaultThreshold, "minimum cosine similarity for a match, overrides MATCH_THRESHOLD")
	f.IntVarP(&opts.workers, "workers", "w", 1, "corpus entries processed concurrently, overrides SCAN_WORKERS")
	f.StringVar(&opts.policy, "policy", "first", "which query face to search for: first or largest, overrides CANONICAL_POLICY")
	f.BoolVar(&opts.fold, "fold-exclusion", false, "compare the query name to corpus names case-insensitively")
	f.BoolVar(&opts.progress, "progress", true, "draw a progress bar on stderr")
	f.DurationVar(&opts.timeout, "timeout", 0, "abort the whole run after this long (0 = no limit)")
}

func run(cmd *cobra.Command, imageURL, corpus string, opts options, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return report(stdout, stderr, fmt.Errorf("load env file: %w", err))
	}

	cfg, err := config.Load()
	if err != nil {
		return report(stdout, stderr, err)
	}
	applyFlags(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return report(stdout, stderr, domain.ErrUsage.WithError(err))
	}

	logger := config.NewLogger(cfg.Environment, stderr).With(slog.String("component", "cli"))

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	a, err := app.Build(ctx, cfg, logger, app.Overrides{})
	if err != nil {
		return report(stdout, stderr, err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to release resources", slog.Any("error", err))
		}
	}()

	var runOpts []pipeline.RunOption
	if opts.progress {
		runOpts = append(runOpts, pipeline.WithProgress(newBarProgress(stderr)))
	}

	result, err := a.Pipeline.Run(ctx, imageURL, corpus, runOpts...)
	if err != nil {
		return report(stdout, stderr, err)
	}

	logger.Info("scan finished",
		slog.String("run_id", result.RunID.String()),
		slog.Int("matches", len(result.MatchingEntries)),
		slog.Int("skipped", result.Stats.Skipped),
		slog.Duration("duration", result.Duration),
	)

	writePayload(stdout, domain.NewResultPayload(result))
	return nil
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts options) {
	f := cmd.Flags()
	if f.Changed("threshold") {
		cfg.MatchThreshold = opts.threshold
	}
	if f.Changed("workers") {
		cfg.ScanWorkers = opts.workers
	}
	if f.Changed("policy") {
		cfg.CanonicalPolicy = opts.policy
	}
	if f.Changed("fold-exclusion") {
		cfg.ExcludeMatch = "exact"
		if opts.fold {
			cfg.ExcludeMatch = "fold"
		}
	}
}

func report(stdout, stderr io.Writer, err error) error {
	writePayload(stdout, domain.NewErrorPayload(err))
	fmt.Fprintf(stderr, "facefinder: %v\n", err)
	return errReported
}

func writePayload(w io.Writer, payload any) {
	enc := json.NewEncoder(w)
	_ = enc.Encode(payload)
}
