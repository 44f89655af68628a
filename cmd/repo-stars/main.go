package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Sternrassler/repo-stars/pkg/cache"
	"github.com/Sternrassler/repo-stars/pkg/client"
	"github.com/Sternrassler/repo-stars/pkg/config"
	"github.com/Sternrassler/repo-stars/pkg/logging"
	"github.com/Sternrassler/repo-stars/pkg/metrics"
	"github.com/Sternrassler/repo-stars/pkg/pipeline"
	"github.com/Sternrassler/repo-stars/pkg/projects"
	"github.com/Sternrassler/repo-stars/pkg/quota"
	"github.com/Sternrassler/repo-stars/pkg/report"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit, returning the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("repo-stars", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config YAML (optional)")
	projectsPath := fs.String("projects", "projects.yaml", "path to project list YAML")
	format := fs.String("format", string(report.FormatTable), "output format: table, json or csv")
	enforce := fs.Bool("enforce-quota", true, "wait for the quota reset instead of spending past it")
	verbose := fs.Bool("verbose", false, "log every enriched record")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	switch report.Format(*format) {
	case report.FormatTable, report.FormatJSON, report.FormatCSV:
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	// flags win over the file only when given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "enforce-quota":
			cfg.Pipeline.EnforceQuota = enforce
		case "verbose":
			cfg.Pipeline.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 1
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logger, sink := logging.Setup(logCfg)
	defer sink.Close()

	list, err := projects.Load(*projectsPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *projectsPath).Msg("Failed to load projects")
		return 1
	}

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	var g errgroup.Group
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return metrics.Serve(metricsCtx, cfg.Metrics.Addr, logging.NewLogger("metrics"))
		})
	}
	defer func() {
		stopMetrics()
		if err := g.Wait(); err != nil {
			logger.Warn().Err(err).Msg("Metrics server stopped with error")
		}
	}()

	cacheManager, closeCache := setupCache(ctx, cfg.Cache, logger)
	defer closeCache()

	opts := cfg.PipelineOptions()

	gh := client.New(client.Config{
		Token:     opts.Credential,
		UserAgent: cfg.GitHub.UserAgent,
		Timeout:   opts.RequestTimeout,
		Cache:     cacheManager,
	})

	qcfg := quota.DefaultConfig()
	qcfg.APIBaseURL = opts.APIBaseURL
	tracker := quota.NewTracker(gh, qcfg, logging.NewLogger("quota"))

	runner, err := pipeline.New(opts, tracker, gh, logging.NewLogger("pipeline"))
	if err != nil {
		logger.Error().Err(err).Msg("Invalid pipeline options")
		return 1
	}

	results, err := runner.Run(ctx, list.Flatten())
	if err != nil {
		logger.Error().Err(err).Msg("Pipeline run failed")
		return 1
	}

	rows := report.GroupByCategory(report.Rows(results))
	if err := report.Write(stdout, report.Format(*format), rows); err != nil {
		logger.Error().Err(err).Msg("Failed to write report")
		return 1
	}

	summary := report.Summarize(rows)
	logger.Info().
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("failure", summary.Failure).
		Int("unresolved", summary.Unresolved).
		Int("stars", summary.Stars).
		Msg("Report written")

	return 0
}

// setupCache connects Redis when configured. An unreachable Redis disables
// the cache rather than failing the run.
func setupCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (*cache.Manager, func()) {
	noop := func() {}
	if cfg.RedisURL == "" {
		return nil, noop
	}

	opts, err := redisOptions(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid Redis URL, cache disabled")
		return nil, noop
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis unreachable, cache disabled")
		redisClient.Close()
		return nil, noop
	}
	logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

	return cache.NewManager(redisClient, cfg.Retention), func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("Close Redis failed")
		}
	}
}

// redisOptions accepts both redis:// URLs and bare host:port addresses.
func redisOptions(raw string) (*redis.Options, error) {
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	if raw == "" {
		return nil, errors.New("empty redis address")
	}
	return &redis.Options{Addr: raw}, nil
}
