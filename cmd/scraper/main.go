// Command scraper renders the election results page in a headless browser
// and saves its HTML for the pipeline's extract step.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/AleksandrZin/google-election/internal/config"
	"github.com/AleksandrZin/google-election/internal/exporter"
	"github.com/AleksandrZin/google-election/internal/fetch"
	"github.com/AleksandrZin/google-election/internal/infrastructure"
)

// pageFetcher is satisfied by fetch.BrowserFetcher
type pageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type fetcherFactory func(opts fetch.BrowserOptions, logger *slog.Logger) pageFetcher

func newBrowserFetcher(opts fetch.BrowserOptions, logger *slog.Logger) pageFetcher {
	return fetch.NewBrowserFetcher(opts, logger)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Scraper panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], newBrowserFetcher); err != nil {
		slog.Error("Scrape failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type options struct {
	url      string
	out      string
	class    string
	headless bool
	timeout  time.Duration
}

// parseFlags defaults every flag from cfg
func parseFlags(args []string, cfg *config.Config, paths *config.Paths) (options, error) {
	var o options
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.StringVar(&o.url, "url", cfg.Sources.ResultsURL, "results page to render")
	fs.StringVar(&o.out, "out", paths.ResultsHTML, "file to save the rendered HTML to")
	fs.StringVar(&o.class, "class", cfg.Sources.TableClass, "class of the result tables to wait for")
	fs.BoolVar(&o.headless, "headless", cfg.Pipeline.Headless, "run browser headless")
	fs.DurationVar(&o.timeout, "timeout", cfg.Pipeline.FetchTimeout, "give up after this long")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.url == "" {
		return options{}, fmt.Errorf("-url is required")
	}
	if o.out == "" {
		return options{}, fmt.Errorf("-out is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, newFetcher fetcherFactory) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return err
	}

	o, err := parseFlags(args, cfg, paths)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = infrastructure.CloseLogFile() }()

	logger.Info("Scraper starting",
		slog.String("url", o.url),
		slog.String("out", o.out),
		slog.Bool("headless", o.headless),
		slog.Duration("timeout", o.timeout))

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	fetcher := newFetcher(fetch.BrowserOptions{
		Headless:     o.headless,
		WaitSelector: fetch.ResultsTableSelector(o.class),
	}, logger)

	start := time.Now()
	page, err := fetcher.Fetch(ctx, o.url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", o.url, err)
	}

	if err := os.MkdirAll(filepath.Dir(o.out), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := exporter.WriteFileAtomic(o.out, []byte(page)); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	logger.Info("Saved results page",
		slog.String("path", o.out),
		slog.Int("bytes", len(page)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
