package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/async"
	"github.com/joseph-ayodele/vehicle-intake/internal/common"
	"github.com/joseph-ayodele/vehicle-intake/internal/export"
	"github.com/joseph-ayodele/vehicle-intake/internal/ingest"
	"github.com/joseph-ayodele/vehicle-intake/internal/intake"
	"github.com/joseph-ayodele/vehicle-intake/internal/metrics"
	"github.com/joseph-ayodele/vehicle-intake/internal/ocr"
	"github.com/joseph-ayodele/vehicle-intake/internal/vindecode"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type collector struct {
	mu       sync.Mutex
	outcomes []intake.Outcome
}

func (c *collector) add(o intake.Outcome, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *collector) snapshot() []intake.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]intake.Outcome(nil), c.outcomes...)
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory of vehicle photos (required)")
		out         = flag.String("out", "", "output XLSX file path (optional, defaults to <dir>/vehicle-intake.xlsx)")
		watch       = flag.Bool("watch", false, "keep watching --dir for new photos until interrupted")
		skipHidden  = flag.Bool("skip-hidden", true, "skip hidden files and directories")
		fieldStr    = flag.String("field", "", "field for photos whose name gives no hint")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*dir, "vehicle-intake.xlsx")
	}
	var fallback constants.Field
	if *fieldStr != "" {
		f, ok := constants.ParseField(*fieldStr)
		if !ok {
			printError("Error: unknown --field %q\n", *fieldStr)
			os.Exit(1)
		}
		fallback = f
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var decoder vindecode.Decoder
	if d := vindecode.NewFromConfig(cfg.VINDecode, logger); d != nil {
		decoder = d
		if err := m.RegisterCacheStats(d.Stats); err != nil {
			logger.Warn("cache metrics not registered", "error", err)
		}
	}
	proc := intake.NewProcessor(logger, ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), decoder, 0)

	if *metricsAddr != "" {
		srv := &http.Server{Addr: *metricsAddr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics serve error", "error", err)
			}
		}()
		defer srv.Close()
	}

	results := &collector{}
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Intake.Workers),
		async.WithQueueSize(cfg.Intake.QueueSize),
		async.WithProcessTimeout(cfg.Intake.ProcessTimeout),
		async.WithResultHandler(func(o intake.Outcome, err error) {
			results.add(o, err)
			m.ObserveOutcome(o, err)
		}),
	)

	enqueue := func(path, hash string, field constants.Field) {
		job := intake.NewJob(path, field)
		job.ContentHash = hash
		if err := queue.Enqueue(ctx, job); err != nil {
			logger.Warn("enqueue failed", "path", path, "error", err)
		}
	}
	resolve := func(path string) (constants.Field, bool) {
		if f, ok := ingest.FieldFromPath(path); ok {
			return f, true
		}
		return fallback, fallback != ""
	}

	photos, stats, err := ingest.ScanDirectory(*dir, *skipHidden)
	if err != nil {
		logger.Error("scan failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	seen := map[string]struct{}{}
	for _, p := range photos {
		seen[p.Path] = struct{}{}
		if p.Err != "" {
			logger.Warn("skipping photo", "path", p.Path, "reason", p.Err)
			continue
		}
		field, ok := resolve(p.Path)
		if !ok {
			logger.Warn("no field hint for photo; pass --field", "path", p.Path)
			continue
		}
		enqueue(p.Path, p.HashHex, field)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"unclassified", stats.Unclassified,
		"failed", stats.Failed,
	)

	if *watch {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:      []string{*dir},
			SkipHidden: *skipHidden,
			Debounce:   500 * time.Millisecond,
			Logger:     logger,
		})
		if err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
		logger.Info("watching for new photos", "dir", *dir)
	loop:
		for {
			select {
			case path, ok := <-events:
				if !ok {
					break loop
				}
				if _, dup := seen[path]; dup {
					continue
				}
				seen[path] = struct{}{}
				if field, ok := resolve(path); ok {
					enqueue(path, "", field)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watcher error", "error", err)
			case <-ctx.Done():
				break loop
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Intake.ProcessTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	b, err := export.NewService(logger).WriteOutcomesXLSX(results.snapshot())
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		logger.Error("write export failed", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "path", *out, "rows", len(results.snapshot()))
}
