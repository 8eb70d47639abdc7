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
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aluiziolira/go-etl-books/config"
	"github.com/aluiziolira/go-etl-books/crawler"
	"github.com/aluiziolira/go-etl-books/fetch"
	"github.com/aluiziolira/go-etl-books/images"
	"github.com/aluiziolira/go-etl-books/metrics"
	"github.com/aluiziolira/go-etl-books/models"
	"github.com/aluiziolira/go-etl-books/pipeline"
)

func main() {
	defaultCfg := config.DefaultConfig()

	baseDefault := defaultCfg.BaseURL
	if value, ok := config.EnvString("ETL_BASE_URL"); ok {
		baseDefault = value
	}
	outputDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("ETL_OUTPUT_DIR"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("ETL_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	timeoutDefault := int(defaultCfg.Timeout / time.Second)
	if value, ok, err := config.EnvInt("ETL_TIMEOUT_SECONDS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid ETL_TIMEOUT_SECONDS: %v\n", err)
		os.Exit(1)
	} else if ok {
		timeoutDefault = value
	}

	baseURL := flag.String("base-url", baseDefault, "Catalog homepage URL")
	outputDir := flag.String("output", outputDefault, "Output directory root")
	timeoutSec := flag.Int("timeout", timeoutDefault, "Fetch timeout (seconds)")
	delayMs := flag.Int("delay", 0, "Politeness delay between requests (milliseconds)")
	pagePolicy := flag.String("page-policy", defaultCfg.PagePolicy, "Mid-category page failure policy: abort or truncate")
	category := flag.String("category", "", "Crawl only this category (sidebar name)")
	format := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, jsonl, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	logFile := flag.String("log-file", "", "Log file path (default <output>/logs/etl.log, empty string for default)")
	noLogFile := flag.Bool("no-log-file", false, "Disable the log file sink")
	progress := flag.Bool("progress", true, "Show a category progress bar on a terminal")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.OutputDir = *outputDir
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.Delay = time.Duration(*delayMs) * time.Millisecond
	cfg.PagePolicy = strings.ToLower(*pagePolicy)
	cfg.Category = *category
	cfg.OutputFormat = strings.ToLower(*format)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	switch {
	case *noLogFile:
		cfg.LogFile = ""
	case *logFile != "":
		cfg.LogFile = *logFile
	default:
		cfg.LogFile = filepath.Join(cfg.OutputDir, "logs", "etl.log")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, level, closeLog := newLogger(cfg.Verbose, cfg.LogFile)
	defer closeLog()
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.String("output_dir", cfg.OutputDir),
		slog.String("page_policy", cfg.PagePolicy),
	)

	m := metrics.New()

	client, err := fetch.New(cfg, m)
	if err != nil {
		slog.Error("initialising fetch client", slog.Any("error", err))
		os.Exit(1)
	}

	acquirer := images.NewAcquirer(client, cfg.ImagesDir(), m)

	c, err := crawler.New(cfg, client, acquirer, m)
	if err != nil {
		slog.Error("initialising crawler", slog.Any("error", err))
		os.Exit(1)
	}

	p := pipeline.New(createFactory(cfg.OutputFormat, cfg.OutputDir), m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current page")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	var bar *progressbar.ProgressBar
	if *progress && !cfg.Verbose && isTerminal(os.Stderr) {
		c.OnCategoryDone = func(index, total int, name string) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("categories"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
			}
			bar.Add(1)
		}
	}

	result, err := c.Run(ctx, p)
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputDir)
}

func createFactory(format, dir string) pipeline.WriterFactory {
	switch format {
	case "jsonl":
		return pipeline.JSONLFactory(dir)
	case "dual":
		return pipeline.DualFactory(dir)
	default:
		return pipeline.CSVFactory(dir)
	}
}

func printSummary(result *models.RunResult, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")
	fmt.Printf("  Categories:      %d\n", result.Categories)
	fmt.Printf("  Total records:   %d\n", result.TotalRecords)
	fmt.Printf("  Images saved:    %d\n", result.ImagesSaved)
	fmt.Printf("  Skipped products:%d\n", result.SkippedProducts)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:     %v\n", result.ErrorsByType)
	}
	if len(result.FailedURLs) > 0 {
		fmt.Printf("  Failed URLs:     %d\n", len(result.FailedURLs))
	}
	fmt.Printf("  Duration:        %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Printf("  Output dir:      %s\n", outputDir)
	fmt.Println(separator)
}

// newLogger builds the run logger: text on a terminal, JSON otherwise, plus
// a rotating file sink when logPath is set.
func newLogger(verbose bool, logPath string) (*slog.Logger, *slog.LevelVar, func()) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if isTerminal(os.Stdout) {
		console = slog.NewTextHandler(os.Stdout, opts)
	} else {
		console = slog.NewJSONHandler(os.Stdout, opts)
	}

	if logPath == "" {
		return slog.New(console), level, func() {}
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create log directory: %v\n", err)
		return slog.New(console), level, func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: slog.LevelDebug})

	handler := fanoutHandler{console, fileHandler}
	return slog.New(handler), level, func() { rotator.Close() }
}

// fanoutHandler duplicates records to every wrapped handler.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
