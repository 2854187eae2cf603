package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-extractor/internal/api"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/metrics"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/insightdelivered/statement-extractor/internal/store"
	"github.com/insightdelivered/statement-extractor/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	modeFlag := flag.String("mode", "auto", "Statement type: bank, credit or auto")
	formatFlag := flag.String("format", "csv", "Output format: csv, xlsx or json")
	outputFlag := flag.String("output", "", "Output file path (defaults to input filename with the format's extension)")
	headerFlag := flag.Bool("header", true, "Include account metadata and summary rows in CSV")
	debugFlag := flag.Bool("debug", false, "Include the per-line parse trace in JSON output")
	envFlag := flag.String("env", ".env", "Environment file with STMT_* settings")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Extractor
by Insight Delivered (QEA AutoLens)

Extracts account details, transactions and balance summaries from bank
and credit-card statements (text PDFs, scanned PDFs, images or plain text).

Usage:
  statement-extractor [flags] <statement> [statement2 ...]
  statement-extractor -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect statement type and write CSV
  statement-extractor statement.pdf

  # Credit-card statement to Excel
  statement-extractor -mode=credit -format=xlsx card.pdf

  # Scanned statement to JSON with the parse trace
  statement-extractor -format=json -debug scan.png

  # Start the API (settings from STMT_* environment variables)
  statement-extractor -serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-extractor v%s\n", version)
		os.Exit(0)
	}

	// Usage needs no configuration, so a broken .env cannot hide it.
	if showUsage(*helpFlag, *serveFlag, flag.NArg()) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(*envFlag)
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fatalf("Logger error: %v\n", err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	loader := extractor.Loader{}
	if extractor.IsOCRAvailable() {
		loader.OCR = extractor.NewTesseractOCR(cfg.OCR)
	} else {
		logger.Warn("pdftoppm not found; scanned documents cannot be read")
	}

	if *serveFlag {
		if err := serve(cfg, loader, logger); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	var mode models.StatementMode
	if m := strings.ToLower(*modeFlag); m != "auto" {
		var ok bool
		if mode, ok = models.ParseMode(m); !ok {
			fatalf("Unknown mode %q. Supported: bank, credit, auto\n", *modeFlag)
		}
	}
	w, err := writer.New(*formatFlag, *headerFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	inputFiles := flag.Args()
	if *outputFlag != "" && len(inputFiles) > 1 {
		fatalf("-output can only be used with a single input file\n")
	}

	for _, inputPath := range inputFiles {
		opts := fileOptions{mode: mode, output: *outputFlag, debug: *debugFlag}
		if err := processFile(context.Background(), loader, w, inputPath, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

// showUsage reports whether the invocation only asks for help: -help, or
// no input files outside server mode.
func showUsage(help, serve bool, nargs int) bool {
	return help || (!serve && nargs == 0)
}

type fileOptions struct {
	mode   models.StatementMode // empty detects per file
	output string
	debug  bool
}

func processFile(ctx context.Context, loader extractor.Loader, w writer.Writer, inputPath string, opts fileOptions) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if !extractor.SupportedExtension(inputPath) {
		return fmt.Errorf("unsupported file type %q", filepath.Ext(inputPath))
	}

	fmt.Printf("Processing: %s\n", inputPath)

	doc, err := loader.Load(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("text extraction failed: %w", err)
	}
	fmt.Printf("  Extracted text from %d page(s) via %s\n", len(doc.Pages), doc.Method)
	if doc.Method == extractor.MethodOCR {
		fmt.Printf("  OCR confidence: %.1f%%\n", doc.Confidence)
	}

	text := doc.Text()
	mode := opts.mode
	if mode == "" {
		mode = parser.AutoDetect(text)
		fmt.Printf("  Auto-detected statement type: %s\n", mode)
	}

	p, err := parser.New(mode, parser.Options{Debug: opts.debug})
	if err != nil {
		return err
	}
	stmt := p.Parse(text)

	fmt.Printf("  Found %d transaction(s)\n", len(stmt.Transactions))
	if len(stmt.Transactions) == 0 {
		fmt.Println("  Warning: No transactions found. The layout may not match expected patterns.")
		fmt.Println("  Try -mode=bank or -mode=credit if auto-detection was used.")
	}

	outPath := opts.output
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + w.Extension()
	}
	if err := writer.WriteToFile(w, outPath, &stmt); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)

	// Print summary
	if stmt.BankName != "" {
		fmt.Printf("  Bank: %s\n", stmt.BankName)
	}
	if stmt.AccountHolder != "" {
		fmt.Printf("  Account holder: %s\n", stmt.AccountHolder)
	}
	if stmt.AccountNumber != "" {
		fmt.Printf("  Account number: %s\n", stmt.AccountNumber)
	}
	if stmt.StatementPeriod != "" {
		fmt.Printf("  Period: %s\n", stmt.StatementPeriod)
	}
	s := stmt.Summary
	fmt.Printf("  Opening %s  Closing %s  Credits %s  Debits %s\n",
		s.OpeningBalance.StringFixed(2), s.ClosingBalance.StringFixed(2),
		s.TotalCredits.StringFixed(2), s.TotalDebits.StringFixed(2))

	fmt.Println("  Done.")
	return nil
}

func serve(cfg *config.Config, loader extractor.Loader, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	var (
		collector metrics.Collector = metrics.NoOpCollector{}
		gatherer  prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		pc := metrics.NewPrometheusCollector(cfg.Metrics.Namespace)
		if err := pc.Register(registry); err != nil {
			return err
		}
		collector, gatherer = pc, registry
	}

	api.Version = version
	h := &api.Handler{Loader: loader, Store: st, Metrics: collector, Log: logger.Named("api")}
	app := api.NewApp(h, api.ServerOptions{Server: cfg.Server, Gatherer: gatherer})

	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(cfg.Server.Port) }()
	logger.Info("server started",
		zap.String("addr", cfg.Server.Port),
		zap.String("db", cfg.DB.Driver),
		zap.Bool("ocr", loader.OCR != nil))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
