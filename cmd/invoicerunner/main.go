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
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/invoice-runner/internal/domain/clients"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/service"
	"github.com/FACorreiaa/invoice-runner/pkg/config"
)

const usage = `SmartInvoiceRunner - carrier invoice batch processor

Usage:
  invoicerunner run [-inbox PATH] [-out DIR]   process the inbox once
  invoicerunner watch [-now]                   process on the cron schedule
  invoicerunner clients search <query>         full-text search of the client map
  invoicerunner clients suggest <reference>    closest client-map entries
  invoicerunner version                        print the version

Configuration comes from the environment (a .env file is honored).
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runBatch(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "clients":
		err = runClients(os.Args[2:])
	case "version":
		fmt.Println(service.Version)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invoicerunner: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// runBatch processes the inbox once and prints the status line.
func runBatch(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	inbox := fs.String("inbox", "", "file or directory of invoice PDFs (overrides INBOX_PATH)")
	out := fs.String("out", "", "report output directory (overrides OUTPUT_DIR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *inbox != "" {
		cfg.Ingest.InboxPath = *inbox
	}
	if *out != "" {
		cfg.Ingest.OutputDir = *out
	}

	logger := newLogger()
	logger.Info("invoice runner starting", slog.String("version", service.Version))

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := deps.Batch.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary.StatusLine())
	for _, e := range result.Summary.Errors {
		fmt.Fprintln(os.Stderr, e)
	}
	return nil
}

// runWatch keeps the process alive and re-runs the batch on the
// configured schedule until interrupted.
func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	now := fs.Bool("now", false, "run one batch immediately on startup")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()
	logger.Info("invoice runner starting", slog.String("version", service.Version))

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	if cfg.Observability.MetricsEnabled {
		go serveMetrics(cfg.Observability.MetricsPort, logger)
	}

	if err := deps.Scheduler.Start(); err != nil {
		return err
	}
	if *now {
		deps.Scheduler.RunNow()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	// Let an in-flight batch finish before exiting.
	<-deps.Scheduler.Stop().Done()
	return nil
}

func serveMetrics(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics server listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", slog.Any("error", err))
	}
}

// runClients answers search and suggest queries against the client map.
func runClients(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: invoicerunner clients <search|suggest> <query>")
	}
	sub, query := args[0], strings.Join(args[1:], " ")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Ingest.ClientMapPath == "" {
		return errors.New("CLIENT_MAP_PATH is not set")
	}

	m, stats, err := clients.LoadFile(cfg.Ingest.ClientMapPath)
	if err != nil {
		return err
	}
	fmt.Printf("%d references loaded (%d rows read)\n", m.Len(), stats.RowsRead)

	switch sub {
	case "search":
		idx, err := clients.NewSearchIndex()
		if err != nil {
			return err
		}
		defer idx.Close()
		if err := idx.IndexMap(m); err != nil {
			return err
		}

		results, err := idx.Search(query, 10)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%-28s %-14s score %.2f\n", r.Reference, r.Code, r.Score)
		}
	case "suggest":
		suggestions := m.Suggest(query, 5)
		if len(suggestions) == 0 {
			fmt.Println("no suggestions")
			return nil
		}
		for _, s := range suggestions {
			fmt.Printf("%-28s %-14s score %3d distance %d\n", s.Reference, s.Code, s.Score, s.Distance)
		}
	default:
		return fmt.Errorf("unknown clients command %q", sub)
	}
	return nil
}
