package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/invoice-runner/internal/domain/clients"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/extract"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/service"
	"github.com/FACorreiaa/invoice-runner/pkg/config"
	"github.com/FACorreiaa/invoice-runner/pkg/cron"
	"github.com/FACorreiaa/invoice-runner/pkg/diag"
	"github.com/FACorreiaa/invoice-runner/pkg/notify"
	"github.com/FACorreiaa/invoice-runner/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Ingest collaborators
	ClientMap   *clients.Map
	Extractor   *extract.Extractor
	Diagnostics diag.Sink
	Archive     storage.Storage
	Notifier    *notify.Notifier

	// Services
	Batch     *service.BatchService
	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize the client map
	if err := deps.initClientMap(); err != nil {
		return nil, fmt.Errorf("failed to init client map: %w", err)
	}

	// Initialize the text extractor
	if err := deps.initExtractor(); err != nil {
		return nil, fmt.Errorf("failed to init extractor: %w", err)
	}

	// Initialize diagnostics sinks
	if err := deps.initDiagnostics(); err != nil {
		return nil, fmt.Errorf("failed to init diagnostics: %w", err)
	}

	// Initialize the report archive
	if err := deps.initArchive(); err != nil {
		return nil, fmt.Errorf("failed to init archive: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initClientMap loads the reference-to-code table when one is configured.
func (d *Dependencies) initClientMap() error {
	if d.Config.Ingest.ClientMapPath == "" {
		d.Logger.Info("no client map configured, client codes stay empty")
		return nil
	}

	m, stats, err := clients.LoadFile(d.Config.Ingest.ClientMapPath)
	if err != nil {
		return err
	}
	d.ClientMap = m

	d.Logger.Info("client map loaded",
		slog.String("path", d.Config.Ingest.ClientMapPath),
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("pairs_mapped", stats.PairsMapped),
		slog.Int("entries", m.Len()),
	)
	return nil
}

// initExtractor builds the PDF text extractor, with OCR when enabled.
func (d *Dependencies) initExtractor() error {
	d.Extractor = extract.NewExtractor().WithLogger(d.Logger)

	if d.Config.OCR.Enabled {
		runner := extract.NewTesseractRunner().
			WithLanguage(d.Config.OCR.Language).
			WithDPI(d.Config.OCR.DPI).
			WithRasterizer(d.Config.OCR.Rasterizer)
		d.Extractor = d.Extractor.WithOCR(runner)
	}

	d.Logger.Info("extractor initialized", slog.Bool("ocr", d.Config.OCR.Enabled))
	return nil
}

// initDiagnostics wires parser events to the log and, when metrics are
// enabled, to Prometheus counters.
func (d *Dependencies) initDiagnostics() error {
	sinks := []diag.Sink{diag.NewLogSink(d.Logger)}
	if d.Config.Observability.MetricsEnabled {
		sinks = append(sinks, diag.NewPromSink(prometheus.DefaultRegisterer))
	}
	d.Diagnostics = diag.Multi(sinks...)

	d.Logger.Info("diagnostics initialized", slog.Bool("metrics", d.Config.Observability.MetricsEnabled))
	return nil
}

// initArchive builds the report archive backend when enabled.
func (d *Dependencies) initArchive() error {
	if !d.Config.Archive.Enabled {
		return nil
	}

	archive, err := storage.New(&storage.Config{
		Type:       storage.StorageType(d.Config.Archive.Type),
		LocalPath:  d.Config.Archive.Dir,
		S3Bucket:   d.Config.Archive.S3Bucket,
		S3Region:   d.Config.Archive.S3Region,
		S3Endpoint: d.Config.Archive.S3Endpoint,
	})
	if err != nil {
		return err
	}
	d.Archive = archive

	d.Logger.Info("archive initialized", slog.String("type", d.Config.Archive.Type))
	return nil
}

// initServices builds the batch service and its scheduler.
func (d *Dependencies) initServices() error {
	if d.Config.Notify.To != "" {
		var to []string
		for _, addr := range strings.Split(d.Config.Notify.To, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				to = append(to, addr)
			}
		}
		d.Notifier = notify.NewNotifier(d.Config.Notify.ResendAPIKey, d.Config.Notify.From, to, d.Logger)
	}

	d.Batch = service.NewBatchService(d.Extractor, d.Config.Ingest.InboxPath, d.Config.Ingest.OutputDir, d.Logger).
		WithDiagnostics(d.Diagnostics)
	if d.ClientMap != nil {
		d.Batch = d.Batch.WithClientMap(d.ClientMap)
	}
	if d.Notifier != nil {
		d.Batch = d.Batch.WithNotifier(d.Notifier)
	}
	if d.Archive != nil {
		d.Batch = d.Batch.WithArchive(d.Archive)
	}

	d.Scheduler = cron.NewScheduler(d.Batch, d.Config.Watch.Schedule, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// Cleanup releases resources held by the dependencies.
func (d *Dependencies) Cleanup() {
	d.Logger.Info("cleanup completed")
}
