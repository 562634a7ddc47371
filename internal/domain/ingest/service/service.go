// Package service runs invoice batches end to end: discover PDFs,
// extract text, parse rows, export reports, archive, and notify.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/invoice-runner/internal/domain/clients"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/extract"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/parser"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/sniffer"
	"github.com/FACorreiaa/invoice-runner/internal/domain/report"
	"github.com/FACorreiaa/invoice-runner/pkg/diag"
	"github.com/FACorreiaa/invoice-runner/pkg/notify"
	"github.com/FACorreiaa/invoice-runner/pkg/storage"
)

// Version identifies the runner build in logs, exports, and emails.
const Version = "SmartInvoiceRunner v3.2"

// Report files written into the output directory on every run.
const (
	csvFileName  = "invoice_rows.csv"
	xlsxFileName = "invoice_rows.xlsx"
)

var tracer = otel.Tracer("github.com/FACorreiaa/invoice-runner/internal/domain/ingest/service")

// TextExtractor pulls text out of a PDF on disk.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

// BatchService processes an inbox of invoice PDFs into report files.
// Each run gets its own parser engine and diagnostic counters so
// back-to-back runs never share state.
type BatchService struct {
	extractor   TextExtractor
	detector    *sniffer.Detector
	clientMap   *clients.Map
	diagnostics diag.Sink
	notifier    *notify.Notifier
	archive     storage.Storage
	logger      *slog.Logger
	inboxPath   string
	outputDir   string
}

// NewBatchService creates a batch service over the given inbox. The
// inbox may be a single PDF or a directory of PDFs.
func NewBatchService(extractor TextExtractor, inboxPath, outputDir string, logger *slog.Logger) *BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchService{
		extractor: extractor,
		detector:  sniffer.NewDetector(),
		logger:    logger,
		inboxPath: inboxPath,
		outputDir: outputDir,
	}
}

// WithClientMap sets the client map used to resolve customer references
// to client codes and to suggest fixes for the ones that miss.
func (s *BatchService) WithClientMap(m *clients.Map) *BatchService {
	s.clientMap = m
	return s
}

// WithDiagnostics adds a sink that receives parser events on top of the
// per-run counters.
func (s *BatchService) WithDiagnostics(sink diag.Sink) *BatchService {
	s.diagnostics = sink
	return s
}

// WithNotifier enables the run summary email.
func (s *BatchService) WithNotifier(n *notify.Notifier) *BatchService {
	s.notifier = n
	return s
}

// WithArchive enables archiving of the report files after each run.
func (s *BatchService) WithArchive(st storage.Storage) *BatchService {
	s.archive = st
	return s
}

// RunResult reports one batch run.
type RunResult struct {
	RunID    uuid.UUID
	Rows     []parser.Row
	Summary  report.Summary
	Drops    int // parser diagnostics recorded during the run
	CSVPath  string
	XLSXPath string
	Duration time.Duration
}

// Run processes every PDF in the inbox and writes the report files.
// Per-file failures land in the summary's error list and never abort
// the batch; only an unreadable inbox or a cancelled context does.
func (s *BatchService) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New()

	ctx, span := tracer.Start(ctx, "batch.run", trace.WithAttributes(
		attribute.String("run_id", runID.String()),
		attribute.String("inbox", s.inboxPath),
	))
	defer span.End()

	files, err := discoverFiles(s.inboxPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info("starting batch run",
		slog.String("run_id", runID.String()),
		slog.String("inbox", s.inboxPath),
		slog.Int("files", len(files)),
	)

	// Fresh engine and counters per run. The shared sink, when set,
	// still sees every event.
	counter := diag.NewCounterSink()
	sink := diag.Sink(counter)
	if s.diagnostics != nil {
		sink = diag.Multi(counter, s.diagnostics)
	}
	engineCfg := parser.Config{Diagnostics: sink}
	if s.clientMap != nil {
		engineCfg.Resolver = s.clientMap
	}
	engine := parser.NewEngine(engineCfg)

	summary := report.Summary{Version: Version, Files: len(files)}
	var allRows []parser.Row

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch aborted")
			return nil, err
		}

		rows, detected, skipped, err := s.processFile(ctx, engine, path)
		switch {
		case skipped:
			summary.Skipped++
		case err != nil:
			if detected != nil {
				countVendor(&summary, *detected)
			}
			summary.Errors = append(summary.Errors, fileErrorString(path, err))
		default:
			countVendor(&summary, *detected)
			allRows = append(allRows, rows...)
		}
	}

	summary.Rows = len(allRows)
	summary.InvoiceTotals = report.TotalsByInvoice(allRows)
	summary.VendorTotals = report.TotalsByVendor(allRows)

	s.suggestUnresolved(allRows)

	var csvPath, xlsxPath string
	if len(allRows) > 0 {
		csvPath, xlsxPath = s.export(allRows, &summary)
	} else {
		s.logger.Info("no rows extracted, skipping export", slog.String("run_id", runID.String()))
	}

	if s.archive != nil && csvPath != "" {
		s.archiveReports(ctx, runID, &summary, csvPath, xlsxPath)
	}

	duration := time.Since(start)
	s.logger.Info(summary.StatusLine(),
		slog.String("run_id", runID.String()),
		slog.String("version", Version),
		slog.Duration("duration", duration),
		slog.Int("diagnostics", counter.Total()),
	)

	if s.notifier != nil {
		if err := s.notifier.SendRunSummary(buildMail(runID, summary, duration)); err != nil {
			s.logger.Error("failed to send run summary email",
				slog.String("run_id", runID.String()),
				slog.Any("error", err))
		}
	}

	span.SetAttributes(
		attribute.Int("files", summary.Files),
		attribute.Int("rows", summary.Rows),
		attribute.Int("errors", len(summary.Errors)),
	)

	return &RunResult{
		RunID:    runID,
		Rows:     allRows,
		Summary:  summary,
		Drops:    counter.Total(),
		CSVPath:  csvPath,
		XLSXPath: xlsxPath,
		Duration: duration,
	}, nil
}

// processFile extracts and parses one PDF. The detection result comes
// back whenever text was extracted, even if parsing then failed, so the
// caller can keep vendor counts aligned with what the detector saw.
func (s *BatchService) processFile(ctx context.Context, engine *parser.Engine, path string) ([]parser.Row, *sniffer.Result, bool, error) {
	name := filepath.Base(path)
	ctx, span := tracer.Start(ctx, "batch.file", trace.WithAttributes(
		attribute.String("file", name),
	))
	defer span.End()

	res, err := s.extractor.Extract(ctx, path)
	switch {
	case errors.Is(err, extract.ErrFileTooLarge):
		s.logger.Warn("skipping oversized file",
			slog.String("file", name),
			slog.Any("error", err))
		span.SetAttributes(attribute.Bool("skipped", true))
		return nil, nil, true, nil
	case errors.Is(err, extract.ErrNoTextLayer):
		// Scraps may still parse; the empty-text case fails below.
		s.logger.Warn("no usable text layer",
			slog.String("file", name),
			slog.String("source", string(res.Source)))
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, false, err
	}

	detected := s.detector.Detect(res.Text)

	rows, err := engine.Parse(res.Text, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &detected, false, err
	}

	// A committed courier statement the block routine could not read gets
	// the line-oriented recovery when the text did not come from a clean
	// text layer.
	if len(rows) == 0 && detected.IsLightning() && res.Source != extract.SourceTextLayer {
		if orders := parser.ParseOrders(res.Text, name); len(orders) > 0 {
			rows = parser.OrdersToRows(orders, res.Text)
			s.resolveRows(rows)
			s.logger.Debug("recovered courier orders line by line",
				slog.String("file", name),
				slog.Int("orders", len(orders)))
		}
	}

	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.String("source", string(res.Source)),
	)
	s.logger.Debug("file parsed",
		slog.String("file", name),
		slog.Int("rows", len(rows)),
		slog.String("source", string(res.Source)),
	)
	return rows, &detected, false, nil
}

// export writes the CSV and Excel reports. Failures go into the summary
// error list rather than aborting the run, so the status line and email
// still report what parsing produced.
func (s *BatchService) export(rows []parser.Row, summary *report.Summary) (csvPath, xlsxPath string) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", s.outputDir, err))
		return "", ""
	}

	exportRows := report.FromParserRows(rows)

	csvPath = filepath.Join(s.outputDir, csvFileName)
	if err := report.SaveCSV(csvPath, exportRows); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", csvFileName, err))
		csvPath = ""
	}

	xlsxPath = filepath.Join(s.outputDir, xlsxFileName)
	if err := report.SaveXLSXReport(xlsxPath, exportRows, *summary); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", xlsxFileName, err))
		xlsxPath = ""
	}
	return csvPath, xlsxPath
}

// archiveReports uploads the report files under the run's ID.
func (s *BatchService) archiveReports(ctx context.Context, runID uuid.UUID, summary *report.Summary, csvPath, xlsxPath string) {
	uploads := []struct {
		path        string
		name        string
		contentType string
	}{
		{csvPath, csvFileName, "text/csv"},
		{xlsxPath, xlsxFileName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}

	for _, u := range uploads {
		if u.path == "" {
			continue
		}
		f, err := os.Open(u.path)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("archive %s: %v", u.name, err))
			continue
		}
		info, err := s.archive.Upload(ctx, runID, u.name, u.contentType, f)
		f.Close()
		if err != nil {
			s.logger.Warn("failed to archive report",
				slog.String("file", u.name),
				slog.Any("error", err))
			summary.Errors = append(summary.Errors, fmt.Sprintf("archive %s: %v", u.name, err))
			continue
		}
		s.logger.Debug("report archived",
			slog.String("file", u.name),
			slog.String("file_id", info.ID.String()),
			slog.Int64("size", info.Size))
	}
}

// resolveRows fills client codes for rows produced outside the engine.
func (s *BatchService) resolveRows(rows []parser.Row) {
	if s.clientMap == nil {
		return
	}
	for i := range rows {
		if rows[i].CustomerReference != "" {
			rows[i].ClientCode = s.clientMap.Resolve(rows[i].CustomerReference)
		}
	}
}

// suggestUnresolved logs the closest client-map candidate for each
// reference that did not resolve, giving operators a lead for fixing
// the map.
func (s *BatchService) suggestUnresolved(rows []parser.Row) {
	if s.clientMap == nil {
		return
	}
	seen := make(map[string]bool)
	for _, r := range rows {
		if r.CustomerReference == "" || r.ClientCode != "" || seen[r.CustomerReference] {
			continue
		}
		seen[r.CustomerReference] = true
		if sug := s.clientMap.Suggest(r.CustomerReference, 1); len(sug) > 0 {
			s.logger.Debug("unresolved reference",
				slog.String("reference", r.CustomerReference),
				slog.String("closest", sug[0].Reference),
				slog.String("code", sug[0].Code),
				slog.Int("score", sug[0].Score),
			)
		}
	}
}

func countVendor(summary *report.Summary, detected sniffer.Result) {
	switch {
	case detected.IsFedEx():
		summary.FedExFiles++
	case detected.IsLightning():
		summary.LightningFiles++
	default:
		summary.OtherFiles++
	}
}

// fileErrorString renders one per-file error for the run summary.
// Extraction errors already name the file and stage; everything else
// gets the base name prefixed.
func fileErrorString(path string, err error) string {
	var exErr *extract.ExtractError
	if errors.As(err, &exErr) && exErr.File != "" {
		return exErr.Error()
	}
	return fmt.Sprintf("%s: %v", filepath.Base(path), err)
}

// buildMail maps the run summary onto the email payload. Totals without
// an invoice ID stay out of the email, matching the status line.
func buildMail(runID uuid.UUID, summary report.Summary, duration time.Duration) notify.RunSummary {
	mail := notify.RunSummary{
		RunID:          runID.String(),
		Version:        Version,
		FinishedAt:     time.Now(),
		Duration:       duration,
		Files:          summary.Files,
		FedExFiles:     summary.FedExFiles,
		LightningFiles: summary.LightningFiles,
		OtherFiles:     summary.OtherFiles,
		Rows:           summary.Rows,
		Errors:         summary.Errors,
	}
	for _, t := range summary.InvoiceTotals {
		if t.InvoiceID == "" {
			continue
		}
		mail.Totals = append(mail.Totals, notify.InvoiceTotal{InvoiceID: t.InvoiceID, Amount: t.Total})
	}
	return mail
}

// discoverFiles accepts a single file as-is or lists a directory for
// PDFs. The listing is not recursive.
func discoverFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inbox %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	return files, nil
}
