// Package extract pulls text out of invoice PDFs. It prefers the
// embedded text layer and falls back to OCR for scanned documents.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/normalizer"
)

// MaxFileMB is the size ceiling for input PDFs. Larger files are
// rejected before any bytes are read.
const MaxFileMB = 50

// meaningfulTextMin separates a real text layer from the stray
// artifacts a scanned page tends to carry.
const meaningfulTextMin = 60

var (
	// ErrFileTooLarge marks a file rejected by the size ceiling.
	ErrFileTooLarge = errors.New("pdf exceeds size limit")
	// ErrNoTextLayer marks a file whose text layer and OCR pass both
	// came up short. The partial text is still returned alongside it.
	ErrNoTextLayer = errors.New("pdf has no usable text layer")
)

// ExtractError locates an extraction failure by file and stage for
// batch error reporting.
type ExtractError struct {
	File  string
	Stage string
	Err   error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.File, e.Stage, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// OCRRunner recognizes text on scanned PDFs. Implementations own page
// rasterization and recognition; the extractor treats them as a black
// box.
type OCRRunner interface {
	Run(ctx context.Context, pdfPath string) (string, error)
}

// Source records which pass produced the extracted text.
type Source string

const (
	SourceTextLayer Source = "text_layer"
	SourceOCR       Source = "ocr"
	SourceNone      Source = "none"
)

// Result is the outcome of one extraction. Text is always normalized.
type Result struct {
	Text   string
	Source Source
	Pages  int
}

// Extractor reads invoice PDFs into parser-ready text.
type Extractor struct {
	normalizer *normalizer.TextNormalizer
	ocr        OCRRunner
	logger     *slog.Logger
	maxBytes   int64
}

// NewExtractor builds an extractor with the default size ceiling and no
// OCR runner.
func NewExtractor() *Extractor {
	return &Extractor{
		normalizer: normalizer.NewTextNormalizer(),
		logger:     slog.Default(),
		maxBytes:   MaxFileMB << 20,
	}
}

// WithOCR sets the runner used when the text layer comes up short.
func (e *Extractor) WithOCR(r OCRRunner) *Extractor {
	e.ocr = r
	return e
}

// WithLogger sets the logger.
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithMaxFileSize overrides the size ceiling, in bytes.
func (e *Extractor) WithMaxFileSize(n int64) *Extractor {
	if n > 0 {
		e.maxBytes = n
	}
	return e
}

// Extract reads the PDF at path and returns its text. The text layer
// wins when it holds enough characters; otherwise the OCR runner gets a
// chance. When both come up short the partial text is returned together
// with ErrNoTextLayer so the caller can decide whether scraps are worth
// parsing.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, &ExtractError{File: filepath.Base(path), Stage: "stat", Err: err}
	}
	if info.Size() > e.maxBytes {
		return Result{}, &ExtractError{
			File:  filepath.Base(path),
			Stage: "size",
			Err:   fmt.Errorf("%w (%d bytes, limit %d)", ErrFileTooLarge, info.Size(), e.maxBytes),
		}
	}

	raw, pages, err := readTextLayer(path)
	if err != nil {
		e.logger.Debug("text layer unreadable",
			slog.String("file", filepath.Base(path)),
			slog.Any("error", err))
		raw = ""
	}

	if hasMeaningfulText(raw) {
		return Result{Text: e.normalizer.Normalize(raw), Source: SourceTextLayer, Pages: pages}, nil
	}

	if e.ocr != nil {
		ocrText, ocrErr := e.ocr.Run(ctx, path)
		switch {
		case ocrErr != nil:
			e.logger.Warn("ocr failed",
				slog.String("file", filepath.Base(path)),
				slog.Any("error", ocrErr))
		case hasMeaningfulText(ocrText):
			return Result{Text: e.normalizer.Normalize(ocrText), Source: SourceOCR, Pages: pages}, nil
		}
	}

	return Result{Text: e.normalizer.Normalize(raw), Source: SourceNone, Pages: pages}, ErrNoTextLayer
}

// readTextLayer extracts the native text layer page by page. The pdf
// library panics on some malformed files; that is treated the same as
// an unreadable text layer.
func readTextLayer(path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(f)
	if err != nil {
		return "", 0, err
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), size)
	if err != nil {
		return "", 0, err
	}

	var b strings.Builder
	pages = pdfReader.NumPage()
	for i := 1; i <= pages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String(), pages, nil
}

// hasMeaningfulText reports whether extracted text is long enough to
// skip OCR.
func hasMeaningfulText(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= meaningfulTextMin
}
