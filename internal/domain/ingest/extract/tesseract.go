package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRunner is the default OCRRunner. Pages are rasterized to PNG
// through pdftoppm and fed to a gosseract client one at a time.
type TesseractRunner struct {
	clientFactory func() *gosseract.Client
	language      string
	dpi           int
	rasterizer    string
}

// NewTesseractRunner builds a runner with English recognition at 300
// dpi, the setting scanned carrier invoices need to keep digit runs
// intact.
func NewTesseractRunner() *TesseractRunner {
	return &TesseractRunner{
		clientFactory: gosseract.NewClient,
		language:      "eng",
		dpi:           300,
		rasterizer:    "pdftoppm",
	}
}

// WithLanguage sets the recognition language.
func (r *TesseractRunner) WithLanguage(lang string) *TesseractRunner {
	if lang != "" {
		r.language = lang
	}
	return r
}

// WithDPI sets the rasterization and recognition density.
func (r *TesseractRunner) WithDPI(dpi int) *TesseractRunner {
	if dpi > 0 {
		r.dpi = dpi
	}
	return r
}

// WithRasterizer overrides the pdftoppm binary path.
func (r *TesseractRunner) WithRasterizer(path string) *TesseractRunner {
	if path != "" {
		r.rasterizer = path
	}
	return r
}

// Run rasterizes every page of the PDF and concatenates the recognized
// text, one page per block.
func (r *TesseractRunner) Run(ctx context.Context, pdfPath string) (string, error) {
	pages, err := r.rasterize(ctx, pdfPath)
	if err != nil {
		return "", err
	}

	c := r.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(r.language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(r.dpi)); err != nil {
		return "", fmt.Errorf("set dpi: %w", err)
	}

	parts := make([]string, 0, len(pages))
	for i, img := range pages {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if err := c.SetImageFromBytes(img); err != nil {
			return "", fmt.Errorf("set image for page %d: %w", i+1, err)
		}
		text, err := c.Text()
		if err != nil {
			return "", fmt.Errorf("recognize page %d: %w", i+1, err)
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, "\n"), nil
}

// rasterize renders the PDF to per-page PNGs in a scratch directory and
// returns them in page order. pdftoppm zero-pads page numbers, so a
// lexicographic sort is page order.
func (r *TesseractRunner) rasterize(ctx context.Context, pdfPath string) ([][]byte, error) {
	dir, err := os.MkdirTemp("", "invoice-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, r.rasterizer, "-png", "-r", strconv.Itoa(r.dpi), pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", r.rasterizer, err, bytes.TrimSpace(out))
	}

	names, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	pages := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read page image: %w", err)
		}
		pages = append(pages, data)
	}
	if len(pages) == 0 {
		return nil, errors.New("rasterizer produced no pages")
	}
	return pages, nil
}
