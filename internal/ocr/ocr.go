// Package ocr turns vehicle photos into plain text with tesseract. It knows
// nothing about VINs, odometers or plates; callers hand the text to the
// extraction package.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/common"
)

// MethodImageOCR labels text produced by tesseract from a photo.
const MethodImageOCR = "image-ocr"

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // 0 leaves tesseract's default page segmentation

	HeicConverter       string // heif-convert | magick | sips
	ArtifactCacheDir    string
	EnableTSVConfidence bool
}

// TextResult is what a photo yielded.
type TextResult struct {
	Text       string
	SourceType string // constants.IMAGE or constants.TEXT
	Method     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	// Confidence is the mean tesseract word confidence in 0..1. It is only
	// meaningful when ConfidenceMeasured is set.
	Confidence         float32
	ConfidenceMeasured bool
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRunner replaces the os/exec runner, typically with a stub in tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract runs OCR over the photo at path.
func (e *Extractor) Extract(ctx context.Context, path string) (TextResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting ocr extraction", "path", path, "ext", ext)

	if constants.MapExtToFormat(ext) != constants.IMAGE {
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return TextResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}

	var warns []string
	if constants.IsHEICExt(ext) {
		out, w, cleanup, err := e.convertHEIC(ctx, path)
		warns = append(warns, w...)
		if err != nil {
			e.logger.Error("heic conversion failed", "path", path, "error", err)
			return TextResult{SourceType: constants.IMAGE, Warnings: warns}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		path = out
	}

	res, err := e.extractImage(ctx, path)
	res.Duration = time.Since(start)
	res.Warnings = append(warns, res.Warnings...)
	if err == nil {
		e.logger.Debug("ocr extraction complete",
			"path", path,
			"chars", len(res.Text),
			"confidence", res.Confidence,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	return res, err
}

func (e *Extractor) convertHEIC(ctx context.Context, path string) (string, []string, func(), error) {
	hashHex, ok := contentHashFromCtx(ctx)
	var warns []string
	if !ok && e.cfg.ArtifactCacheDir != "" {
		h, err := HashFile(path)
		if err != nil {
			warns = append(warns, "content hash: "+err.Error())
		}
		hashHex = h
	}
	out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.logger, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir, hashHex)
	return out, append(warns, w...), cleanup, err
}

// ConfigFrom maps the environment-driven OCR settings onto Config.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Tesseract:           c.TesseractBin,
		TesseractLang:       c.Language,
		TessdataDir:         c.TessdataDir,
		PSM:                 c.PSM,
		HeicConverter:       c.HeicConverter,
		ArtifactCacheDir:    c.ArtifactCacheDir,
		EnableTSVConfidence: c.TSVConfidence,
	}
}
