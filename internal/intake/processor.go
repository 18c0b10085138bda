// Package intake runs one photo through OCR, field extraction and the
// optional VIN decode, and reports the outcome.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/common"
	"github.com/joseph-ayodele/vehicle-intake/internal/extraction"
	"github.com/joseph-ayodele/vehicle-intake/internal/ocr"
	"github.com/joseph-ayodele/vehicle-intake/internal/vindecode"
)

// DefaultMinConfidence is the extraction confidence under which an outcome
// is flagged for review.
const DefaultMinConfidence = 70

// TextSource produces OCR text for a photo on disk.
type TextSource interface {
	Extract(ctx context.Context, path string) (ocr.TextResult, error)
}

// Job asks for one field to be read from one photo.
type Job struct {
	ID          uuid.UUID
	Path        string
	Field       constants.Field
	ContentHash string // hex SHA-256, when the caller already hashed the photo
	SubmittedAt time.Time
}

// NewJob stamps a job with a fresh id.
func NewJob(path string, field constants.Field) Job {
	return Job{ID: uuid.New(), Path: path, Field: field, SubmittedAt: time.Now().UTC()}
}

// Outcome is the result of processing a Job.
type Outcome struct {
	JobID         uuid.UUID           `json:"jobId"`
	Path          string              `json:"path,omitempty"`
	Field         constants.Field     `json:"field"`
	Result        extraction.Result   `json:"result"`
	Vehicle       *vindecode.Vehicle  `json:"vehicle,omitempty"`
	DecodeError   string              `json:"decodeError,omitempty"`
	OCRConfidence float32             `json:"ocrConfidence"`
	OCRWarnings   []string            `json:"ocrWarnings,omitempty"`
	NeedsReview   bool                `json:"needsReview"`
	Status        constants.JobStatus `json:"status"`
	Error         string              `json:"error,omitempty"`
	Duration      time.Duration       `json:"durationNanos"`
}

// Processor coordinates OCR, extraction and decode.
type Processor struct {
	logger        *slog.Logger
	text          TextSource
	decoder       vindecode.Decoder
	minConfidence int
}

// NewProcessor wires a processor. decoder may be nil to skip VIN decoding;
// minConfidence <= 0 uses DefaultMinConfidence.
func NewProcessor(logger *slog.Logger, text TextSource, decoder vindecode.Decoder, minConfidence int) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Processor{
		logger:        logger,
		text:          text,
		decoder:       decoder,
		minConfidence: minConfidence,
	}
}

// ProcessPhoto reads job.Path and extracts job.Field from it. A .txt path is
// read as already-OCRed text. The returned error is also recorded on the
// Outcome with status FAILED.
func (p *Processor) ProcessPhoto(ctx context.Context, job Job) (Outcome, error) {
	start := time.Now()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	ctx = common.WithJobID(ctx, job.ID.String())
	logger := common.LoggerFrom(ctx, p.logger).With("path", job.Path, "field", job.Field)

	out := Outcome{JobID: job.ID, Path: job.Path, Field: job.Field, Status: constants.JobStatusRunning}
	fail := func(err error) (Outcome, error) {
		out.Status = constants.JobStatusFailed
		out.Error = err.Error()
		out.NeedsReview = true
		out.Duration = time.Since(start)
		logger.Error("intake.failed", "error", err)
		return out, err
	}

	if _, ok := extraction.For(job.Field); !ok {
		return fail(fmt.Errorf("%w: %s", extraction.ErrUnknownField, job.Field))
	}

	ext := filepath.Ext(job.Path)
	var tr ocr.TextResult
	switch constants.MapExtToFormat(ext) {
	case constants.TEXT:
		b, err := os.ReadFile(job.Path)
		if err != nil {
			return fail(fmt.Errorf("read text: %w", err))
		}
		tr = ocr.TextResult{Text: string(b), SourceType: constants.TEXT}
	case constants.IMAGE:
		if p.text == nil {
			return fail(common.NewAppError("OCR_DISABLED", "no OCR text source configured", common.ErrNotImplemented))
		}
		if job.ContentHash != "" {
			ctx = ocr.WithContentHash(ctx, job.ContentHash)
		}
		res, err := p.text.Extract(ctx, job.Path)
		if err != nil {
			out.OCRWarnings = res.Warnings
			return fail(fmt.Errorf("ocr: %w", err))
		}
		tr = res
	default:
		return fail(common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported extension %q", ext), common.ErrInvalidInput))
	}

	out.OCRWarnings = tr.Warnings
	if tr.ConfidenceMeasured {
		out.OCRConfidence = tr.Confidence
		if tr.Confidence < constants.ImageConfidenceThreshold {
			logger.Warn("image ocr confidence low; needs review", "conf", tr.Confidence)
			out.NeedsReview = true
		}
	}

	p.finish(ctx, logger, &out, tr.Text)
	out.Duration = time.Since(start)
	logger.Info("intake.done",
		"status", out.Status,
		"value", out.Result.Value,
		"confidence", out.Result.Confidence,
		"method", out.Result.Method,
		"needs_review", out.NeedsReview,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

// ProcessText extracts field from text a caller already holds.
func (p *Processor) ProcessText(ctx context.Context, field constants.Field, text string) (Outcome, error) {
	start := time.Now()
	if _, ok := extraction.For(field); !ok {
		return Outcome{}, fmt.Errorf("%w: %s", extraction.ErrUnknownField, field)
	}
	out := Outcome{JobID: uuid.New(), Field: field, Status: constants.JobStatusRunning}
	ctx = common.WithJobID(ctx, out.JobID.String())
	p.finish(ctx, common.LoggerFrom(ctx, p.logger).With("field", field), &out, text)
	out.Duration = time.Since(start)
	return out, nil
}

// finish runs extraction and, for a readable VIN, the decoder.
func (p *Processor) finish(ctx context.Context, logger *slog.Logger, out *Outcome, text string) {
	res, _ := extraction.Extract(out.Field, text)
	out.Result = res
	if !res.Success {
		out.Status = constants.JobStatusUnreadable
		out.NeedsReview = true
		return
	}
	out.Status = constants.JobStatusExtracted
	out.NeedsReview = out.NeedsReview || NeedsReview(res, p.minConfidence)

	if out.Field != constants.FieldVIN || p.decoder == nil {
		return
	}
	v, err := p.decoder.Decode(ctx, res.Value)
	if err != nil {
		// Decoding is enrichment only; the extracted VIN stands.
		logger.Warn("vin decode failed", "vin", res.Value, "error", err)
		out.DecodeError = err.Error()
		return
	}
	out.Vehicle = &v
}

// NeedsReview reports whether r alone would flag an outcome for review.
func NeedsReview(r extraction.Result, minConfidence int) bool {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return !r.Success || r.Confidence < minConfidence
}
