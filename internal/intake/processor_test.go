package intake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/common"
	"github.com/joseph-ayodele/vehicle-intake/internal/extraction"
	"github.com/joseph-ayodele/vehicle-intake/internal/ocr"
	"github.com/joseph-ayodele/vehicle-intake/internal/vindecode"
)

type fakeText struct {
	res  ocr.TextResult
	err  error
	seen []string
}

func (f *fakeText) Extract(_ context.Context, path string) (ocr.TextResult, error) {
	f.seen = append(f.seen, path)
	return f.res, f.err
}

type fakeDecoder struct {
	err   error
	calls []string
}

func (d *fakeDecoder) Decode(_ context.Context, vin string) (vindecode.Vehicle, error) {
	d.calls = append(d.calls, vin)
	if d.err != nil {
		return vindecode.Vehicle{}, d.err
	}
	return vindecode.Vehicle{VIN: vin, Make: "HONDA", Model: "Accord", Year: "2003"}, nil
}

func TestProcessPhotoVINWithDecode(t *testing.T) {
	src := &fakeText{res: ocr.TextResult{Text: "VIN 1HGCM82633A004352", Confidence: 0.91, ConfidenceMeasured: true}}
	dec := &fakeDecoder{}
	p := NewProcessor(nil, src, dec, 0)

	job := NewJob("door.jpg", constants.FieldVIN)
	out, err := p.ProcessPhoto(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, job.ID, out.JobID)
	assert.Equal(t, constants.JobStatusExtracted, out.Status)
	assert.Equal(t, "1HGCM82633A004352", out.Result.Value)
	assert.Equal(t, extraction.MethodVINCheckDigit, out.Result.Method)
	assert.False(t, out.NeedsReview)
	require.NotNil(t, out.Vehicle)
	assert.Equal(t, "Accord", out.Vehicle.Model)
	assert.Equal(t, []string{"1HGCM82633A004352"}, dec.calls)
	assert.InDelta(t, 0.91, out.OCRConfidence, 0.0001)
}

func TestProcessPhotoDecodeFailureKeepsVIN(t *testing.T) {
	src := &fakeText{res: ocr.TextResult{Text: "1HGCM82633A004352"}}
	p := NewProcessor(nil, src, &fakeDecoder{err: common.ErrUpstream}, 0)

	out, err := p.ProcessPhoto(context.Background(), NewJob("door.png", constants.FieldVIN))
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusExtracted, out.Status)
	assert.Nil(t, out.Vehicle)
	assert.Contains(t, out.DecodeError, "upstream")
}

func TestProcessPhotoReviewFlags(t *testing.T) {
	tests := []struct {
		name   string
		field  constants.Field
		res    ocr.TextResult
		status constants.JobStatus
		review bool
	}{
		{"unreadable", constants.FieldPlate, ocr.TextResult{Text: "CALIFORNIA"}, constants.JobStatusUnreadable, true},
		{"low extraction confidence", constants.FieldMileage, ocr.TextResult{Text: "045230"}, constants.JobStatusExtracted, true},
		{"low ocr confidence", constants.FieldPlate, ocr.TextResult{Text: "7ABC123", Confidence: 0.3, ConfidenceMeasured: true}, constants.JobStatusExtracted, true},
		{"unmeasured ocr confidence", constants.FieldPlate, ocr.TextResult{Text: "7ABC123"}, constants.JobStatusExtracted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(nil, &fakeText{res: tt.res}, nil, 0)
			out, err := p.ProcessPhoto(context.Background(), NewJob("x.jpg", tt.field))
			require.NoError(t, err)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.review, out.NeedsReview)
		})
	}
}

func TestProcessPhotoFailures(t *testing.T) {
	p := NewProcessor(nil, &fakeText{err: errors.New("tesseract: exit status 1"), res: ocr.TextResult{Warnings: []string{"bad"}}}, nil, 0)
	out, err := p.ProcessPhoto(context.Background(), NewJob("x.jpg", constants.FieldVIN))
	require.Error(t, err)
	assert.Equal(t, constants.JobStatusFailed, out.Status)
	assert.Equal(t, []string{"bad"}, out.OCRWarnings)
	assert.Contains(t, out.Error, "ocr")

	_, err = p.ProcessPhoto(context.Background(), NewJob("x.pdf", constants.FieldVIN))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = p.ProcessPhoto(context.Background(), NewJob("x.jpg", constants.Field("COLOR")))
	assert.ErrorIs(t, err, extraction.ErrUnknownField)

	_, err = NewProcessor(nil, nil, nil, 0).ProcessPhoto(context.Background(), NewJob("x.jpg", constants.FieldVIN))
	assert.ErrorIs(t, err, common.ErrNotImplemented)
}

func TestProcessPhotoTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odometer.txt")
	require.NoError(t, os.WriteFile(path, []byte("ODO\n87432 MI"), 0o644))
	src := &fakeText{}
	p := NewProcessor(nil, src, nil, 0)

	out, err := p.ProcessPhoto(context.Background(), Job{Path: path, Field: constants.FieldMileage})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, out.JobID)
	assert.Equal(t, "87432", out.Result.Value)
	assert.Empty(t, src.seen, "text files bypass OCR")
}

func TestProcessText(t *testing.T) {
	dec := &fakeDecoder{}
	p := NewProcessor(nil, nil, dec, 80)

	out, err := p.ProcessText(context.Background(), constants.FieldPlate, "NEW YORK\nHJK 4821")
	require.NoError(t, err)
	assert.Equal(t, "HJK4821", out.Result.Value)
	assert.Empty(t, dec.calls, "only VINs are decoded")

	_, err = p.ProcessText(context.Background(), constants.Field(""), "x")
	assert.ErrorIs(t, err, extraction.ErrUnknownField)
}

func TestNeedsReview(t *testing.T) {
	assert.True(t, NeedsReview(extraction.Result{Success: false}, 0))
	assert.True(t, NeedsReview(extraction.Result{Success: true, Confidence: 69}, 0))
	assert.False(t, NeedsReview(extraction.Result{Success: true, Confidence: 70}, 0))
	assert.True(t, NeedsReview(extraction.Result{Success: true, Confidence: 85}, 90))
}
