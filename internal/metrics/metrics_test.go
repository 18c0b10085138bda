package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/extraction"
	"github.com/joseph-ayodele/vehicle-intake/internal/intake"
	"github.com/joseph-ayodele/vehicle-intake/internal/vindecode"
)

func TestObserveOutcome(t *testing.T) {
	m := New(nil)

	m.ObserveOutcome(intake.Outcome{
		Field:    constants.FieldVIN,
		Status:   constants.JobStatusExtracted,
		Result:   extraction.Result{Value: "1HGCM82633A004352", Confidence: 95, Success: true},
		Duration: 200 * time.Millisecond,
	}, nil)
	m.ObserveOutcome(intake.Outcome{
		Field:       constants.FieldVIN,
		Status:      constants.JobStatusUnreadable,
		Result:      extraction.Result{Value: constants.Unreadable},
		NeedsReview: true,
	}, nil)
	m.ObserveOutcome(intake.Outcome{Field: constants.FieldPlate, Status: constants.JobStatusFailed, NeedsReview: true}, errors.New("ocr"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("VIN", "EXTRACTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("VIN", "UNREADABLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("PLATE", "FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NeedsReview.WithLabelValues("VIN")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Confidence))
}

func TestUnaryInterceptor(t *testing.T) {
	m := New(nil)
	icpt := m.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/vehicleintake.v1.ExtractionService/Extract"}

	_, err := icpt(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	_, err = icpt(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "bad field")
	})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCTotal.WithLabelValues(info.FullMethod, "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCTotal.WithLabelValues(info.FullMethod, "InvalidArgument")))
}

func TestCacheStatsAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NoError(t, m.RegisterCacheStats(func() vindecode.Stats {
		return vindecode.Stats{Active: 3, Expired: 1, Hits: 7, Misses: 2}
	}))
	m.JobsTotal.WithLabelValues("MILEAGE", "EXTRACTED").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)

	assert.Contains(t, out, `vehicle_intake_vin_cache_entries{state="active"} 3`)
	assert.Contains(t, out, `vehicle_intake_vin_cache_entries{state="expired"} 1`)
	assert.Contains(t, out, "vehicle_intake_vin_cache_hits_total 7")
	assert.Contains(t, out, "vehicle_intake_vin_cache_misses_total 2")
	assert.Contains(t, out, `vehicle_intake_jobs_total{field="MILEAGE",status="EXTRACTED"} 1`)
}
