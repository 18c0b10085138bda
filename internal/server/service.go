package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/vehicle-intake/internal/common"
	"github.com/joseph-ayodele/vehicle-intake/internal/envelope"
	"github.com/joseph-ayodele/vehicle-intake/internal/extraction"
	"github.com/joseph-ayodele/vehicle-intake/internal/vindecode"
)

// StatsDecoder is a Decoder that can also report its cache.
type StatsDecoder interface {
	vindecode.Decoder
	Stats() vindecode.Stats
}

// ExtractionService implements ExtractionServer. A nil decoder disables
// DecodeVIN and CacheStats.
type ExtractionService struct {
	decoder StatsDecoder
	logger  *slog.Logger
}

func NewExtractionService(decoder StatsDecoder, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{decoder: decoder, logger: logger}
}

func (s *ExtractionService) Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := envelope.RequestFromMap(in.AsMap())
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	res, err := extraction.Extract(req.Field, req.Text)
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	m, err := envelope.ResultToMap(res)
	if err != nil {
		return nil, common.InternalError("encode result")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	common.LoggerFrom(ctx, s.logger).Debug("extract ok",
		"field", res.Field,
		"method", res.Method,
		"confidence", res.Confidence,
	)
	return out, nil
}

func (s *ExtractionService) DecodeVIN(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.decoder == nil {
		return nil, status.Error(codes.Unimplemented, "vin decoding is disabled")
	}
	raw, _ := in.AsMap()["vin"].(string)
	v := common.NewValidator().Field("vin", raw, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	vehicle, err := s.decoder.Decode(ctx, raw)
	if err != nil {
		if !errors.Is(err, common.ErrInvalidInput) {
			common.LoggerFrom(ctx, s.logger).Warn("decode vin failed", "error", err)
		}
		return nil, common.ToStatus(err)
	}
	return toStruct(vehicle)
}

func (s *ExtractionService) CacheStats(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.decoder == nil {
		return nil, status.Error(codes.Unimplemented, "vin decoding is disabled")
	}
	st := s.decoder.Stats()
	hitRate := 0.0
	if total := st.Hits + st.Misses; total > 0 {
		hitRate = float64(st.Hits) / float64(total)
	}
	out, err := structpb.NewStruct(map[string]any{
		"entries":   st.Entries,
		"active":    st.Active,
		"expired":   st.Expired,
		"hits":      float64(st.Hits),
		"misses":    float64(st.Misses),
		"hitRate":   hitRate,
		"maxSize":   st.MaxSize,
		"ttl":       st.TTL.String(),
		"ttlDays":   st.TTL.Hours() / 24,
		"checkedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, common.InternalErrorf("encode stats: %v", err)
	}
	return out, nil
}

// toStruct converts any JSON-serializable value to a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, common.InternalErrorf("unmarshal: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("struct: %v", err)
	}
	return out, nil
}
