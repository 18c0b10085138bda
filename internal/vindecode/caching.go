package vindecode

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/vehicle-intake/internal/common"
)

// CachingDecoder cleans the VIN, serves repeats from Cache and stores only
// successful decodes.
type CachingDecoder struct {
	next   Decoder
	cache  Cache
	logger *slog.Logger
}

func NewCachingDecoder(next Decoder, cache Cache, logger *slog.Logger) *CachingDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewLRUCache(0, 0)
	}
	return &CachingDecoder{next: next, cache: cache, logger: logger}
}

func (d *CachingDecoder) Decode(ctx context.Context, raw string) (Vehicle, error) {
	vin, err := CleanVIN(raw)
	if err != nil {
		return Vehicle{}, err
	}
	if v, ok := d.cache.Get(vin); ok {
		d.logger.Debug("vindecode.cache.hit", "vin", vin)
		return v, nil
	}
	d.logger.Debug("vindecode.cache.miss", "vin", vin)

	v, err := d.next.Decode(ctx, vin)
	if err != nil {
		return Vehicle{}, err
	}
	d.cache.Add(vin, v)
	return v, nil
}

// Stats exposes the underlying cache counters.
func (d *CachingDecoder) Stats() Stats { return d.cache.Stats() }

// NewFromConfig wires the rate-limited NHTSA client behind a cache, or returns
// nil when decoding is disabled. A configured but unreachable Redis falls back
// to the in-process LRU.
func NewFromConfig(cfg common.VINDecodeConfig, logger *slog.Logger) *CachingDecoder {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := NewNHTSAClient(cfg.BaseURL, cfg.Timeout, nil, logger, WithRateLimit(cfg.RateRPS, cfg.RateBurst))

	var cache Cache = NewLRUCache(cfg.CacheSize, cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		rc, err := DialRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Warn("vin cache redis unavailable, using in-process lru", "addr", cfg.RedisAddr, "error", err)
		} else {
			cache = NewRedisCache(rc, cfg.CacheTTL, logger)
		}
	}
	return NewCachingDecoder(client, cache, logger)
}
