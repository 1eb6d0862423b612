package repo

import (
	"context"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	cachepkg "hiloscan/internal/cache"
	"hiloscan/internal/model"
)

// KV is the subset of the go-zero Redis client used by repositories.
type KV interface {
	GetCtx(ctx context.Context, key string) (string, error)
	SetexCtx(ctx context.Context, key, value string, seconds int) error
	SetnxExCtx(ctx context.Context, key, value string, seconds int) (bool, error)
}

var _ KV = (*redis.Redis)(nil)

// fallbackTickers keeps the scanner useful when the assets table is empty
// or unreachable.
var fallbackTickers = []string{"BOVA11", "PETR4", "VALE3"}

// assetsPayload is the msgpack-encoded cache entry for the watch list.
type assetsPayload struct {
	Tickers   []string `msgpack:"tickers"`
	FetchedAt int64    `msgpack:"fetched_at"`
}

// Settings serves scanner runtime data stored in Postgres, with a Redis
// cache in front. Market data is never cached here; only slow-changing
// user settings are.
type Settings struct {
	assets    model.AssetsModel
	appConfig model.AppConfigModel
	rds       KV
	ttls      cachepkg.TTLSet
}

func newSettings(deps Dependencies) *Settings {
	return &Settings{
		assets:    deps.AssetsModel,
		appConfig: deps.AppConfigModel,
		rds:       deps.Redis,
		ttls:      deps.TTL,
	}
}

// MonitoredTickers returns the watch list from cache or the assets table.
// When the database is unreachable it degrades to a static fallback list
// rather than failing the whole batch.
func (s *Settings) MonitoredTickers(ctx context.Context) []string {
	key := cachepkg.MonitoredAssetsKey()
	if s.rds != nil {
		if raw, err := s.rds.GetCtx(ctx, key); err == nil && raw != "" {
			var payload assetsPayload
			if err := msgpack.Unmarshal([]byte(raw), &payload); err == nil && len(payload.Tickers) > 0 {
				return payload.Tickers
			}
		}
	}

	tickers, err := s.assets.Tickers(ctx)
	if err != nil || len(tickers) == 0 {
		if err != nil {
			logx.WithContext(ctx).Errorf("settings: load assets: %v", err)
		}
		return fallbackTickers
	}

	s.cacheSet(ctx, key, assetsPayload{
		Tickers:   tickers,
		FetchedAt: time.Now().Unix(),
	}, s.ttls.Duration(cachepkg.TTLMedium))
	return tickers
}

// configPayload is the msgpack-encoded cache entry for one app_config value.
type configPayload struct {
	Value     string `msgpack:"value"`
	FetchedAt int64  `msgpack:"fetched_at"`
}

// ConfigValue returns one app_config value, cached for the long TTL class.
// Missing keys surface model.ErrNotFound so callers can apply defaults.
func (s *Settings) ConfigValue(ctx context.Context, key string) (string, error) {
	cacheKey := cachepkg.AppConfigKey(key)
	if s.rds != nil {
		if raw, err := s.rds.GetCtx(ctx, cacheKey); err == nil && raw != "" {
			var payload configPayload
			if err := msgpack.Unmarshal([]byte(raw), &payload); err == nil {
				return payload.Value, nil
			}
		}
	}

	value, err := s.appConfig.Value(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrNotFound
		}
		return "", err
	}

	s.cacheSet(ctx, cacheKey, configPayload{
		Value:     value,
		FetchedAt: time.Now().Unix(),
	}, s.ttls.Duration(cachepkg.TTLLong))
	return value, nil
}

// WhatsAppNumber returns the delivery number configured in the app settings.
func (s *Settings) WhatsAppNumber(ctx context.Context) (string, error) {
	return s.ConfigValue(ctx, model.ConfigKeyWhatsAppNumber)
}

// AcquireScanLock takes a short-lived guard against overlapping automatic
// runs. It reports true when this process holds the lock. Without Redis the
// lock degrades to always-acquired.
func (s *Settings) AcquireScanLock(ctx context.Context, ttl time.Duration) (bool, error) {
	if s.rds == nil {
		return true, nil
	}
	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return s.rds.SetnxExCtx(ctx, cachepkg.ScanLockKey(), "1", seconds)
}

func (s *Settings) cacheSet(ctx context.Context, key string, payload any, ttl time.Duration) {
	if s.rds == nil || ttl <= 0 {
		return
	}
	encoded, err := msgpack.Marshal(payload)
	if err != nil {
		logx.WithContext(ctx).Errorf("settings: encode cache %s: %v", key, err)
		return
	}
	if err := s.rds.SetexCtx(ctx, key, string(encoded), int(ttl/time.Second)); err != nil {
		logx.WithContext(ctx).Errorf("settings: set cache %s: %v", key, err)
	}
}
