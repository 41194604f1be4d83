package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
)

// Class partitions cached values by volatility; each class carries its own
// TTL.
type Class string

const (
	ClassCurrentLoad Class = "load"
	ClassBurnout     Class = "burnout"
	ClassDashboard   Class = "dashboard"
)

// SharedTier is the network-accessible cache shared across instances. The
// Redis client satisfies it; tests substitute fakes.
type SharedTier interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Options tune tier sizing and TTLs; zero values take defaults.
type Options struct {
	LocalCapacity int
	LoadTTL       time.Duration
	BurnoutTTL    time.Duration
	DashboardTTL  time.Duration
	SharedTimeout time.Duration
}

// Service is the two-tier cache: a fast in-process LRU in front of a shared
// tier. Reads check local, then shared, then recompute. The shared tier is
// best-effort only; when it is unreachable, reads still succeed through
// recomputation.
type Service struct {
	log    *logger.Logger
	local  *lruCache
	shared SharedTier

	ttls          map[Class]time.Duration
	sharedTimeout time.Duration
}

func NewService(baseLog *logger.Logger, shared SharedTier, opts Options) *Service {
	if opts.LocalCapacity <= 0 {
		opts.LocalCapacity = 1024
	}
	if opts.LoadTTL <= 0 {
		opts.LoadTTL = 5 * time.Minute
	}
	if opts.BurnoutTTL <= 0 {
		opts.BurnoutTTL = 24 * time.Hour
	}
	if opts.DashboardTTL <= 0 {
		opts.DashboardTTL = time.Hour
	}
	if opts.SharedTimeout <= 0 {
		opts.SharedTimeout = 250 * time.Millisecond
	}
	return &Service{
		log:    baseLog.With("service", "CacheService"),
		local:  newLRUCache(opts.LocalCapacity),
		shared: shared,
		ttls: map[Class]time.Duration{
			ClassCurrentLoad: opts.LoadTTL,
			ClassBurnout:     opts.BurnoutTTL,
			ClassDashboard:   opts.DashboardTTL,
		},
		sharedTimeout: opts.SharedTimeout,
	}
}

func (s *Service) ttl(class Class) time.Duration {
	if d, ok := s.ttls[class]; ok {
		return d
	}
	return 5 * time.Minute
}

func fullKey(class Class, key string) string {
	return string(class) + ":" + key
}

// GetOrCompute reads through both tiers and falls back to compute. The
// computed value is written to both tiers best-effort and unmarshaled into
// out. Returns whether the value came from a cache tier.
func (s *Service) GetOrCompute(ctx context.Context, class Class, key string, out any, compute func(ctx context.Context) (any, error)) (bool, error) {
	fk := fullKey(class, key)

	if raw, ok := s.local.get(fk); ok {
		if err := json.Unmarshal(raw, out); err == nil {
			return true, nil
		}
		s.local.delete(fk)
	}

	if s.shared != nil {
		sctx, cancel := context.WithTimeout(ctx, s.sharedTimeout)
		raw, ok, err := s.shared.Get(sctx, fk)
		cancel()
		if err != nil {
			s.log.Warn("shared cache read failed, recomputing", "key", fk, "error", err)
		} else if ok {
			if err := json.Unmarshal(raw, out); err == nil {
				s.local.set(fk, raw, s.ttl(class))
				return true, nil
			}
		}
	}

	val, err := compute(ctx)
	if err != nil {
		return false, err
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return false, fmt.Errorf("marshal cache value: %w", err)
	}
	s.writeBoth(ctx, class, fk, raw)
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal computed value: %w", err)
	}
	return false, nil
}

// Put overwrites a value in both tiers best-effort.
func (s *Service) Put(ctx context.Context, class Class, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	s.writeBoth(ctx, class, fullKey(class, key), raw)
	return nil
}

// Invalidate drops a key from both tiers.
func (s *Service) Invalidate(ctx context.Context, class Class, key string) {
	fk := fullKey(class, key)
	s.local.delete(fk)
	if s.shared != nil {
		sctx, cancel := context.WithTimeout(ctx, s.sharedTimeout)
		defer cancel()
		if err := s.shared.Del(sctx, fk); err != nil {
			s.log.Warn("shared cache delete failed", "key", fk, "error", err)
		}
	}
}

func (s *Service) writeBoth(ctx context.Context, class Class, fk string, raw []byte) {
	ttl := s.ttl(class)
	s.local.set(fk, raw, ttl)
	if s.shared != nil {
		sctx, cancel := context.WithTimeout(ctx, s.sharedTimeout)
		defer cancel()
		if err := s.shared.Set(sctx, fk, raw, ttl); err != nil {
			s.log.Warn("shared cache write failed", "key", fk, "error", err)
		}
	}
}
