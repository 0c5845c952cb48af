// Package cache holds the small in-process caches used in front of the ledger.
package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fluxo/internal/obs"
)

// Cache is the read-through surface the services depend on.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Purge()
	Size() int
}

// Expirer drops stale items and reports how many it removed.
type Expirer interface {
	CleanExpired() int
}

// Sweeper periodically expires the caches registered with it.
type Sweeper struct {
	mu       sync.Mutex
	caches   map[string]Expirer
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{caches: make(map[string]Expirer), interval: interval, logger: logger}
}

// Register adds c under name. A nil cache is ignored.
func (s *Sweeper) Register(name string, c Expirer) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caches[name] = c
}

// Sweep runs one expiry pass over every cache and returns the total removed.
func (s *Sweeper) Sweep() int {
	s.mu.Lock()
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)

	total := 0
	for _, name := range names {
		s.mu.Lock()
		c := s.caches[name]
		s.mu.Unlock()

		n := c.CleanExpired()
		if n > 0 {
			obs.ObserveCacheExpired(name, n)
			s.logger.Debug("Expired cache items removed", "cache", name, "count", n)
		}
		total += n
	}
	return total
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
