package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"cartsync/internal/core/domain"
	"cartsync/internal/port"
)

// ErrMenuUnavailable is returned when the network is down and no cached
// menu exists.
var ErrMenuUnavailable = errors.New("no internet connection and no cached data available")

// cacheEntry wraps the raw remote payload with its fetch time. Created or
// overwritten whole on every successful fetch, never partially updated.
type cacheEntry struct {
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// MenuService serves the menu preferring freshness but staying usable
// offline: remote first, cached copy as fallback regardless of age.
type MenuService struct {
	store  port.KeyValueStore
	remote port.RemoteService
	ttl    time.Duration // 0 disables the freshness window
	log    *slog.Logger
	now    func() time.Time
}

func NewMenuService(store port.KeyValueStore, remote port.RemoteService, ttl time.Duration, log *slog.Logger) *MenuService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &MenuService{
		store:  store,
		remote: remote,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Menu returns the menu model. Inside the freshness window the cached copy
// is served without a network call; otherwise the remote wins and the cache
// is refreshed. When the fetch fails any cached copy is served stale; with
// no usable cache the read fails with ErrMenuUnavailable.
func (s *MenuService) Menu(ctx context.Context) (*domain.Menu, error) {
	if s.ttl > 0 {
		if entry := s.cached(ctx); entry != nil && s.now().Sub(entry.FetchedAt) < s.ttl {
			if m, err := domain.ParseMenu(entry.Payload); err == nil {
				return m, nil
			}
		}
	}

	payload, err := s.remote.FetchMenu(ctx)
	if err == nil {
		m, perr := domain.ParseMenu(payload)
		if perr == nil {
			s.writeCache(ctx, payload)
			return m, nil
		}
		err = perr
	}

	s.log.Warn("menu fetch failed, falling back to cache", "error", err)
	if entry := s.cached(ctx); entry != nil {
		if m, perr := domain.ParseMenu(entry.Payload); perr == nil {
			return m, nil
		}
	}
	return nil, ErrMenuUnavailable
}

// cached returns the cache entry, or nil when the slot is empty or
// unparsable. A corrupted entry behaves exactly like an absent one.
func (s *MenuService) cached(ctx context.Context) *cacheEntry {
	raw, err := s.store.Get(ctx, menuCacheKey)
	if err != nil {
		return nil
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.log.Warn("menu cache corrupted, ignoring", "error", err)
		return nil
	}
	if len(entry.Payload) == 0 {
		return nil
	}
	return &entry
}

// writeCache is best-effort: a failed cache write must not fail a read
// that already has fresh data in hand.
func (s *MenuService) writeCache(ctx context.Context, payload []byte) {
	data, err := json.Marshal(cacheEntry{Payload: payload, FetchedAt: s.now()})
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, menuCacheKey, string(data)); err != nil {
		s.log.Warn("menu cache write failed", "error", err)
	}
}
