package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cartsync/internal/core/domain"
	"cartsync/internal/port"
)

// CartUpdate is a partial patch applied to a cart entry; nil fields are
// left untouched. A quantity of zero is persisted as-is, pruning is the
// caller's call.
type CartUpdate struct {
	Name            *string   `json:"name,omitempty"`
	Price           *float64  `json:"price,omitempty"`
	Quantity        *int      `json:"quantity,omitempty"`
	SelectedSize    *string   `json:"selectedSize,omitempty"`
	SelectedOptions *[]string `json:"selectedOptions,omitempty"`
}

// CartService applies cart mutations against a single storage slot,
// strictly one at a time in submission order. All reads go through the same
// queue so they observe a settled snapshot.
type CartService struct {
	store port.KeyValueStore
	queue *taskQueue
	log   *slog.Logger
}

func NewCartService(store port.KeyValueStore, log *slog.Logger) *CartService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CartService{
		store: store,
		queue: newTaskQueue(),
		log:   log,
	}
}

// Close drains queued mutations and stops the worker.
func (s *CartService) Close() {
	s.queue.Close()
}

// Items returns the current cart snapshot.
func (s *CartService) Items(ctx context.Context) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := s.queue.Do(ctx, func() error {
		entries = s.load(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Add merges the item into the cart, accumulating quantity when an entry
// with the same name and size already exists. Returns the new snapshot.
func (s *CartService) Add(ctx context.Context, item domain.MenuItem, quantity int, selectedSize string, selectedOptions []string) ([]domain.CartEntry, error) {
	if quantity <= 0 {
		quantity = 1
	}
	if selectedOptions == nil {
		selectedOptions = []string{}
	}

	var entries []domain.CartEntry
	err := s.queue.Do(ctx, func() error {
		entries = s.load(ctx)
		id := domain.CartEntryID(item.Name, selectedSize)
		for i := range entries {
			if entries[i].ID == id {
				entries[i].Quantity += domain.Count(quantity)
				return s.save(ctx, entries)
			}
		}

		price, ok := item.Price.Resolve(selectedSize)
		if !ok {
			s.log.Warn("no price for selected size, defaulting to zero",
				"item", item.Name, "size", selectedSize)
			price = 0
		}
		entries = append(entries, domain.CartEntry{
			ID:              id,
			Name:            item.Name,
			Price:           domain.Amount(price),
			Quantity:        domain.Count(quantity),
			SelectedSize:    selectedSize,
			SelectedOptions: selectedOptions,
		})
		return s.save(ctx, entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Remove deletes the entry with the given id. A miss is a no-op, not an
// error. Returns the new snapshot.
func (s *CartService) Remove(ctx context.Context, itemID string) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := s.queue.Do(ctx, func() error {
		current := s.load(ctx)
		entries = make([]domain.CartEntry, 0, len(current))
		for _, e := range current {
			if e.ID != itemID {
				entries = append(entries, e)
			}
		}
		return s.save(ctx, entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Update shallow-merges the patch into the matching entry. A miss is a
// no-op. Returns the new snapshot.
func (s *CartService) Update(ctx context.Context, itemID string, patch CartUpdate) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := s.queue.Do(ctx, func() error {
		entries = s.load(ctx)
		for i := range entries {
			if entries[i].ID == itemID {
				applyPatch(&entries[i], patch)
				break
			}
		}
		return s.save(ctx, entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear unconditionally persists an empty cart.
func (s *CartService) Clear(ctx context.Context) error {
	return s.queue.Do(ctx, func() error {
		return s.save(ctx, []domain.CartEntry{})
	})
}

// Total sums price*quantity across the cart. It never fails: read problems
// degrade to an empty cart and corrupt numbers decode as zero.
func (s *CartService) Total(ctx context.Context) float64 {
	var total float64
	_ = s.queue.Do(ctx, func() error {
		total = domain.CartTotal(s.load(ctx))
		return nil
	})
	return total
}

// load reads the current snapshot. Missing or unreadable data degrades to
// an empty cart rather than failing the operation.
func (s *CartService) load(ctx context.Context) []domain.CartEntry {
	raw, err := s.store.Get(ctx, cartKey)
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			s.log.Warn("cart read failed, starting from empty", "error", err)
		}
		return []domain.CartEntry{}
	}

	var entries []domain.CartEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Warn("cart snapshot corrupted, starting from empty", "error", err)
		return []domain.CartEntry{}
	}
	if entries == nil {
		entries = []domain.CartEntry{}
	}
	return entries
}

func (s *CartService) save(ctx context.Context, entries []domain.CartEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Set(ctx, cartKey, string(data)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func applyPatch(entry *domain.CartEntry, patch CartUpdate) {
	if patch.Name != nil {
		entry.Name = *patch.Name
	}
	if patch.Price != nil {
		entry.Price = domain.Amount(*patch.Price)
	}
	if patch.Quantity != nil {
		entry.Quantity = domain.Count(*patch.Quantity)
	}
	if patch.SelectedSize != nil {
		entry.SelectedSize = *patch.SelectedSize
	}
	if patch.SelectedOptions != nil {
		entry.SelectedOptions = *patch.SelectedOptions
	}
}
