// Package favorites persists the per-browser set of favorite products.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/tair/catalog-console/pkg/logger"
	"github.com/tair/catalog-console/pkg/storage"
)

// StorageKey is the key the favorites map is stored under.
const StorageKey = "productFavorites"

// Store keeps the favorites map in memory and writes it through to storage on every change.
type Store struct {
	mu      sync.RWMutex
	storage storage.Storage
	flags   map[int64]bool
}

// New creates a store over s. Call Load before use.
func New(s storage.Storage) *Store {
	return &Store{storage: s, flags: make(map[int64]bool)}
}

// Load reads the persisted map. A missing key yields an empty map. Malformed content
// also yields an empty map and a warning; storage is left as is until the next Toggle.
func (s *Store) Load(ctx context.Context) (map[int64]bool, error) {
	raw, err := s.storage.GetItem(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		raw = ""
	case err != nil:
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	flags, perr := decode(raw)
	if perr != nil {
		logger.Warn(ctx).
			Err(perr).
			Str("key", StorageKey).
			Msg("Malformed favorites in storage, starting with an empty set")
		flags = make(map[int64]bool)
	}

	s.mu.Lock()
	s.flags = flags
	s.mu.Unlock()

	return s.Snapshot(), nil
}

// Toggle flips the flag for id and persists the whole map. On a storage error the
// in-memory map is rolled back and the error returned.
func (s *Store) Toggle(ctx context.Context, id int64) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.flags[id]
	// absent means not a favorite, so two toggles leave the map as they found it
	if prev {
		delete(s.flags, id)
	} else {
		s.flags[id] = true
	}

	raw, err := encode(s.flags)
	if err == nil {
		err = s.storage.SetItem(ctx, StorageKey, raw)
	}
	if err != nil {
		if had {
			s.flags[id] = prev
		} else {
			delete(s.flags, id)
		}
		return nil, fmt.Errorf("persist favorites: %w", err)
	}

	logger.Debug(ctx).Int64("product_id", id).Bool("favorite", s.flags[id]).Msg("Favorite toggled")
	return copyFlags(s.flags), nil
}

// IsFavorite reports the flag for id; absent ids are not favorites.
func (s *Store) IsFavorite(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[id]
}

// Snapshot returns a copy of the map.
func (s *Store) Snapshot() map[int64]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFlags(s.flags)
}

func decode(raw string) (map[int64]bool, error) {
	flags := make(map[int64]bool)
	if raw == "" {
		return flags, nil
	}

	var stored map[string]bool
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	for k, v := range stored {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-integer product id %q", k)
		}
		if v {
			flags[id] = true
		}
	}
	return flags, nil
}

func encode(flags map[int64]bool) (string, error) {
	stored := make(map[string]bool, len(flags))
	for id, v := range flags {
		stored[strconv.FormatInt(id, 10)] = v
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func copyFlags(in map[int64]bool) map[int64]bool {
	out := make(map[int64]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
