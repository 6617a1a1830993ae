package library

import (
	"context"
	"fmt"
	"sync"

	"kata/internal/cache"
	"kata/internal/models"
	"kata/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const snapshotKeyPrefix = "library:snapshot:"

// snapshot is what survives a restart: the item list plus the view state
// (filters and sort order) the user last had.
type snapshot struct {
	Items   []models.MediaItem `json:"items"`
	Filters Filters            `json:"filters"`
	SortBy  SortOrder          `json:"sortBy"`
}

type userLibrary struct {
	items    []models.MediaItem
	filters  Filters
	sortBy   SortOrder
	hydrated bool
}

// Store keeps each user's full item list in memory. Postgres is the source
// of truth; the in-memory list is the optimistic working copy, and a Redis
// snapshot lets a restarted process serve the last known list before
// re-hydration completes.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*userLibrary
	repo   repository.MediaRepository
	redis  *redis.Client
	logger *logrus.Logger
}

func NewStore(repo repository.MediaRepository, redisClient *redis.Client, logger *logrus.Logger) *Store {
	return &Store{
		users:  make(map[string]*userLibrary),
		repo:   repo,
		redis:  redisClient,
		logger: logger,
	}
}

// Hydrate loads the user's list from Postgres, falling back to the Redis
// snapshot when the database is unreachable. Calling it on an already
// hydrated user is a no-op.
func (s *Store) Hydrate(ctx context.Context, userID string) error {
	s.mu.RLock()
	lib, ok := s.users[userID]
	hydrated := ok && lib.hydrated
	s.mu.RUnlock()
	if hydrated {
		return nil
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		var snap snapshot
		found, cacheErr := cache.GetJSON(ctx, s.redis, snapshotKeyPrefix+userID, &snap)
		if cacheErr != nil || !found {
			return fmt.Errorf("failed to hydrate library: %w", err)
		}
		s.logger.WithError(err).WithField("user_id", userID).
			Warn("Database hydration failed, serving snapshot")
		s.mu.Lock()
		s.users[userID] = &userLibrary{items: snap.Items, filters: snap.Filters, sortBy: snap.SortBy}
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	view := s.users[userID]
	entry := &userLibrary{items: items, hydrated: true}
	if view != nil {
		entry.filters = view.filters
		entry.sortBy = view.sortBy
	}
	s.users[userID] = entry
	s.mu.Unlock()

	s.persistSnapshot(ctx, userID)
	return nil
}

// Items returns a copy of the user's full list.
func (s *Store) Items(userID string) []models.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lib, ok := s.users[userID]
	if !ok {
		return nil
	}
	items := make([]models.MediaItem, len(lib.items))
	copy(items, lib.items)
	return items
}

// View applies the stored filters/sort plus an optional search query and
// returns the resulting list.
func (s *Store) View(userID, searchQuery string) []models.MediaItem {
	s.mu.RLock()
	lib, ok := s.users[userID]
	var filters Filters
	var sortBy SortOrder
	var items []models.MediaItem
	if ok {
		filters = lib.filters
		sortBy = lib.sortBy
		items = make([]models.MediaItem, len(lib.items))
		copy(items, lib.items)
	}
	s.mu.RUnlock()

	return Sort(Search(Filter(items, filters), searchQuery), sortBy)
}

// SetView stores the user's filter and sort state and persists it with the
// snapshot.
func (s *Store) SetView(ctx context.Context, userID string, filters Filters, sortBy SortOrder) {
	s.mu.Lock()
	lib, ok := s.users[userID]
	if !ok {
		lib = &userLibrary{}
		s.users[userID] = lib
	}
	lib.filters = filters
	lib.sortBy = sortBy
	s.mu.Unlock()

	s.persistSnapshot(ctx, userID)
}

// Get returns one item by id.
func (s *Store) Get(userID, id string) (*models.MediaItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lib, ok := s.users[userID]
	if !ok {
		return nil, false
	}
	for i := range lib.items {
		if lib.items[i].ID == id {
			item := lib.items[i]
			return &item, true
		}
	}
	return nil, false
}

// Add applies the item optimistically, then mirrors it to Postgres. A
// mirror failure rolls the local change back and is returned so callers
// never assume optimistic success.
func (s *Store) Add(ctx context.Context, item *models.MediaItem) error {
	s.mu.Lock()
	lib, ok := s.users[item.UserID]
	if !ok {
		lib = &userLibrary{}
		s.users[item.UserID] = lib
	}
	lib.items = append([]models.MediaItem{*item}, lib.items...)
	s.mu.Unlock()

	if err := s.repo.Create(ctx, item); err != nil {
		s.removeLocal(item.UserID, item.ID)
		return fmt.Errorf("failed to save item: %w", err)
	}

	s.persistSnapshot(ctx, item.UserID)
	return nil
}

// Update stamps updatedAt, applies the change optimistically and mirrors
// it, restoring the previous version on mirror failure.
func (s *Store) Update(ctx context.Context, item *models.MediaItem) error {
	item.Touch()

	s.mu.Lock()
	lib, ok := s.users[item.UserID]
	if !ok {
		s.mu.Unlock()
		return repository.ErrNotFound
	}
	var previous *models.MediaItem
	for i := range lib.items {
		if lib.items[i].ID == item.ID {
			old := lib.items[i]
			previous = &old
			lib.items[i] = *item
			break
		}
	}
	s.mu.Unlock()

	if previous == nil {
		return repository.ErrNotFound
	}

	if err := s.repo.Update(ctx, item); err != nil {
		s.replaceLocal(item.UserID, *previous)
		return fmt.Errorf("failed to save item: %w", err)
	}

	s.persistSnapshot(ctx, item.UserID)
	return nil
}

// Remove deletes the item optimistically and mirrors the delete.
func (s *Store) Remove(ctx context.Context, userID, id string) error {
	previous, ok := s.Get(userID, id)
	if !ok {
		return repository.ErrNotFound
	}
	s.removeLocal(userID, id)

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		s.mu.Lock()
		if lib, ok := s.users[userID]; ok {
			lib.items = append(lib.items, *previous)
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.persistSnapshot(ctx, userID)
	return nil
}

// Evict drops a user's in-memory list (sign-out).
func (s *Store) Evict(userID string) {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
}

func (s *Store) removeLocal(userID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lib, ok := s.users[userID]
	if !ok {
		return
	}
	for i := range lib.items {
		if lib.items[i].ID == id {
			lib.items = append(lib.items[:i], lib.items[i+1:]...)
			return
		}
	}
}

func (s *Store) replaceLocal(userID string, item models.MediaItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lib, ok := s.users[userID]
	if !ok {
		return
	}
	for i := range lib.items {
		if lib.items[i].ID == item.ID {
			lib.items[i] = item
			return
		}
	}
}

func (s *Store) persistSnapshot(ctx context.Context, userID string) {
	s.mu.RLock()
	lib, ok := s.users[userID]
	var snap snapshot
	if ok {
		snap = snapshot{Items: lib.items, Filters: lib.filters, SortBy: lib.sortBy}
	}
	s.mu.RUnlock()
	if !ok {
		return
	}

	if err := cache.SetJSON(ctx, s.redis, snapshotKeyPrefix+userID, snap, 0); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to persist library snapshot")
	}
}
