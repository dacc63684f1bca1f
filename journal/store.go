// Package journal manages the user's dated session logs.
package journal

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Store is the client-side view of the journal: the loaded entries, kept
// sorted newest day first, and which entry has focus.
type Store struct {
	repo   Repo
	logger zerolog.Logger

	mu        sync.Mutex
	entries   []Entry
	loaded    bool
	loading   bool
	focusedID string
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(repo Repo, options ...Option) *Store {
	s := &Store{repo: repo, logger: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Load fetches the entries once. It does nothing when they are already
// loaded or another Load is running.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded || s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	entries, err := s.repo.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load journal entries")
		return errors.Wrap(err, "[journal.Store.Load]")
	}
	s.entries = sortEntries(entries)
	s.loaded = true
	s.logger.Debug().Int("count", len(entries)).Msg("journal loaded")
	return nil
}

// Reload drops the cached entries and loads them again.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
	return s.Load(ctx)
}

func (s *Store) Create(ctx context.Context, draft Draft) (Entry, error) {
	if err := draft.Validate(); err != nil {
		return Entry{}, err
	}
	entry, err := s.repo.Create(ctx, draft)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create journal entry")
		return Entry{}, errors.Wrap(err, "[journal.Store.Create]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = sortEntries(append([]Entry{entry}, s.entries...))
	s.focusedID = entry.ID
	return entry, nil
}

func (s *Store) Update(ctx context.Context, id string, draft Draft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	s.Focus(id)

	updated, err := s.repo.Update(ctx, id, draft)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("failed to update journal entry")
		return errors.Wrap(err, "[journal.Store.Update]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID != id {
			continue
		}
		s.entries[i].Title = draft.Title
		s.entries[i].Day = draft.Day
		s.entries[i].Body = draft.Body
		if updated.UpdatedAt != nil {
			s.entries[i].UpdatedAt = updated.UpdatedAt
		}
	}
	s.entries = sortEntries(s.entries)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.Focus(id)
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("failed to delete journal entry")
		return errors.Wrap(err, "[journal.Store.Delete]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.DeleteFunc(s.entries, func(e Entry) bool { return e.ID == id })
	s.focusedID = ""
	return nil
}

// Entries returns a copy of the loaded entries, highest day first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) Focus(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focusedID = id
}

// Focused returns the entry that was last created, edited or focused.
func (s *Store) Focused() (Entry, bool) {
	s.mu.Lock()
	id := s.focusedID
	s.mu.Unlock()
	if id == "" {
		return Entry{}, false
	}
	return s.Get(id)
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// sortEntries orders by day descending. Entries whose day is not a number
// go last, keeping their relative order.
func sortEntries(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		da, okA := a.DayNumber()
		db, okB := b.DayNumber()
		switch {
		case okA && okB:
			return cmp.Compare(db, da)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return sorted
}
