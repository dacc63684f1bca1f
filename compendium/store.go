// Package compendium manages the user's reference notes.
package compendium

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Store keeps the loaded entries sorted by title and tracks the entry that is
// currently open.
type Store struct {
	repo   Repo
	logger zerolog.Logger

	mu        sync.Mutex
	entries   []Entry
	loaded    bool
	loading   bool
	focusedID string
	opened    *Entry
	lastErr   error
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

// Load fetches the entries unless they are loaded or being loaded.
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
		s.lastErr = err
		s.logger.Error().Err(err).Msg("failed to load compendium")
		return errors.Wrap(err, "[compendium.Store.Load]")
	}
	s.entries = sortEntries(entries)
	s.loaded = true
	return nil
}

func (s *Store) Create(ctx context.Context, draft Draft) (Entry, error) {
	if err := draft.Validate(); err != nil {
		return Entry{}, err
	}
	entry, err := s.repo.Create(ctx, draft)
	if err != nil {
		s.recordError(err)
		s.logger.Error().Err(err).Msg("failed to create compendium entry")
		return Entry{}, errors.Wrap(err, "[compendium.Store.Create]")
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
	s.mu.Lock()
	s.focusedID = id
	s.mu.Unlock()

	updated, err := s.repo.Update(ctx, id, draft)
	if err != nil {
		s.recordError(err)
		s.logger.Error().Err(err).Str("id", id).Msg("failed to update compendium entry")
		return errors.Wrap(err, "[compendium.Store.Update]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if updated.ID == "" {
		updated = Entry{ID: id, Title: draft.Title, Body: draft.Body, Tags: ParseTags(draft.Tags)}
	}
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i] = merge(s.entries[i], updated)
		}
	}
	if s.opened != nil && s.opened.ID == id {
		merged := merge(*s.opened, updated)
		s.opened = &merged
	}
	s.entries = sortEntries(s.entries)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.focusedID = id
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.recordError(err)
		s.logger.Error().Err(err).Str("id", id).Msg("failed to delete compendium entry")
		return errors.Wrap(err, "[compendium.Store.Delete]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.DeleteFunc(s.entries, func(e Entry) bool { return e.ID == id })
	s.focusedID = ""
	if s.opened != nil && s.opened.ID == id {
		s.opened = nil
	}
	return nil
}

// Open makes the entry with the given id or slug the open one. An entry that
// is already open is returned without a request.
func (s *Store) Open(ctx context.Context, idOrSlug string) (Entry, error) {
	s.mu.Lock()
	if s.opened != nil && s.opened.Matches(idOrSlug) {
		entry := *s.opened
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	entry, err := s.repo.Get(ctx, idOrSlug)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return Entry{}, errors.Wrap(err, "[compendium.Store.Open]")
	}
	s.lastErr = nil
	s.opened = &entry
	return entry, nil
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = nil
}

func (s *Store) Opened() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened == nil {
		return Entry{}, false
	}
	return *s.opened, true
}

// LastError returns the error of the most recent failed request, or nil.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

func (s *Store) Focused() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == s.focusedID && s.focusedID != "" {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// merge applies the editable fields of updated to current.
func merge(current, updated Entry) Entry {
	current.Title = updated.Title
	current.Body = updated.Body
	current.Tags = updated.Tags
	if updated.Slug != "" {
		current.Slug = updated.Slug
	}
	if updated.UpdatedAt != nil {
		current.UpdatedAt = updated.UpdatedAt
	}
	return current
}

func sortEntries(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	return sorted
}
