package apifake

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jrsteele09/campaign-tracker/internal/utils"
)

type journalEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Day       string  `json:"day"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

type journalRequest struct {
	Title string `json:"title"`
	Day   string `json:"day"`
	Body  string `json:"body"`
}

type compendiumEntry struct {
	ID        string   `json:"id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt *string  `json:"updated_at,omitempty"`
}

type compendiumRequest struct {
	Title string `json:"title"`
	Tags  string `json:"tags"`
	Body  string `json:"body"`
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func splitTags(tags string) []string {
	out := make([]string, 0)
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Journal

func (s *Server) journalFor(username string) map[string]*journalEntry {
	entries, ok := s.journal[username]
	if !ok {
		entries = make(map[string]*journalEntry)
		s.journal[username] = entries
	}
	return entries
}

func (s *Server) handleJournalList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.journalFor(usernameFrom(r))
	out := make([]*journalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt || (out[i].CreatedAt == out[j].CreatedAt && out[i].ID < out[j].ID) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleJournalCreate(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &journalEntry{ID: uuid.NewString(), Title: req.Title, Body: req.Body, Day: req.Day, CreatedAt: s.timestamp()}
	s.journalFor(usernameFrom(r))[e.ID] = e
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleJournalUpdate(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.journalFor(usernameFrom(r))[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "journal entry not found")
		return
	}
	e.Title, e.Body, e.Day, e.UpdatedAt = req.Title, req.Body, req.Day, utils.Ptr(s.timestamp())
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleJournalDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.journalFor(usernameFrom(r))
	id := mux.Vars(r)["id"]
	if _, ok := entries[id]; !ok {
		writeError(w, http.StatusNotFound, "journal entry not found")
		return
	}
	delete(entries, id)
	w.WriteHeader(http.StatusNoContent)
}

// Compendium

func (s *Server) compendiumFor(username string) map[string]*compendiumEntry {
	entries, ok := s.compendium[username]
	if !ok {
		entries = make(map[string]*compendiumEntry)
		s.compendium[username] = entries
	}
	return entries
}

func (s *Server) handleCompendiumList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.compendiumFor(usernameFrom(r))
	out := make([]*compendiumEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompendiumGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := mux.Vars(r)["key"]
	for _, e := range s.compendiumFor(usernameFrom(r)) {
		if e.ID == key || e.Slug == key {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "compendium entry not found")
}

func (s *Server) handleCompendiumCreate(w http.ResponseWriter, r *http.Request) {
	var req compendiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &compendiumEntry{
		ID:        uuid.NewString(),
		Slug:      slugify(req.Title),
		Title:     req.Title,
		Body:      req.Body,
		Tags:      splitTags(req.Tags),
		CreatedAt: s.timestamp(),
	}
	s.compendiumFor(usernameFrom(r))[e.ID] = e
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleCompendiumUpdate(w http.ResponseWriter, r *http.Request) {
	var req compendiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.compendiumFor(usernameFrom(r))[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "compendium entry not found")
		return
	}
	e.Title, e.Slug, e.Body, e.Tags, e.UpdatedAt = req.Title, slugify(req.Title), req.Body, splitTags(req.Tags), utils.Ptr(s.timestamp())
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCompendiumDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.compendiumFor(usernameFrom(r))
	id := mux.Vars(r)["id"]
	if _, ok := entries[id]; !ok {
		writeError(w, http.StatusNotFound, "compendium entry not found")
		return
	}
	delete(entries, id)
	w.WriteHeader(http.StatusNoContent)
}
