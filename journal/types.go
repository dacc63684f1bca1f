package journal

import (
	"strconv"
	"strings"

	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/notes"
)

// Entry is one dated session log.
type Entry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Day       string  `json:"day"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

// DayNumber returns the in-game day, and false when Day is not an integer.
func (e Entry) DayNumber() (int, bool) {
	return parseDay(e.Day)
}

// Preview returns a plain-text snippet of the body of at most n runes.
func (e Entry) Preview(n int) string {
	return notes.Snip(e.Body, notes.WithMaxLength(n))
}

// Draft is the user supplied part of an entry.
type Draft struct {
	Title string `json:"title"`
	Day   string `json:"day"`
	Body  string `json:"body"`
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return cterrors.ErrTitleRequired
	}
	if _, ok := parseDay(d.Day); !ok {
		return cterrors.Wrapf(cterrors.ErrInvalidDay, "day %q", d.Day)
	}
	return nil
}

func parseDay(day string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(day))
	return n, err == nil
}
