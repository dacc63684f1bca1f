package compendium

import (
	"strings"

	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/notes"
)

// Entry is a reference note: a character, place, item or rule.
type Entry struct {
	ID        string   `json:"id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt *string  `json:"updated_at,omitempty"`
}

// Matches reports whether key is the entry's id or slug.
func (e Entry) Matches(key string) bool {
	return key != "" && (e.ID == key || e.Slug == key)
}

// LinkedBody returns the body with wiki links turned into compendium links.
func (e Entry) LinkedBody() string {
	return notes.TransformWikiLinks(e.Body)
}

func (e Entry) Preview(n int) string {
	return notes.Snip(e.Body, notes.WithMaxLength(n))
}

// TagString joins the tags the way they are typed in a Draft.
func (e Entry) TagString() string {
	return strings.Join(e.Tags, ", ")
}

// Draft is the user supplied part of an entry. Tags travel as the raw
// comma separated string and are split by the server.
type Draft struct {
	Title string `json:"title"`
	Tags  string `json:"tags"`
	Body  string `json:"body"`
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return cterrors.ErrTitleRequired
	}
	return nil
}

// ParseTags splits a comma separated tag string, dropping blanks.
func ParseTags(tags string) []string {
	out := make([]string, 0)
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
