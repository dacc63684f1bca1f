// Package filerepo stores credentials as a JSON file readable only by the
// current user.
package filerepo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/pkg/errors"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

var _ tokens.Repo = (*Repo)(nil)

type Repo struct {
	path string
}

func New(path string) (*Repo, error) {
	if path == "" {
		return nil, errors.New("[filerepo.New] path is required")
	}
	return &Repo{path: path}, nil
}

// Path returns the file the credentials live in.
func (r *Repo) Path() string {
	return r.path
}

func (r *Repo) Load(_ context.Context) (*tokens.Credentials, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[filerepo.Load] read")
	}
	if len(data) == 0 {
		return nil, nil
	}
	var creds tokens.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errors.Wrapf(err, "[filerepo.Load] decode %s", r.path)
	}
	if creds.Empty() {
		return nil, nil
	}
	return &creds, nil
}

// Save replaces the file atomically so a crash leaves either the old or the
// new credentials, never a partial write.
func (r *Repo) Save(ctx context.Context, creds *tokens.Credentials) error {
	if creds.Empty() {
		return r.Clear(ctx)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filerepo.Save] encode")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), dirMode); err != nil {
		return errors.Wrap(err, "[filerepo.Save] mkdir")
	}
	if err := writeFile(r.path, data); err != nil {
		return errors.Wrap(err, "[filerepo.Save] write")
	}
	return nil
}

func (r *Repo) Clear(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "[filerepo.Clear]")
	}
	return nil
}
