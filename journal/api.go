package journal

import (
	"context"
	"net/url"

	"github.com/jrsteele09/campaign-tracker/apiclient"
	"github.com/pkg/errors"
)

const basePath = "/journal"

// Repo is the remote collection the Store works against.
type Repo interface {
	List(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, draft Draft) (Entry, error)
	Update(ctx context.Context, id string, draft Draft) (Entry, error)
	Delete(ctx context.Context, id string) error
}

// API implements Repo over HTTP.
type API struct {
	client *apiclient.Client
}

var _ Repo = (*API)(nil)

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

func (a *API) List(ctx context.Context) ([]Entry, error) {
	entries, err := apiclient.GetJSON[[]Entry](ctx, a.client, basePath)
	if err != nil {
		return nil, errors.Wrap(err, "[journal.API.List]")
	}
	return entries, nil
}

func (a *API) Create(ctx context.Context, draft Draft) (Entry, error) {
	entry, err := apiclient.PostJSON[Entry](ctx, a.client, basePath, draft)
	if err != nil {
		return Entry{}, errors.Wrap(err, "[journal.API.Create]")
	}
	return entry, nil
}

func (a *API) Update(ctx context.Context, id string, draft Draft) (Entry, error) {
	entry, err := apiclient.PutJSON[Entry](ctx, a.client, entryPath(id), draft)
	if err != nil {
		return Entry{}, errors.Wrap(err, "[journal.API.Update]")
	}
	return entry, nil
}

func (a *API) Delete(ctx context.Context, id string) error {
	if err := a.client.Delete(ctx, entryPath(id)); err != nil {
		return errors.Wrap(err, "[journal.API.Delete]")
	}
	return nil
}

func entryPath(id string) string {
	return basePath + "/" + url.PathEscape(id)
}
