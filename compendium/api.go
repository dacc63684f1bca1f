package compendium

import (
	"context"
	"net/url"

	"github.com/jrsteele09/campaign-tracker/apiclient"
	"github.com/pkg/errors"
)

const basePath = "/compendium"

type Repo interface {
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, idOrSlug string) (Entry, error)
	Create(ctx context.Context, draft Draft) (Entry, error)
	Update(ctx context.Context, id string, draft Draft) (Entry, error)
	Delete(ctx context.Context, id string) error
}

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
		return nil, errors.Wrap(err, "[compendium.API.List]")
	}
	return entries, nil
}

// Get fetches one entry. The server accepts either the id or the slug.
func (a *API) Get(ctx context.Context, idOrSlug string) (Entry, error) {
	entry, err := apiclient.GetJSON[Entry](ctx, a.client, entryPath(idOrSlug))
	if err != nil {
		return Entry{}, errors.Wrapf(err, "[compendium.API.Get] %s", idOrSlug)
	}
	return entry, nil
}

func (a *API) Create(ctx context.Context, draft Draft) (Entry, error) {
	entry, err := apiclient.PostJSON[Entry](ctx, a.client, basePath, draft)
	if err != nil {
		return Entry{}, errors.Wrap(err, "[compendium.API.Create]")
	}
	return entry, nil
}

func (a *API) Update(ctx context.Context, id string, draft Draft) (Entry, error) {
	entry, err := apiclient.PutJSON[Entry](ctx, a.client, entryPath(id), draft)
	if err != nil {
		return Entry{}, errors.Wrap(err, "[compendium.API.Update]")
	}
	return entry, nil
}

func (a *API) Delete(ctx context.Context, id string) error {
	if err := a.client.Delete(ctx, entryPath(id)); err != nil {
		return errors.Wrap(err, "[compendium.API.Delete]")
	}
	return nil
}

func entryPath(key string) string {
	return basePath + "/" + url.PathEscape(key)
}
