// Package app wires configuration into a ready to use client: the request
// client, the session store and the feature stores.
package app

import (
	"context"
	"io"
	"os"

	"github.com/jrsteele09/campaign-tracker/apiclient"
	"github.com/jrsteele09/campaign-tracker/auth"
	"github.com/jrsteele09/campaign-tracker/compendium"
	"github.com/jrsteele09/campaign-tracker/internal/config"
	"github.com/jrsteele09/campaign-tracker/internal/logging"
	"github.com/jrsteele09/campaign-tracker/internal/metrics"
	"github.com/jrsteele09/campaign-tracker/journal"
	"github.com/jrsteele09/campaign-tracker/session"
	"github.com/jrsteele09/campaign-tracker/tokens"
	"github.com/jrsteele09/campaign-tracker/tokens/tokenstore"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// App holds every long lived component of the client.
type App struct {
	Config     config.Config
	Logger     zerolog.Logger
	Metrics    *metrics.Recorder
	API        *apiclient.Client // authenticated, feature modules use this
	Auth       *auth.Client
	Session    *session.Store
	Journal    *journal.Store
	Compendium *compendium.Store

	repoCloser io.Closer
}

type options struct {
	logOutput  io.Writer
	registerer prometheus.Registerer
	repo       tokens.Repo
	httpOpts   []apiclient.Option
}

type Option func(*options)

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTokenRepo bypasses the configured token store.
func WithTokenRepo(repo tokens.Repo) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// WithAPIClientOptions passes extra options to the request client.
func WithAPIClientOptions(opts ...apiclient.Option) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, opts...)
	}
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("[app.New] config is required")
	}
	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger := logging.New(cfg.GetLogLevel(), cfg.GetEnv(), o.logOutput)
	recorder := metrics.New(o.registerer)

	repo, closer := o.repo, io.Closer(nil)
	if repo == nil {
		var err error
		repo, closer, err = tokenstore.NewRepo(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "[app.New]")
		}
	}

	base, err := apiclient.New(cfg.GetAPIURL(), append([]apiclient.Option{
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
		apiclient.WithLogger(logger.With().Str("component", "apiclient").Logger()),
		apiclient.WithMetrics(recorder),
	}, o.httpOpts...)...)
	if err != nil {
		closeQuietly(closer)
		return nil, errors.Wrap(err, "[app.New]")
	}

	authClient, err := auth.NewClient(base)
	if err != nil {
		closeQuietly(closer)
		return nil, errors.Wrap(err, "[app.New]")
	}

	store, err := session.NewStore(authClient,
		session.WithLogger(logger.With().Str("component", "session").Logger()),
		session.WithMetrics(recorder),
		session.WithTokenRepo(repo),
		session.WithRefreshTimeout(cfg.GetRefreshTimeout()),
		session.WithLogoutTimeout(cfg.GetLogoutTimeout()),
	)
	if err != nil {
		closeQuietly(closer)
		return nil, errors.Wrap(err, "[app.New]")
	}

	api := base.WithCredentials(store)
	return &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    recorder,
		API:        api,
		Auth:       authClient,
		Session:    store,
		Journal:    journal.NewStore(journal.NewAPI(api), journal.WithLogger(logger.With().Str("component", "journal").Logger())),
		Compendium: compendium.NewStore(compendium.NewAPI(api), compendium.WithLogger(logger.With().Str("component", "compendium").Logger())),
		repoCloser: closer,
	}, nil
}

// RequireSession restores a persisted session and fails when there is none.
func (a *App) RequireSession(ctx context.Context) error {
	if err := a.Session.Authenticate(ctx); err != nil {
		return err
	}
	if !a.Session.Snapshot().IsAuthenticated {
		return ErrLoginRequired
	}
	return nil
}

// Close releases the token store connection.
func (a *App) Close() error {
	if a.repoCloser == nil {
		return nil
	}
	return a.repoCloser.Close()
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
