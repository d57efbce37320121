// Package app assembles the clinic client: one credential store, one
// dispatcher, one session and one entity cache per process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/core/ports"
	"github.com/clinicdesk/clinic-client/internal/core/service"
	"github.com/clinicdesk/clinic-client/internal/infrastructure/credential"
	"github.com/clinicdesk/clinic-client/internal/infrastructure/db/redis"
	"github.com/clinicdesk/clinic-client/internal/infrastructure/httpclient"
	"github.com/clinicdesk/clinic-client/internal/pkg/config"
)

const userAgent = "clinic-client/1"

// Options configures New.
type Options struct {
	Client config.ClientConfig
	Redis  config.RedisConfig
	// Backend overrides the token backend selected by Client.TokenStore.
	Backend    ports.TokenBackend
	Navigator  ports.Navigator
	HTTPClient *http.Client
	Log        zerolog.Logger
}

// App is the client context handed to every caller. Fields are safe for
// concurrent use.
type App struct {
	Store      *credential.Store
	Dispatcher *httpclient.Dispatcher
	Session    *service.SessionService
	Cache      *service.EntityCache
	Patients   *service.PatientCollection
	Chat       *service.ChatService

	log     zerolog.Logger
	closers []func() error
}

// New builds the client and restores the persisted credential. Call Start
// to resolve the session before issuing protected calls.
func New(ctx context.Context, opts Options) (*App, error) {
	a := &App{log: opts.Log}

	backend := opts.Backend
	if backend == nil {
		var err error
		if backend, err = a.newBackend(ctx, opts); err != nil {
			return nil, err
		}
	}

	a.Store = credential.NewStore(backend, opts.Log)
	if _, err := a.Store.Load(ctx); err != nil {
		// An unreadable credential is treated like an invalid one.
		opts.Log.Warn().Err(err).Msg("discarding unreadable credential")
		if clearErr := a.Store.Clear(); clearErr != nil {
			opts.Log.Error().Err(clearErr).Msg("failed to clear unreadable credential")
		}
	}

	dispatcher, err := httpclient.NewDispatcher(a.Store, httpclient.Options{
		BaseURL:    opts.Client.APIURL,
		Timeout:    opts.Client.Timeout,
		HTTPClient: opts.HTTPClient,
		Navigator:  opts.Navigator,
		UserAgent:  userAgent,
	}, opts.Log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Dispatcher = dispatcher

	a.Session = service.NewSessionService(dispatcher, a.Store, opts.Log)
	dispatcher.AddExpiryListener(a.Session)

	a.Cache = service.NewEntityCache()
	a.Patients = service.NewPatientCollection(dispatcher, a.Cache, a.Session, opts.Log)
	a.Chat = service.NewChatService(dispatcher, a.Session, opts.Log)
	return a, nil
}

// Start resolves the initial session. A failed restore leaves the session
// anonymous and is reported but not fatal.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Bootstrap(ctx); err != nil {
		a.log.Info().Err(err).Msg("starting anonymous")
	}
	return nil
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newBackend(ctx context.Context, opts Options) (ports.TokenBackend, error) {
	switch opts.Client.TokenStore {
	case config.TokenStoreMemory:
		return credential.NewMemoryBackend(""), nil

	case config.TokenStoreRedis:
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     opts.Redis.Addr,
			DB:       opts.Redis.DB,
			Password: opts.Redis.Password,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return redis.NewTokenBackend(client, opts.Client.Profile, opts.Redis.TokenTTL), nil

	case config.TokenStoreFile, "":
		path := opts.Client.TokenFile
		if path == "" {
			var err error
			if path, err = credential.DefaultPath(opts.Client.Profile); err != nil {
				return nil, err
			}
		}
		return credential.NewFileBackend(path), nil
	}
	return nil, fmt.Errorf("unknown token store %q", opts.Client.TokenStore)
}
