// Package app wires configuration, storage, cache and the API client into
// the services the CLI and TUI use.
package app

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/infra/apiclient"
	"github.com/aalvaropc/tether/internal/infra/cache"
	"github.com/aalvaropc/tether/internal/infra/config"
	"github.com/aalvaropc/tether/internal/infra/logger"
	"github.com/aalvaropc/tether/internal/infra/snapshot"
	"github.com/aalvaropc/tether/internal/infra/store"
	"github.com/aalvaropc/tether/internal/usecase"
)

// Options carries what the command line knows before config is loaded.
// Nil pointers leave the loaded value alone.
type Options struct {
	Root       string
	ConfigPath string // empty means <Root>/tether.yaml

	APIURL *string
	APIKey *string
	Debug  bool
}

type App struct {
	Root   string
	Config domain.Config

	Store     *store.Factory
	Client    *apiclient.Client
	Resources *usecase.ResourceService
	Users     *usecase.UserService
	Errors    *usecase.ErrorHandler

	log     zerolog.Logger
	state   domain.StateHolder
	closers []func() error
}

// Open loads configuration with precedence defaults < file < env < opts and
// builds every dependency. The returned App reports StateRunning. On failure
// Open still returns the App, already closed and reporting StateError, next
// to the error.
func Open(ctx context.Context, opts Options) (*App, error) {
	a := &App{Root: opts.Root, log: logger.WithComponent("app")}

	cfg, err := loadConfig(opts)
	if err != nil {
		a.fail(err)
		return a, err
	}
	a.Config = cfg

	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		a.fail(err)
		return a, err
	}

	a.state.Store(domain.StateRunning)
	a.log.Debug().
		Str("root", a.Root).
		Str("api_url", cfg.API.URL).
		Str("store", string(cfg.Store.Driver)).
		Str("cache", string(cfg.Cache.Driver)).
		Msg("app.ready")
	return a, nil
}

func (a *App) fail(err error) {
	a.state.Store(domain.StateError)
	a.log.Error().Err(err).Str("root", a.Root).Msg("app.open_failed")
}

func loadConfig(opts Options) (domain.Config, error) {
	var (
		cfg domain.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadRoot(opts.Root)
	}
	if err != nil {
		return cfg, err
	}

	if opts.APIURL != nil && *opts.APIURL != "" {
		cfg.API.URL = *opts.APIURL
	}
	if opts.APIKey != nil && *opts.APIKey != "" {
		cfg.API.Key = *opts.APIKey
	}
	if opts.Debug {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	st, err := store.Open(ctx, a.Root, cfg.Store)
	if err != nil {
		return err
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	rc, closeCache, err := cache.Open(ctx, cfg.Cache, cfg.Features)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeCache)

	client, err := apiclient.New(cfg.API,
		apiclient.WithRateLimiting(cfg.Features.RateLimiting),
		apiclient.WithTracing(cfg.Features.Experimental),
		apiclient.WithLogger(logger.WithComponent("apiclient")),
	)
	if err != nil {
		return err
	}
	a.Client = client
	a.closers = append(a.closers, func() error {
		client.Close()
		return nil
	})

	a.Resources = usecase.NewResourceService(
		apiclient.NewResources(client),
		rc,
		usecase.WithProcessors(usecase.DefaultProcessors(logger.WithComponent("processor"))),
		usecase.WithRepository(st.Resources),
		usecase.WithResourceLogger(logger.WithComponent("resources")),
	)
	a.Users = usecase.NewUserService(st.Users)
	a.Errors = usecase.NewErrorHandler(logger.WithComponent("errors"))
	return nil
}

// Transfer returns export/import over a snapshot directory. An empty dir
// means <root>/exports. opts follow the defaults (index on, masking on).
func (a *App) Transfer(dir string, opts ...snapshot.Option) (*usecase.Transfer, *snapshot.JSONStore) {
	base := []snapshot.Option{
		snapshot.WithIndex(true),
		snapshot.WithLogger(logger.WithComponent("snapshot")),
	}
	snaps := snapshot.NewJSONStore(a.Root, dir, append(base, opts...)...)
	return usecase.NewTransfer(a.Store.Resources, a.Users, snaps), snaps
}

func (a *App) AppState() domain.AppState { return a.state.Load() }

func (a *App) IsFeatureEnabled(name string) bool { return a.Config.Features.Enabled(name) }

// Close logs operation counters when metrics are on, then releases the
// backends in reverse order.
func (a *App) Close() error {
	if a.state.Load() == domain.StateRunning {
		a.state.Store(domain.StateShuttingDown)
	}
	if a.Config.Features.Metrics && a.Resources != nil {
		a.logCounters()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) logCounters() {
	counters := a.Resources.Counters()
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c := counters[name]; c.Count() > 0 {
			c.LogSummary(a.log, zerolog.DebugLevel)
		}
	}
	if a.Client != nil && a.Client.Calls().Count() > 0 {
		a.Client.Calls().LogSummary(a.log, zerolog.DebugLevel)
	}
}
