package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/example/vicroadsq/internal/config"
	"github.com/example/vicroadsq/internal/db"
	"github.com/example/vicroadsq/internal/logging"
	"github.com/example/vicroadsq/internal/migrate"
	"github.com/example/vicroadsq/internal/offices"
	"github.com/example/vicroadsq/internal/portal"
	"github.com/example/vicroadsq/internal/sightings"
	"github.com/rs/zerolog"
)

// app holds what every command builds from the config file.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	offices   offices.Store
	sightings *sightings.Repo

	closers []io.Closer
	db      *db.DB
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, closers: []io.Closer{closer}}

	if cfg.DatabaseURL == "" {
		a.offices = offices.FileStore{Path: cfg.OfficesFile}
		return a, nil
	}

	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = d
	if err := d.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := migrate.Up(ctx, d); err != nil {
		a.Close()
		return nil, err
	}
	a.offices = offices.NewRepo(d)
	a.sightings = sightings.NewRepo(d)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func (a *app) portalClient() (*portal.Client, error) {
	return portal.NewClient(portal.ClientOptions{BaseURL: a.cfg.BaseURL})
}

func (a *app) authenticator(tr portal.Transport) *portal.Authenticator {
	return &portal.Authenticator{
		Transport:     tr,
		LicenseNumber: a.cfg.LicenseNumber,
		LastName:      a.cfg.LastName,
		Log:           logging.Component(a.log, "auth"),
	}
}
