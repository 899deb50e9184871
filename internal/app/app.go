package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/auth"
	"github.com/vovakirdan/clubroom-server/internal/config"
	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/service/rooms"
	"github.com/vovakirdan/clubroom-server/internal/store"
	"github.com/vovakirdan/clubroom-server/internal/store/sqlite"
	"github.com/vovakirdan/clubroom-server/internal/sweep"
	transporthttp "github.com/vovakirdan/clubroom-server/internal/transport/http"
)

// App wires together core, services and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	rooms           *rooms.Service
	sweeper         *sweep.Sweeper
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := auth.NewService(st, JWTConfig(cfg))

	hub := core.NewHub(logger)
	roomService := rooms.New(hub, st, logger)
	sweeper := sweep.New(roomService, rooms.ExpiryPolicy{
		PresenterGrace: cfg.PresenterGrace,
		Lifetime:       cfg.RoomLifetime,
	}, cfg.SweepInterval, logger)

	server := transporthttp.NewServer(roomService, authService, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		rooms:           roomService,
		sweeper:         sweeper,
		store:           st,
		log:             logger,
	}, nil
}

// JWTConfig derives token settings from cfg.
func JWTConfig(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
// Shutdown order: stop accepting requests, dispose rooms, stop the hub, close the store.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		a.hub.Run(hubCtx)
		close(hubDone)
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sweeper.Run(sweepCtx)

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			runErr = err
		} else {
			runErr = <-serverErr
		}
	}

	stopSweep()
	a.shutdownRooms()
	stopHub()
	<-hubDone
	a.cleanup()
	return runErr
}

func (a *App) shutdownRooms() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.rooms.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to dispose rooms")
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
