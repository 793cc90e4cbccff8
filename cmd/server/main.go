package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/laserworks/workshop-service/internal/config"
	"github.com/laserworks/workshop-service/internal/db"
	"github.com/laserworks/workshop-service/internal/db/memory"
	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/logger"
	"github.com/laserworks/workshop-service/internal/notify"
	"github.com/laserworks/workshop-service/internal/router"
	"github.com/laserworks/workshop-service/internal/service"
	"github.com/laserworks/workshop-service/internal/websockets"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lg := logger.New(logger.Config{Format: cfg.Log.Format, Level: cfg.Log.Level})

	if err := run(cfg, lg); err != nil {
		lg.Fatal().Err(err).Msg("Server stopped")
	}
	lg.Info().Msg("Server exited properly")
}

func run(cfg *config.Config, lg zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	// Entity store
	var (
		store  repository.Store
		health func(context.Context) error
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		lg.Warn().Msg("Using the in-memory store, data is lost on restart")
		store = memory.New(time.Now)
	default:
		database, err := db.NewPostgres(ctx, cfg.Database, lg)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(cfg.Database); err != nil {
			return err
		}
		store = repository.NewFactory(database.DB, time.Now)
		health = database.HealthCheck
	}

	hub := websockets.NewHub(lg)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	// Notifications go straight to the local hub, or through Redis so every
	// instance sees them
	var publisher notify.Publisher = notify.NewHubPublisher(hub, lg)
	if cfg.Redis.Enabled {
		rdb, err := notify.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			return err
		}
		defer rdb.Close()

		redisPublisher := notify.NewRedisPublisher(rdb, cfg.Redis.Channel, lg)
		publisher = redisPublisher
		relay := notify.NewRelay(rdb, cfg.Redis.Channel, hub, lg)
		g.Go(func() error {
			return redisPublisher.Run(gctx)
		})
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	authService := service.NewAuthService(store, service.JWTConfig{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
	})
	if cfg.App.ManagerUsername != "" {
		created, err := authService.EnsureManager(ctx, cfg.App.ManagerUsername, cfg.App.ManagerPassword)
		if err != nil {
			return err
		}
		if created {
			lg.Info().Str("username", cfg.App.ManagerUsername).Msg("Created manager account")
		}
	}

	r := router.New(router.Services{
		Auth:           authService,
		Users:          service.NewUserService(store),
		Orders:         service.NewOrderService(store, publisher, loc),
		Shifts:         service.NewShiftService(store, publisher, time.Now, lg),
		Report:         service.NewReportService(store, time.Now, loc),
		Hub:            hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         health,
	}, lg)

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		lg.Info().Str("address", cfg.Server.Address).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lg.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
