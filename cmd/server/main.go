package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/clock"
	"github.com/vendpair/vendpair-go/internal/config"
	"github.com/vendpair/vendpair-go/internal/database"
	"github.com/vendpair/vendpair-go/internal/handler"
	"github.com/vendpair/vendpair-go/internal/jobs"
	"github.com/vendpair/vendpair-go/internal/middleware"
	"github.com/vendpair/vendpair-go/internal/redis"
	"github.com/vendpair/vendpair-go/internal/repository"
	"github.com/vendpair/vendpair-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	clk, err := clock.New(cfg.OrgTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.OrgTimezone).Msg("invalid timezone")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := db.RunMigrations(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	pairRepo := repository.NewPairRepository(db.DB)

	if cfg.SeedSampleData {
		if err := service.SeedSampleData(context.Background(), userRepo); err != nil {
			log.Fatal().Err(err).Msg("failed to seed sample data")
		}
	}

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL())
	directoryService := service.NewDirectoryService(userRepo, clk)
	pairingService := service.NewPairingService(db, pairRepo, userRepo, clk)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	loginLimitMiddleware := middleware.NewLoginLimitMiddleware(redisClient.Client)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(directoryService)
	pairHandler := handler.NewPairHandler(pairingService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(middleware.CORS)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(loginLimitMiddleware.Handler).Post("/register", authHandler.Register)
		r.With(loginLimitMiddleware.Handler).Post("/login", authHandler.Login)

		r.Route("/users", func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.Mount("/", userHandler.Routes())
		})

		r.Route("/pairs", func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.Mount("/", pairHandler.Routes())
		})
	})

	resetJob := jobs.NewWeeklyResetJob(pairRepo, clk, config.WeeklyResetInterval)
	resetJob.Start()
	defer resetJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
