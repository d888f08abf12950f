// Command server runs the storymode HTTP service: a prompt-to-audiobook
// story generator. It loads configuration from the environment, opens the
// SQLite metadata database, prepares the filesystem content store, constructs
// the model collaborators, and serves the web UI and API until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tkellogg/storymode/internal/audio"
	"github.com/tkellogg/storymode/internal/config"
	httpapi "github.com/tkellogg/storymode/internal/http"
	"github.com/tkellogg/storymode/internal/llm"
	"github.com/tkellogg/storymode/internal/observability"
	"github.com/tkellogg/storymode/internal/repo"
	"github.com/tkellogg/storymode/internal/storage"
	"github.com/tkellogg/storymode/internal/sysutil"
	"github.com/tkellogg/storymode/internal/tts"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = ""

// @title           Storymode API
// @version         1.0
// @description     Prompt-to-audiobook story generation service.
// @license.name    MIT
// @BasePath        /api
func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version, "dev")
	log.Info().Str("version", ver).Str("port", cfg.Port).Msg("starting storymode")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless OTEL_ENABLED).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Metadata database. The schema is migrated here, once; request paths
	// assume it is already in place.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("opening database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed, continuing without")
		}
	}

	// Filesystem content store for chapter text and audio. Directories are
	// created lazily on first write, but a root that cannot be created should
	// surface now rather than on the first generation request.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("preparing data directory failed")
	}
	store := storage.NewStore(cfg.DataDir)

	// Model collaborators. A missing API key is fatal: every feature beyond
	// browsing existing stories depends on them.
	gen, err := llm.New(llm.Config{
		APIKey:           cfg.OpenAI.APIKey,
		BaseURL:          cfg.OpenAI.BaseURL,
		Model:            cfg.OpenAI.TextModel,
		Temperature:      cfg.OpenAI.Temperature,
		TitleTemperature: cfg.OpenAI.TitleTemperature,
		Timeout:          cfg.OpenAI.TextTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("text model client")
	}
	synth, err := tts.New(tts.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.TTSModel,
		Voice:   cfg.OpenAI.TTSVoice,
		Timeout: cfg.OpenAI.TTSTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("speech model client")
	}

	// Audiobook assembly shells out to ffmpeg. Narration and text generation
	// work without it, so by default this only warns; set REQUIRE_FFMPEG to
	// fail fast instead.
	if err := audio.CheckFFmpeg(); err != nil {
		if sysutil.IsTruthy(os.Getenv("REQUIRE_FFMPEG")) {
			log.Fatal().Err(err).Msg("ffmpeg required but not available")
		}
		log.Warn().Err(err).Msg("ffmpeg not available, audiobook assembly will fail")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, store, gen, synth, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}

	// Give in-flight requests a grace period. Long generation requests may be
	// cut off; their partial artifacts are re-generated on the next attempt.
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("storymode stopped")
}
