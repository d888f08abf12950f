// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	_ "github.com/tkellogg/storymode/docs" // swagger spec registration
	"github.com/tkellogg/storymode/internal/audio"
	"github.com/tkellogg/storymode/internal/config"
	"github.com/tkellogg/storymode/internal/http/handlers"
	"github.com/tkellogg/storymode/internal/http/middleware"
	"github.com/tkellogg/storymode/internal/llm"
	"github.com/tkellogg/storymode/internal/services"
	"github.com/tkellogg/storymode/internal/storage"
	"github.com/tkellogg/storymode/internal/tts"
	"github.com/tkellogg/storymode/internal/web"
)

// RegisterRoutes attaches all middleware, pages and API endpoints to the
// given Gin engine. The model collaborators come in as interfaces so tests
// (and alternative providers) can swap them without touching the transport.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP)
//  8. Gzip (audio streams excluded, MP3 is already compressed)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store *storage.Store, gen llm.Generator, synth tts.Synthesizer, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(web.Templates())

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; the API only ever accepts small forms)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 8) Compress text responses; audio endpoints stream MP3 as-is
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`.*/audio$`, `.*/audiobook$`}),
	))

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "HX-Request", "HX-Target", "HX-Trigger"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "HX-Request", "HX-Target", "HX-Trigger"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (optional)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/store/model collaborators
	storySvc := services.NewStoryService(db, store)
	storySvc.DefaultChapters = cfg.TotalChapters
	storySvc.DefaultWords = cfg.WordsPerChapter
	storySvc.RecentLimit = cfg.RecentStoriesLimit

	chapterSvc := services.NewChapterService(db, store, gen)
	chapterSvc.TitleLocale = language.English

	narrator := &audio.Generator{TTS: synth, MaxChunkChars: cfg.ChunkMaxChars}
	audioSvc := services.NewAudioService(db, store, narrator)
	audiobookSvc := services.NewAudiobookService(db, store)
	pipelineSvc := services.NewPipelineService(db, store, chapterSvc, audioSvc)

	h := handlers.New(storySvc, chapterSvc, audioSvc, audiobookSvc, pipelineSvc)
	h.DefaultChapters = cfg.TotalChapters
	h.DefaultWords = cfg.WordsPerChapter

	// Pages
	r.GET("/", h.Home)
	r.GET("/story-builder", h.StoryBuilder)
	r.GET("/stories/:id/edit", h.EditStory)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api"
	{
		// Stories
		api.POST("/stories", h.CreateStory)
		api.DELETE("/stories/:id", h.DeleteStory)
		api.PUT("/stories/:id/title", h.UpdateStoryTitle)

		// Chapters
		api.POST("/stories/:id/chapters", h.GenerateChapter)
		api.GET("/stories/:id/chapters/:n", h.GetChapter)
		api.GET("/stories/:id/chapters-list", h.ChaptersList)
		api.POST("/stories/:id/generate-all", h.GenerateAll)

		// Narration and audiobook
		api.POST("/stories/:id/chapters/:n/audio", h.GenerateChapterAudio)
		api.GET("/stories/:id/chapters/:n/audio", h.GetChapterAudio)
		api.POST("/stories/:id/audiobook", h.AssembleAudiobook)
		api.GET("/stories/:id/audiobook", h.GetAudiobook)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
