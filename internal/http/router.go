// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/fittingroom/training-backend/internal/archive"
	"github.com/fittingroom/training-backend/internal/config"
	"github.com/fittingroom/training-backend/internal/domain"
	"github.com/fittingroom/training-backend/internal/http/handlers"
	"github.com/fittingroom/training-backend/internal/http/middleware"
	"github.com/fittingroom/training-backend/internal/identity"
	"github.com/fittingroom/training-backend/internal/provider"
	"github.com/fittingroom/training-backend/internal/repo"
	"github.com/fittingroom/training-backend/internal/services"
)

// profileRepoShim adapts the repository free functions to the
// services.ProfileRepo interface expected by the ProfileService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type profileRepoShim struct{}

// GetProfile proxies repo.GetProfile.
func (profileRepoShim) GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	return repo.GetProfile(ctx, db, userID)
}

// SetTrainedModel proxies repo.SetTrainedModel.
func (profileRepoShim) SetTrainedModel(ctx context.Context, db *gorm.DB, userID, modelID string) error {
	return repo.SetTrainedModel(ctx, db, userID, modelID)
}

// idemStoreShim adapts the idempotency repo functions to the
// handlers.IdempotencyStore interface, binding the DB handle and TTL.
type idemStoreShim struct {
	db  *gorm.DB
	ttl time.Duration
}

// Lookup proxies repo.GetIdempotency.
func (s idemStoreShim) Lookup(ctx context.Context, userID, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, userID, key, now)
}

// Record proxies repo.CreateIdempotency.
func (s idemStoreShim) Record(ctx context.Context, userID, key, requestID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, key, requestID, status, s.ttl)
	return err
}

// Dependencies carries the externally constructed collaborators the router
// needs. Tests substitute fakes here; main wires the real clients.
type Dependencies struct {
	// Verifier resolves bearer tokens to user ids.
	Verifier identity.Verifier
	// Archiver downloads and packs source images.
	Archiver services.Archiver
	// Provider is the training provider client.
	Provider services.TrainingProvider
}

// NewDependencies builds the production collaborators from configuration.
// The provider client creation fails when no API key is configured.
func NewDependencies(cfg config.Config) (Dependencies, error) {
	pc, err := provider.NewClient(provider.Options{
		APIKey:      cfg.Provider.APIKey,
		QueueURL:    cfg.Provider.QueueURL,
		StorageURL:  cfg.Provider.StorageURL,
		TrainingApp: cfg.Provider.TrainingApp,
		Timeout:     cfg.Provider.Timeout,
	})
	if err != nil {
		return Dependencies{}, err
	}
	return Dependencies{
		Verifier: identity.NewHTTPVerifier(cfg.Identity.BaseURL, cfg.Identity.APIKey, cfg.Identity.Timeout),
		Archiver: archive.NewBuilder(cfg.Archive.FetchTimeout),
		Provider: pc,
	}, nil
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health and metrics endpoints, and then mounts the public API under
// the configured base path. Client-facing routes sit behind bearer
// authentication with idempotency and rate limiting; the provider webhook is
// mounted outside authentication because the provider carries no user token.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII and signed-URL scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and Security headers
//  8. Per-group: Authenticate → IdempotencyValidator → RateLimiter
//     (the validator runs after auth so replays key on the real user,
//     and before the rate limiter to allow bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Dependencies, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"apikey", // project-level auth provider key
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; submissions carry URLs, not images)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	corsHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		"apikey", "x-client-info", middleware.HeaderIdempotencyKey,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
			// Preflight answers with an empty 200 rather than the 204 default.
			OptionsResponseStatusCode: http.StatusOK,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:              cfg.CORS.AllowedOrigins,
			AllowMethods:              []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:              corsHeaders,
			ExposeHeaders:             []string{"X-Request-ID", "Content-Length"},
			AllowCredentials:          false,
			MaxAge:                    12 * time.Hour,
			OptionsResponseStatusCode: http.StatusOK,
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

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler))
	}

	// Dependency injection: services ← clients/repo/db
	trainingSvc := &services.TrainingService{
		Archiver:       deps.Archiver,
		Provider:       deps.Provider,
		WebhookBaseURL: cfg.WebhookBaseURL,
		TriggerPrefix:  cfg.TriggerPrefix,
	}
	profileSvc := &services.ProfileService{DB: db, Repo: profileRepoShim{}}
	idemStore := idemStoreShim{db: db, ttl: cfg.IdempotencyTTL}
	h := handlers.New(trainingSvc, profileSvc, idemStore)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/functions/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Provider-facing callback: no bearer auth, no rate limiting. The
		// provider retries on 5xx; dropping a callback loses a training run.
		api.POST("/training-webhook-handler", h.HandleTrainingWebhook)

		// Client-facing routes: bearer auth, idempotent replays, rate limits.
		authed := api.Group("", middleware.Authenticate(deps.Verifier))
		authed.Use(middleware.IdempotencyValidator(
			middleware.IdempotencyOptions{
				MaxLen: 200,
			},
			func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
				rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
				if err != nil || rec == nil {
					return false, nil
				}
				return true, nil
			},
		))
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
		authed.Use(rl.Handler())

		authed.POST("/train-lora", h.StartTraining)
		authed.GET("/profile", h.GetProfile)
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
