package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	_ "bovine-monitoring/docs"
	authmem "bovine-monitoring/internal/adapters/auth/memory"
	objmem "bovine-monitoring/internal/adapters/objectstore/memory"
	mem "bovine-monitoring/internal/adapters/storage/memory"
	"bovine-monitoring/internal/domain/animals"
	"bovine-monitoring/internal/domain/farms"
	"bovine-monitoring/internal/domain/images"
	"bovine-monitoring/internal/domain/measurements"
	"bovine-monitoring/internal/domain/profiles"
	"bovine-monitoring/internal/middleware"
	"bovine-monitoring/internal/platform/config"
	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/logger"
	"bovine-monitoring/internal/platform/metrics"
	"bovine-monitoring/internal/platform/validation"
	"bovine-monitoring/internal/ports/auth"
	"bovine-monitoring/internal/ports/objectstore"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const healthTimeout = 3 * time.Second

type Repositories struct {
	Profiles     profiles.Repository
	Farms        farms.Repository
	Animals      animals.Repository
	Measurements measurements.Repository
}

type Options struct {
	Config config.Config
	Logger logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Identity     auth.IdentityProvider

	// Vacíos => in-memory.
	Repositories Repositories
	Objects      objectstore.ObjectStore

	// HealthCheck opcional: si falla, /health responde "degraded".
	HealthCheck func(ctx context.Context) error
}

type welcomeResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	if cfg.AppName == "" {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover)

	m := metrics.New("bovinos")
	r.Use(m.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.DebugUserHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !wildcardOrigin(cfg.CORSOrigins),
		MaxAge:           300,
	}))

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	if cfg.RateLimit.RPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Handler)
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, welcomeResponse{
			Message: "Bienvenido a " + cfg.AppName,
			Version: cfg.AppVersion,
			Docs:    "/swagger/index.html",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		status := "healthy"
		if opts.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
			defer cancel()
			if err := opts.HealthCheck(ctx); err != nil {
				logger.FromContext(req.Context()).Warn("health check failed", map[string]any{"error": err})
				status = "degraded"
			}
		}
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  status,
			Service: cfg.AppName,
			Version: cfg.AppVersion,
		})
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	repos := opts.Repositories
	if repos.Profiles == nil || repos.Farms == nil || repos.Animals == nil || repos.Measurements == nil {
		store := mem.NewStore()
		repos = Repositories{
			Profiles:     store.Profiles(),
			Farms:        store.Farms(),
			Animals:      store.Animals(),
			Measurements: store.Measurements(),
		}
	}

	identity := opts.Identity
	if identity == nil {
		identity = authmem.NewIdentityProvider()
	}

	objects := opts.Objects
	if objects == nil {
		objects = objmem.NewStore("/files")
	}

	// Services por módulo
	measurementsSvc := measurements.NewService(repos.Measurements)
	animalsSvc := animals.NewService(repos.Animals, repos.Measurements)
	farmsSvc := farms.NewService(repos.Farms, repos.Animals, repos.Measurements)
	profilesSvc := profiles.NewService(repos.Profiles, identity)
	imagesSvc := images.NewService(objects, profilesSvc)

	rs := httpx.Responder{Debug: cfg.Debug}
	v := validation.New()

	// Rutas por módulo
	r.Route("/api/v1", func(api chi.Router) {
		profiles.RegisterRoutes(api, profilesSvc, rs, v)
		farms.RegisterRoutes(api, farmsSvc, rs, v)
		animals.RegisterRoutes(api, animalsSvc, rs, v)
		measurements.RegisterRoutes(api, measurementsSvc, rs, v)
		images.RegisterRoutes(api, imagesSvc, rs, v)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteStatus(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteStatus(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

// Con "*" no se permiten credenciales: cors reflejaría cualquier origen.
func wildcardOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
