package httpapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"filestream/internal/balancer"
	"filestream/internal/cache"
	"filestream/internal/httpapi/handlers"
	"filestream/internal/httpkit"
	"filestream/internal/pkg/logger"
	"filestream/internal/pkg/middleware"
	"filestream/internal/ports"
	"filestream/internal/repositories"
)

type Deps struct {
	Pool     *pgxpool.Pool
	RDB      *redis.Client
	Balancer *balancer.Balancer
	Replicas []ports.Replica
	Log      *logger.Logger
	Version  string
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{"*"})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: allowedOrigins,
		MaxAgeSeconds:  600,
	}))

	// Status stays reachable for monitors even when a client is over
	// its budget.
	rl := middleware.NewRateLimiter(
		envInt("RATE_LIMIT_PER_MINUTE", 60),
		envInt("RATE_LIMIT_BURST", 10),
	)
	r.Use(middleware.RateLimit(rl, log, "/status", "/health"))

	var files *cache.FileCache
	if d.RDB != nil {
		files = cache.NewFileCache(d.RDB, envDuration("FILE_CACHE_TTL", time.Hour))
	}
	pages := cache.NewPageCache(
		envInt("PAGE_CACHE_SIZE", 128),
		envDuration("PAGE_CACHE_TTL", 15*time.Minute),
	)

	h := handlers.New(handlers.Deps{
		Pool:     d.Pool,
		RDB:      d.RDB,
		Store:    repositories.NewFileRepository(d.Pool),
		Balancer: d.Balancer,
		Replicas: d.Replicas,
		Pages:    pages,
		Files:    files,
		Log:      log,

		Version:       d.Version,
		PublicBaseURL: env("PUBLIC_BASE_URL", "http://localhost:"+env("HTTP_PORT", "8080")),
		ClusterToken:  env("CLUSTER_TOKEN", ""),
		QueueName:     env("THUMBNAIL_QUEUE", "filestream:thumbs"),
		ThumbsEnabled: envBool("THUMBNAILS_ENABLED", true),
	})

	// ---- SERVICE ----
	r.Get("/health", h.Health)
	r.Get("/status", h.Status)

	// ---- STREAMING ----
	r.Get("/watch/{fileID}", h.Watch)
	r.Get("/dl/{fileID}", h.Stream)
	r.Get("/thumb/{fileID}", h.Thumb)

	// ---- CLUSTER ----
	r.Get("/internal/objects/*", h.InternalObject)

	// ---- REGISTRY ----
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(envDuration("API_TIMEOUT", 2*time.Minute)))
		api.Post("/files", h.PostFile)
		api.Get("/files", h.ListFiles)
		api.Get("/files/{fileID}", h.GetFile)
		api.Delete("/files/{fileID}", h.DeleteFile)
	})

	return r
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return dur
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
