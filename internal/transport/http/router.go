package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"smart-break-quiz/internal/logging"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	API            *APIHandler
	WS             *WSHandler
	Gatherer       prometheus.Gatherer
	Logger         zerolog.Logger
	AllowedOrigins []string
}

// NewRouter registers every route and wraps them with request logging and CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET /games", cfg.API.ListGames)
	mux.HandleFunc("GET /categories", cfg.API.ListCategories)
	mux.HandleFunc("POST /profiles", cfg.API.CreateProfile)
	mux.HandleFunc("GET /profiles/{id}", cfg.API.GetProfile)
	mux.HandleFunc("GET /profiles/{id}/achievements", cfg.API.GetAchievements)
	mux.HandleFunc("GET /leaderboard", cfg.API.GetLeaderboard)
	mux.HandleFunc("GET /ws", cfg.WS.ServeWS)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	})
	return c.Handler(withLogger(cfg.Logger, mux))
}

// withLogger stores the logger in the request context and logs each request.
// Websocket upgrades are logged when the connection closes.
func withLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := logger.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
		reqLogger.Debug().Dur("duration", time.Since(start)).Msg("request served")
	})
}
