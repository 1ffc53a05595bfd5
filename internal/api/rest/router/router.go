package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/finapp/auth-service/internal/api/rest/handler"
	"github.com/finapp/auth-service/internal/api/rest/middleware"
	"github.com/finapp/auth-service/internal/logger"
	"github.com/finapp/auth-service/internal/model"
	"github.com/finapp/auth-service/internal/ratelimit"
	"github.com/finapp/auth-service/internal/service"
)

// Router assembles the HTTP surface: auth endpoints, health endpoint and
// the middleware chain around them.
type Router struct {
	authService    *service.Auth
	tokenService   *service.TokenService
	userStore      model.UserStore
	contextManager model.ContextManager
	db             handler.Pinger
	limiter        ratelimit.Limiter
	allowedOrigins []string
	environment    string
	version        string
	production     bool
	logger         *logger.Logger
}

// Config carries the router's collaborators and settings.
type Config struct {
	AuthService    *service.Auth
	TokenService   *service.TokenService
	UserStore      model.UserStore
	ContextManager model.ContextManager
	DB             handler.Pinger
	Limiter        ratelimit.Limiter
	AllowedOrigins []string
	Environment    string
	Version        string
	Production     bool
	Logger         *logger.Logger
}

// New creates a new Router instance.
func New(cfg Config) *Router {
	return &Router{
		authService:    cfg.AuthService,
		tokenService:   cfg.TokenService,
		userStore:      cfg.UserStore,
		contextManager: cfg.ContextManager,
		db:             cfg.DB,
		limiter:        cfg.Limiter,
		allowedOrigins: cfg.AllowedOrigins,
		environment:    cfg.Environment,
		version:        cfg.Version,
		production:     cfg.Production,
		logger:         cfg.Logger,
	}
}

// Register builds the full handler chain.
func (r *Router) Register() http.Handler {
	m := mux.NewRouter()

	logging := middleware.NewLogging(r.logger)
	rateLimit := middleware.NewRateLimit(r.limiter, r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.userStore, r.contextManager, r.production, r.logger)

	authHandler := handler.NewAuth(r.authService, r.contextManager, r.production, r.logger)
	healthHandler := handler.NewHealth(r.db, r.environment, r.version)

	api := m.PathPrefix("/api").Subrouter()
	api.Use(logging.Handle, rateLimit.Handle)

	api.HandleFunc("/health", healthHandler.Handle).Methods(http.MethodGet)

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", authHandler.Refresh).Methods(http.MethodPost)
	auth.Handle("/logout", authenticate.Require(http.HandlerFunc(authHandler.Logout))).Methods(http.MethodPost)
	auth.Handle("/me", authenticate.Require(http.HandlerFunc(authHandler.Me))).Methods(http.MethodGet)

	api.PathPrefix("/").HandlerFunc(notFound)

	c := cors.New(cors.Options{
		AllowedOrigins:   r.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return c.Handler(m)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":"API endpoint not found"}`))
}
