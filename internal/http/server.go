package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"finora/internal/log"
	"finora/internal/middleware/cors"
	"finora/internal/middleware/ratelimit"
	"finora/internal/middleware/security"
	"finora/internal/middleware/trace"
	"finora/internal/services"
)

const maxBodyBytes = 1 << 20

// Options configures the HTTP server.
type Options struct {
	Addr          string
	AllowedOrigin string
	// RateLimitPerMinute caps writes per client; 0 disables the limiter.
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	services  *services.Services
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, svc *services.Services) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		services:  svc,
		logger:    logger,
		tracer:    trace.NewMiddleware(logger, security.ExtractClientIP),
		startedAt: time.Now(),
	}

	router := withErrorHandlers(mux.NewRouter())

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	s.routes(subrouter(router, "/api"))

	corsConfig := cors.DefaultConfig()
	if opts.AllowedOrigin != "" {
		corsConfig.AllowedOrigin = opts.AllowedOrigin
	}

	var handler http.Handler = router
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		handler = s.limiter.Middleware(security.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		})(handler)
	}
	handler = cors.Middleware(corsConfig)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(api *mux.Router) {
	const id = "/{id:[0-9]+}"
	const byUser = "/user/{userId:[0-9]+}"

	users := subrouter(api, "/users")
	users.HandleFunc("/ping", ping(pingUsers)).Methods(http.MethodGet)
	users.HandleFunc("/register", s.handleRegisterUser).Methods(http.MethodPost)
	users.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	users.HandleFunc("", s.handleRegisterUser).Methods(http.MethodPost)
	users.HandleFunc("", s.handleListUsers).Methods(http.MethodGet)
	users.HandleFunc(id, s.handleGetUser).Methods(http.MethodGet)
	users.HandleFunc(id, s.handleUpdateUser).Methods(http.MethodPut)
	users.HandleFunc(id, s.handleDeleteUser).Methods(http.MethodDelete)

	categories := subrouter(api, "/categories")
	categories.HandleFunc("/ping", ping(pingCategories)).Methods(http.MethodGet)
	categories.HandleFunc("", s.handleCreateCategory).Methods(http.MethodPost)
	categories.HandleFunc("", s.handleListCategories).Methods(http.MethodGet)
	categories.HandleFunc(id, s.handleGetCategory).Methods(http.MethodGet)
	categories.HandleFunc(id, s.handleUpdateCategory).Methods(http.MethodPut)
	categories.HandleFunc(id, s.handleDeleteCategory).Methods(http.MethodDelete)

	transactions := subrouter(api, "/transactions")
	transactions.HandleFunc("/ping", ping(pingTransactions)).Methods(http.MethodGet)
	transactions.HandleFunc("", s.handleCreateTransaction).Methods(http.MethodPost)
	transactions.HandleFunc("", s.handleListTransactions).Methods(http.MethodGet)
	transactions.HandleFunc(byUser, s.handleTransactionsByUser).Methods(http.MethodGet)
	transactions.HandleFunc(id, s.handleGetTransaction).Methods(http.MethodGet)
	transactions.HandleFunc(id, s.handleUpdateTransaction).Methods(http.MethodPut)
	transactions.HandleFunc(id, s.handleDeleteTransaction).Methods(http.MethodDelete)

	goals := subrouter(api, "/goals")
	goals.HandleFunc("/ping", ping(pingGoals)).Methods(http.MethodGet)
	goals.HandleFunc("", s.handleCreateGoal).Methods(http.MethodPost)
	goals.HandleFunc("", s.handleListGoals).Methods(http.MethodGet)
	goals.HandleFunc(byUser, s.handleGoalsByUser).Methods(http.MethodGet)
	goals.HandleFunc(id, s.handleGetGoal).Methods(http.MethodGet)
	goals.HandleFunc(id, s.handleUpdateGoal).Methods(http.MethodPut)
	goals.HandleFunc(id, s.handleDeleteGoal).Methods(http.MethodDelete)
}

// subrouter mounts a prefix with the JSON 404 and 405 handlers. mux does not
// inherit them, and a subrouter without its own answers 404 for a known path
// with the wrong method.
func subrouter(parent *mux.Router, prefix string) *mux.Router {
	return withErrorHandlers(parent.PathPrefix(prefix).Subrouter())
}

func withErrorHandlers(r *mux.Router) *mux.Router {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Shutdown stops accepting requests, waits for in-flight ones and stops the
// rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
