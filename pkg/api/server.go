package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/httputil"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/middleware"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/sessions"
)

// Options configures the API server surface
type Options struct {
	// KeyHeader is the header carrying the API key; sign-out reads it to
	// know which key to revoke.
	KeyHeader string
	// AdminRole is the minimum role allowed to manage other accounts.
	AdminRole int
	// AllowedOrigins enables CORS when non-empty.
	AllowedOrigins []string
	// AuthHeaders are advertised in CORS preflight responses.
	AuthHeaders []string
	// MaxBodyBytes caps request body size. Zero means 1 MiB.
	MaxBodyBytes int64
	// LoginLimiter throttles sign-in attempts when set.
	LoginLimiter *middleware.LoginLimiter
}

// Server is the account and session management HTTP API
type Server struct {
	router   *mux.Router
	sessions *sessions.Service
	auth     *middleware.AuthMiddleware
	logger   *observability.Logger
	metrics  *observability.Metrics
	opts     Options
}

// NewServer creates the API server. Metrics may be nil.
func NewServer(svc *sessions.Service, auth *middleware.AuthMiddleware, logger *observability.Logger, metrics *observability.Metrics, opts Options) *Server {
	if opts.KeyHeader == "" {
		opts.KeyHeader = middleware.DefaultKeyHeader
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		router:   mux.NewRouter(),
		sessions: svc,
		auth:     auth,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Exempt from authentication via the path exemption rules
	s.router.HandleFunc("/healthz", s.healthz).Methods("GET")
	s.router.HandleFunc("/v1/accounts", s.signUp).Methods("POST")

	var signIn http.Handler = http.HandlerFunc(s.signIn)
	if s.opts.LoginLimiter != nil {
		signIn = s.opts.LoginLimiter.Handler(signIn)
	}
	s.router.Handle("/v1/sessions", signIn).Methods("POST")

	// Authenticated routes
	s.router.HandleFunc("/v1/whoami", s.whoAmI).Methods("GET")
	s.router.HandleFunc("/v1/sessions/current", s.signOut).Methods("DELETE")
	s.router.HandleFunc("/v1/sessions/all", s.signOutAll).Methods("DELETE")
	s.router.HandleFunc("/v1/accounts/{name}/password", s.changePassword).Methods("PUT")
	s.router.HandleFunc("/v1/accounts/{name}", s.deleteAccount).Methods("DELETE")

	// Role management is admin-only
	s.router.Handle("/v1/accounts/{name}/role",
		middleware.RequireMinimumRole(s.opts.AdminRole)(http.HandlerFunc(s.updateRole))).Methods("PUT")
}

// Handler returns the full middleware chain wrapping the router
func (s *Server) Handler() http.Handler {
	chain := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(s.logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
	}
	if s.metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(s.metrics))
	}
	if len(s.opts.AllowedOrigins) > 0 {
		chain = append(chain, httputil.CORSMiddleware(s.opts.AllowedOrigins, s.opts.AuthHeaders))
	}
	chain = append(chain,
		httputil.MaxBytesMiddleware(s.opts.MaxBodyBytes),
		s.auth.Handler,
	)
	return httputil.Chain(chain...)(s.router)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}
