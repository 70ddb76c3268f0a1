// Package httpapi assembles the PDP's HTTP surface: the native
// authorization routes, the AuthZen-compliant routes, the Trino-compatible
// fallback, health aggregation, bearer-token auth, and the catch-all proxy
// to the supervised Horizon child. Router composition follows the
// teacher's gorilla/mux server (apleducq-Pavilion-net-v1's
// internal/server/server.go): one mux.Router, global middleware via Use,
// and a subrouter (NewRoute().Subrouter()) scoping bearer auth to the
// protected routes.
package httpapi

import (
	"fmt"
	"net/url"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/permitio/pdp-sidecar/core"
	"github.com/permitio/pdp-sidecar/internal/cache"
	"github.com/permitio/pdp-sidecar/internal/config"
	"github.com/permitio/pdp-sidecar/internal/opaclient"
)

// Server holds the dependencies the HTTP handlers close over.
type Server struct {
	cfg          *config.Config
	opa          *opaclient.CachedClient
	cacheBackend cache.Backend
	childHealth  ChildHealthChecker
	opaHealth    ChildHealthChecker
	logger       core.Logger
	router       *mux.Router
}

// NewServer builds the router and wires every route group. cacheBackend
// may be nil only when health's check_cache is never requested.
func NewServer(cfg *config.Config, opa *opaclient.CachedClient, cacheBackend cache.Backend, childHealth, opaHealth ChildHealthChecker, logger core.Logger) (*Server, error) {
	if logger == nil {
		logger = core.NoOpLogger{}
	}

	s := &Server{
		cfg:          cfg,
		opa:          opa,
		cacheBackend: cacheBackend,
		childHealth:  childHealth,
		opaHealth:    opaHealth,
		logger:       logger,
	}

	router := mux.NewRouter()
	router.Use(core.RequestIDMiddleware())
	router.Use(core.LoggingMiddleware(logger, cfg.Debug))
	router.Use(otelhttp.NewMiddleware("pdp-sidecar"))

	if cfg.CORSEnabled {
		router.Use(core.CORSMiddleware(core.DefaultCORSConfig()))
	}

	// Unauthenticated: health always, and /trino below when configured.
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	target, err := url.Parse(cfg.HorizonBaseURL())
	if err != nil {
		return nil, fmt.Errorf("httpapi: invalid horizon address: %w", err)
	}
	fallback := newFallbackProxy(target, logger)

	// The Trino route group is exempt from the bearer-token requirement
	// when configured, per the original's allow_unauthenticated_trino
	// flag: registering it on the unauthenticated router first means
	// gorilla/mux matches it here before the authenticated catch-all
	// below ever sees it.
	if cfg.AllowUnauthenticatedTrino {
		router.PathPrefix("/trino").Handler(fallback)
	}

	authRouter := router.NewRoute().Subrouter()
	authRouter.Use(bearerAuthMiddleware(cfg.APIKey))

	authRouter.HandleFunc("/allowed", s.handleAllowed).Methods("POST")
	authRouter.HandleFunc("/allowed/bulk", s.handleAllowedBulk).Methods("POST")
	authRouter.HandleFunc("/authorized_users", s.handleAuthorizedUsers).Methods("POST")
	authRouter.HandleFunc("/user-permissions", s.handleUserPermissions).Methods("POST")

	authRouter.HandleFunc("/.well-known/authzen-configuration", s.handleAuthZenMetadata).Methods("GET")
	authRouter.HandleFunc("/access/v1/evaluation", s.handleAccessEvaluation).Methods("POST")
	authRouter.HandleFunc("/access/v1/evaluations", s.handleAccessEvaluations).Methods("POST")
	authRouter.HandleFunc("/access/v1/search/subject", s.handleSearchSubject).Methods("POST")
	authRouter.HandleFunc("/access/v1/search/resource", s.handleSearchResource).Methods("POST")
	authRouter.HandleFunc("/access/v1/search/action", s.handleSearchAction).Methods("POST")

	// Any other authenticated path, including /trino/..., falls through
	// to the supervised child verbatim.
	authRouter.PathPrefix("/").Handler(fallback)

	s.router = router
	return s, nil
}

func (s *Server) Router() *mux.Router { return s.router }

// ListenAddr returns host:port per the configured bind settings.
func (s *Server) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}
