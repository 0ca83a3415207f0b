// Package httpserver exposes the owner dashboard API, the tenant portal
// API and the public proof-upload endpoint on one chi router. Authorization
// lives in the bearer token's role claim; the host middleware is
// defense-in-depth on top of it.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"indekost/internal/auth"
	"indekost/internal/cache"
	"indekost/internal/metrics"
	"indekost/internal/repo"
	"indekost/internal/storage"
	"indekost/internal/wa"
)

// Notifier is the outbound messaging surface the handlers use for
// best-effort ticket notifications and the health report.
type Notifier interface {
	SendText(ctx context.Context, to, text string) bool
	GetSessionStatus(ctx context.Context) *wa.SessionStatus
}

// Config carries the HTTP-facing settings.
type Config struct {
	ListenAddr string

	// Host allow-lists. Empty means the check is disabled.
	APIHost    string
	OwnerHost  string
	TenantHost string

	// OwnerWhatsApp receives new-ticket alerts when set.
	OwnerWhatsApp string
}

// Dependencies groups everything the handlers need.
type Dependencies struct {
	Store    repo.Store
	Redis    *cache.Redis
	Objects  storage.ObjectStore
	Notifier Notifier
	Issuer   *auth.TokenIssuer
	AuthMW   *auth.Middleware
}

// Server wraps an http.Server with the full route tree mounted.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	cfg        Config

	store    repo.Store
	redis    *cache.Redis
	objects  storage.ObjectStore
	notifier Notifier
	issuer   *auth.TokenIssuer
}

// New assembles the router and the server around it.
func New(cfg Config, deps Dependencies, logger *slog.Logger, metricRegistry *metrics.Metrics) *Server {
	s := &Server{
		logger:   logger.With("component", "http"),
		metrics:  metricRegistry,
		cfg:      cfg,
		store:    deps.Store,
		redis:    deps.Redis,
		objects:  deps.Objects,
		notifier: deps.Notifier,
		issuer:   deps.Issuer,
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.countRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/storage", func(r chi.Router) {
		r.Get("/download/*", s.handleStorageDownload)
		r.Get("/*", s.handleStorageGet)
	})

	r.Post("/api/payments/upload-proof", s.handleUploadProof)

	r.Route("/api/owner", func(r chi.Router) {
		r.Post("/register", s.handleOwnerRegister)
		r.Post("/login", s.handleOwnerLogin)
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMW.RequireRole(auth.RoleOwner))
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleOwnerMe)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireHost(cfg.OwnerHost))
		r.Use(deps.AuthMW.RequireRole(auth.RoleOwner))

		r.Route("/api/rooms", func(r chi.Router) {
			r.Post("/", s.handleRoomCreate)
			r.Get("/", s.handleRoomList)
			r.Get("/{id}", s.handleRoomGet)
			r.Put("/{id}", s.handleRoomUpdate)
			r.Delete("/{id}", s.handleRoomDelete)
		})

		r.Route("/api/tenants", func(r chi.Router) {
			r.Post("/", s.handleTenantCreate)
			r.Get("/", s.handleTenantList)
			r.Get("/{id}", s.handleTenantGet)
			r.Put("/{id}", s.handleTenantUpdate)
			r.Delete("/{id}", s.handleTenantDelete)
		})

		r.Route("/api/meters", func(r chi.Router) {
			r.Post("/", s.handleMeterCreate)
			r.Get("/", s.handleMeterList)
			r.Get("/{id}", s.handleMeterGet)
			r.Put("/{id}", s.handleMeterUpdate)
			r.Delete("/{id}", s.handleMeterDelete)
		})

		r.Route("/api/payments", func(r chi.Router) {
			r.Get("/", s.handlePaymentList)
			r.Get("/{id}", s.handlePaymentGet)
			r.Post("/{id}/verify", s.handlePaymentVerify)
			r.Post("/{id}/reject", s.handlePaymentReject)
		})

		r.Route("/api/tickets", func(r chi.Router) {
			r.Get("/", s.handleTicketList)
			r.Get("/{id}", s.handleTicketGet)
			r.Patch("/{id}/status", s.handleTicketStatusUpdate)
			r.Delete("/{id}", s.handleTicketDelete)
		})
	})

	r.Route("/api/tenant", func(r chi.Router) {
		r.Use(s.requireHost(cfg.TenantHost))
		r.Post("/login", s.handleTenantLogin)
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMW.RequireRole(auth.RoleTenant))
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleTenantMe)
			r.Get("/meters", s.handleTenantMeters)
			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", s.handleTenantTicketList)
				r.Post("/", s.handleTenantTicketCreate)
				r.Get("/{id}", s.handleTenantTicketGet)
			})
		})
	})

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the assembled router, used by handler tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// requireHost rejects requests arriving on a host outside the allow-list
// with 403. Role claims stay authoritative; this only stops casual
// cross-surface probing when the dashboards run on dedicated hosts.
func (s *Server) requireHost(surfaceHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if surfaceHost == "" && s.cfg.APIHost == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if host == surfaceHost || host == s.cfg.APIHost {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusForbidden, "wrong host for this surface")
		})
	}
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if s.metrics == nil {
			return
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}

const sessionStatusCacheKey = "wa:session_status"

// handleHealth reports database connectivity and the gateway session
// state. The session status is cached briefly so dashboards polling the
// endpoint do not hammer the gateway.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health database ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}

	waStatus := "unknown"
	var cached wa.SessionStatus
	found, err := s.redis.GetJSON(ctx, sessionStatusCacheKey, &cached)
	if err == nil && found {
		waStatus = cached.Status
	} else if s.notifier != nil {
		if status := s.notifier.GetSessionStatus(ctx); status != nil {
			waStatus = status.Status
			if err := s.redis.SetJSON(ctx, sessionStatusCacheKey, status, 30*time.Second); err != nil {
				s.logger.Warn("cache session status", "error", err)
			}
		} else {
			waStatus = "unavailable"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
		"whatsapp": waStatus,
	})
}

// handleStorageGet streams a stored blob inline.
func (s *Server) handleStorageGet(w http.ResponseWriter, r *http.Request) {
	s.serveObject(w, r, chi.URLParam(r, "*"), false)
}

// handleStorageDownload streams a stored blob as an attachment.
func (s *Server) handleStorageDownload(w http.ResponseWriter, r *http.Request) {
	s.serveObject(w, r, chi.URLParam(r, "*"), true)
}
