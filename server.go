package geosentinel

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
	"github.com/Kumarpriyam05/GeoSentinel/auth"
	"github.com/Kumarpriyam05/GeoSentinel/config"
	"github.com/Kumarpriyam05/GeoSentinel/realtime"
	"github.com/Kumarpriyam05/GeoSentinel/registry"
	"github.com/Kumarpriyam05/GeoSentinel/store"
	"github.com/Kumarpriyam05/GeoSentinel/tracking"
)

// Server owns every long-lived component: registry, tracking engine with
// its coalescer, realtime hub, retention janitor and the HTTP listener.
// Construction wires them; Shutdown tears them down in order.
type Server struct {
	cfg      config.AppConfig
	db       *gorm.DB
	tokens   *auth.TokenService
	accounts *auth.Service
	registry *registry.Registry
	engine   *tracking.Engine
	hub      *realtime.Hub
	janitor  *store.RetentionJanitor
	validate *validator.Validate

	apiLimiter    *ipLimiter
	authLimiter   *ipLimiter
	ingestLimiter *ipLimiter

	httpServer *http.Server
}

// NewServer wires the full application over an already-connected database.
func NewServer(cfg config.AppConfig, db *gorm.DB) *Server {
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	accounts := auth.NewService(db, tokens)
	reg := registry.New(db)
	hub := realtime.NewHub(tokens, reg, accounts, cfg.Server.ClientOrigins)
	engine := tracking.NewEngine(reg, hub, cfg.BroadcastWindow())

	s := &Server{
		cfg:           cfg,
		db:            db,
		tokens:        tokens,
		accounts:      accounts,
		registry:      reg,
		engine:        engine,
		hub:           hub,
		janitor:       store.NewRetentionJanitor(db, cfg.RetentionAge(), time.Hour),
		validate:      validator.New(),
		apiLimiter:    newIPLimiter(cfg.RateLimit.Max, time.Duration(cfg.RateLimit.WindowMS)*time.Millisecond),
		authLimiter:   newIPLimiter(cfg.RateLimit.AuthMax, 15*time.Minute),
		ingestLimiter: newIPLimiter(cfg.RateLimit.IngestPerMin, time.Minute),
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.rateLimit(s.authLimiter, authLimitMessage, s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.rateLimit(s.authLimiter, authLimitMessage, s.handleLogin))
	mux.HandleFunc("GET /api/auth/me", s.withAuth(s.handleCurrentUser))
	mux.HandleFunc("POST /api/auth/logout", s.withAuth(s.handleLogout))

	mux.HandleFunc("GET /api/devices", s.withAuth(s.handleListDevices))
	mux.HandleFunc("POST /api/devices", s.withAuth(s.handleCreateDevice))
	mux.HandleFunc("PATCH /api/devices/{deviceId}", s.withAuth(s.handleUpdateDevice))
	mux.HandleFunc("DELETE /api/devices/{deviceId}", s.withAuth(s.handleDeleteDevice))
	mux.HandleFunc("GET /api/devices/{deviceId}/history", s.withAuth(s.handleDeviceHistory))
	mux.HandleFunc("POST /api/devices/{deviceId}/location", s.withAuth(s.handleUpdateDeviceLocation))

	mux.HandleFunc("POST /api/tracking/{trackingId}/location",
		s.rateLimit(s.ingestLimiter, ingestLimitMessage, s.handleIngestByTrackingID))

	mux.HandleFunc("GET /api/admin/overview", s.withAuth(s.requireRole(store.RoleAdmin, s.handleAdminOverview)))
	mux.HandleFunc("GET /api/admin/users/active", s.withAuth(s.requireRole(store.RoleAdmin, s.handleAdminActiveUsers)))

	mux.HandleFunc("GET /ws", s.hub.HandleWS)

	mux.HandleFunc("/", s.handleNotFound)

	handler := s.apiRateLimit(mux)
	handler = s.logRequests(handler)
	return cors.New(cors.Options{
		AllowedOrigins:   s.cfg.Server.ClientOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Device-Key"},
		AllowCredentials: true,
	}).Handler(handler)
}

const (
	authLimitMessage   = "Too many authentication attempts, please try again in a few minutes."
	ingestLimitMessage = "Too many location reports, please slow down."
)

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, apperror.NotFound("Route not found: "+r.URL.Path))
}

// Start launches the janitor and the HTTP listener.
func (s *Server) Start() {
	s.janitor.Start()
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("GeoSentinel API listening on %s", s.httpServer.Addr)
}

// Shutdown stops the listener, disconnects live sessions and halts the
// coalescer and janitor.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.hub.Close()
	s.engine.Stop()
	s.janitor.Stop()
	return err
}

// HandleGracefulShutdown blocks until SIGINT/SIGTERM, then drains the server.
func HandleGracefulShutdown(s *Server) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	} else {
		log.Printf("server shut down successfully")
	}
}
