package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/halvorsen/ecom-order-core/internal/config"
	"github.com/halvorsen/ecom-order-core/internal/handlers"
	custommiddleware "github.com/halvorsen/ecom-order-core/internal/middleware"
	"github.com/halvorsen/ecom-order-core/internal/repository/interfaces"
	"github.com/halvorsen/ecom-order-core/internal/services"
	"github.com/halvorsen/ecom-order-core/internal/validators"
)

type Server struct {
	Router      *chi.Mux
	Config      *config.Config
	Services    *Services
	Handlers    *Handlers
	rateLimiter *custommiddleware.RateLimiter
}

// Services is the use-case container wired by cmd/server/main.go.
type Services struct {
	CreateOrderService   *services.CreateOrderService
	FinalizeRefundService *services.FinalizeRefundService
	CatalogRepo          interfaces.CatalogRepository
}

type Handlers struct {
	OrderHandler  *handlers.OrderHandler
	RefundHandler *handlers.RefundHandler
}

func NewServer(cfg *config.Config, svcs *Services) *Server {
	validator := validators.New()

	h := &Handlers{
		OrderHandler:  handlers.NewOrderHandler(svcs.CreateOrderService, svcs.CatalogRepo, validator),
		RefundHandler: handlers.NewRefundHandler(svcs.FinalizeRefundService, validator),
	}

	s := &Server{
		Router:      chi.NewRouter(),
		Config:      cfg,
		Services:    svcs,
		Handlers:    h,
		rateLimiter: custommiddleware.NewRateLimiter(cfg.CreateOrderRateLimitInterval),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(middleware.CleanPath)
	s.Router.Use(middleware.Timeout(s.Config.RequestTimeout))

	if s.Config.IsDevelopment() {
		s.Router.Use(middleware.Logger)
	}

	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Staff-User-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.Router.Use(s.jsonContentType)
}

func (s *Server) setupRoutes() {
	s.Router.Get("/health", handlers.HealthCheck)

	if s.Config.IsDevelopment() {
		s.Router.Get("/api/v1/routes", handlers.ListRoutes(s.Router))
	}

	s.Router.Route("/api/v1", func(r chi.Router) {
		// Buyer-facing: create-order has no staff-auth requirement, so it
		// gets a per-IP rate limit instead.
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RateLimitMiddleware(s.rateLimiter))
			r.Post("/orders", s.Handlers.OrderHandler.CreateOrder)
		})

		// Staff-portal-facing: finalize-refund requires staff identity.
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.StaffAuthMiddleware)
			r.Post("/orders/{order_id}/merchants/{merchant_id}/refund", s.Handlers.RefundHandler.FinalizeRefund)
		})
	})

	s.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"Route not found"}}`))
	})

	s.Router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":{"code":"METHOD_NOT_ALLOWED","message":"Method not allowed"}}`))
	})
}

func (s *Server) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server with graceful shutdown.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         ":" + s.Config.Port,
		Handler:      s.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		fmt.Printf("Server starting on port %s (environment: %s)\n", s.Config.Port, s.Config.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server failed to start: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	fmt.Println("Server exited")
	return nil
}
