package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arjeninventory/admin-gateway/internal/assets"
	"github.com/arjeninventory/admin-gateway/internal/auth"
	"github.com/arjeninventory/admin-gateway/internal/authz"
	"github.com/arjeninventory/admin-gateway/internal/backend"
	"github.com/arjeninventory/admin-gateway/internal/cache"
	"github.com/arjeninventory/admin-gateway/internal/catalog"
	"github.com/arjeninventory/admin-gateway/internal/config"
	"github.com/arjeninventory/admin-gateway/internal/handlers"
	"github.com/arjeninventory/admin-gateway/internal/imaging"
	"github.com/arjeninventory/admin-gateway/internal/middleware"
	"github.com/arjeninventory/admin-gateway/pkg/logger"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting admin gateway",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
	)

	// Session cache: shared Redis when configured, in-process otherwise
	var sessions cache.Store
	if cfg.Redis.Addr != "" {
		sessions = cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		log.Info("using redis session cache", "addr", cfg.Redis.Addr)
	} else {
		sessions = cache.NewMemory()
	}

	// Upstream clients
	backendClient := backend.NewClient(
		cfg.Backend.ProductsURL,
		cfg.Backend.WholesaleURL,
		time.Duration(cfg.Backend.TimeoutSecs)*time.Second,
		log,
	)
	assetClient := assets.NewClient(cfg.Assets.UploadURL, cfg.Assets.APIURL, cfg.Assets.PrivateKey)
	googleClient := auth.NewGoogleClient(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURI)

	// Session verification
	verifier := auth.NewVerifier(
		cfg.Auth.JWTSecret,
		backendClient,
		sessions,
		time.Duration(cfg.Auth.SessionCacheTTL)*time.Second,
		log,
	)

	// Role permissions
	permissions, err := authz.Load()
	if err != nil {
		log.Error("failed to load permission table", "error", err)
		os.Exit(1)
	}

	// Product code index: warmup is best effort since it needs a service
	// token; unwarmed checks fall through to the backend.
	codes := catalog.NewIndex(backendClient, log)
	if token := cfg.Backend.ServiceToken; token != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := codes.Warm(ctx, token); err != nil {
			log.Warn("product code index warmup failed", "error", err)
		}
		cancel()
	}

	imageOpts := imaging.Options{
		MaxDimension: cfg.Image.MaxDimension,
		Quality:      cfg.Image.JPEGQuality,
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	productsHandler := handlers.NewProductsHandler(backendClient, assetClient, codes, imageOpts, cfg.Auth.CookieName, log)
	packagesHandler := handlers.NewPackagesHandler(backendClient, cfg.Auth.CookieName)
	wholesaleHandler := handlers.NewWholesaleHandler(
		backendClient,
		assetClient,
		imageOpts,
		cfg.Assets.Folder,
		cfg.Wholesale.RollbackOnFailure,
		cfg.Auth.CookieName,
		log,
	)
	ratesHandler := handlers.NewRatesHandler(backendClient, cfg.Auth.CookieName)
	uploadHandler := handlers.NewUploadHandler(assetClient, cfg.Assets.Folder, log)
	sessionHandler := handlers.NewSessionHandler(googleClient, backendClient, handlers.SessionConfig{
		CookieName:   cfg.Auth.CookieName,
		CookieMaxAge: cfg.Auth.CookieMaxAge,
		AppURL:       cfg.Auth.AppURL,
		Secure:       cfg.Auth.CookieSecure,
	}, log)

	authenticate := middleware.Authenticate(verifier, cfg.Auth.CookieName, log)
	require := func(permission string) func(http.Handler) http.Handler {
		return middleware.Require(permissions, permission)
	}

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	// CORS configuration: the dashboard sends the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Auth.AppURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Sign-in flow runs before any session exists
		r.Get("/auth/google/callback", sessionHandler.GoogleCallback)
		r.Get("/auth/logout", sessionHandler.Logout)
		r.Post("/auth/logout", sessionHandler.Logout)

		// Rate reads are public; the dashboard shows them pre-login
		r.Get("/currency-rates", ratesHandler.CurrencyRates)
		r.Get("/currency-rates/{currency}", ratesHandler.CurrencyRate)
		r.Get("/shipment-costs", ratesHandler.ShipmentCosts)
		r.Get("/shipment-costs/{way}", ratesHandler.ShipmentCost)

		// Everything below needs a verified session
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/me", sessionHandler.Me)

			r.Group(func(r chi.Router) {
				r.Use(require("products:read"))
				r.Get("/products", productsHandler.List)
				r.Get("/products/category/{category}", productsHandler.ByCategory)
				r.Get("/products/check-code/{code}", productsHandler.CheckCode)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("products:write"))
				r.Post("/products", productsHandler.Create)
				r.Post("/products/upload", productsHandler.Upload)
				r.Put("/products/{id}", productsHandler.Update)
				r.Patch("/products/{id}", productsHandler.Update)
				r.Delete("/products/{id}", productsHandler.Delete)
				r.Patch("/products/{id}/sale-rate", productsHandler.SaleRate)
				r.Patch("/products/{id}/selected", productsHandler.Selected)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("packages:read"))
				r.Get("/packages", packagesHandler.List)
				r.Get("/packages/{id}", packagesHandler.ByID)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("packages:write"))
				r.Post("/packages", packagesHandler.List)
				r.Put("/packages/{id}", packagesHandler.ByID)
				r.Delete("/packages/{id}", packagesHandler.ByID)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("wholesale:read"))
				r.Get("/wholesale", wholesaleHandler.List)
				r.Get("/wholesale/{id}", wholesaleHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("wholesale:write"))
				r.Post("/wholesale", wholesaleHandler.Create)
				r.Post("/wholesale/batch", wholesaleHandler.Batch)
				r.Put("/wholesale/{id}", wholesaleHandler.Update)
				r.Delete("/wholesale/{id}", wholesaleHandler.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("rates:write"))
				r.Post("/currency-rates", ratesHandler.CurrencyRates)
				r.Put("/currency-rates/{currency}", ratesHandler.CurrencyRate)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("shipment:write"))
				r.Post("/shipment-costs", ratesHandler.ShipmentCosts)
				r.Put("/shipment-costs/{way}", ratesHandler.ShipmentCost)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("stocks:read"))
				r.Get("/stocks", ratesHandler.Stocks)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("stocks:write"))
				r.Post("/stocks", ratesHandler.Stocks)
			})

			r.Group(func(r chi.Router) {
				r.Use(require("assets:write"))
				r.Post("/upload", uploadHandler.Upload)
				r.Delete("/upload", uploadHandler.Delete)
			})
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
