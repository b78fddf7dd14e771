package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prashant-fintech/finbox/internal/cache"
	"github.com/prashant-fintech/finbox/internal/config"
	"github.com/prashant-fintech/finbox/internal/db"
	"github.com/prashant-fintech/finbox/internal/migrations"
	"github.com/prashant-fintech/finbox/internal/seed"
	"github.com/prashant-fintech/finbox/internal/store"
)

const (
	rateLimitCapacity = 60
	rateLimitWindow   = time.Minute
	shutdownTimeout   = 10 * time.Second
)

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database, "migrations"); err != nil {
		log.Fatalf("failed to run database migrations: %v", err)
	}

	if cfg.IsDev() {
		stats, err := seed.Run(database)
		if err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
		if stats.Inserts > 0 {
			log.Printf("seeded %d example calculations", stats.Inserts)
		}
	}

	var resultCache cache.Cache
	if cfg.RedisAddr != "" {
		resultCache = cache.NewRedis(cfg.RedisAddr)
		log.Printf("using redis result cache at %s", cfg.RedisAddr)
	} else {
		resultCache = cache.NewMemory()
	}

	srv := &server{
		store: store.New(database),
		cache: resultCache,
	}

	limiter := newRateLimiter(rateLimitCapacity, rateLimitWindow)
	defer limiter.stop()

	r := chi.NewRouter()
	r.Use(limiter.middleware)
	r.Use(func(next http.Handler) http.Handler {
		return requireToken(cfg.APIToken, next)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/npv", srv.handleNPV)
		r.Post("/irr", srv.handleIRR)
		r.Post("/mirr", srv.handleMIRR)
		r.Post("/payback", srv.handlePayback)
		r.Post("/bond/price", srv.handleBondPrice)
		r.Post("/bond/yield", srv.handleBondYield)
		r.Post("/annuity/pv", srv.handleAnnuityPV)
		r.Post("/annuity/fv", srv.handleAnnuityFV)
		r.Post("/loan/payment", srv.handleLoanPayment)
		r.Post("/loan/balance", srv.handleLoanBalance)
		r.Post("/loan/schedule", srv.handleLoanSchedule)
		r.Get("/history", srv.handleHistory)
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Print("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
