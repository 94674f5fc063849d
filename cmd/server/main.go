package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gosembako/config"
	"gosembako/internal/attribution"
	"gosembako/internal/logging"
	"gosembako/internal/repository"
	"gosembako/internal/router"
	"gosembako/internal/service"
	"gosembako/internal/sheetdb"
	"gosembako/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.Server.Env)

	store := sheetdb.New(&cfg.Store, logger)
	tracker, err := attribution.NewTracker(cfg.Attribution.Path, cfg.Attribution.TTL)
	if err != nil {
		log.Fatalf("attribution: %v", err)
	}

	userRepo := repository.NewUserRepository(store)
	referralRepo := repository.NewReferralRepository(store, logger)
	settlement := service.NewSettlement(userRepo, referralRepo, logger)

	engine := router.Setup(cfg, store, tracker, settlement, logger)

	var reconciler *worker.Reconciler
	if cfg.Worker.Enabled {
		orderRepo := repository.NewOrderRepository(store)
		reconciler = worker.NewReconciler(userRepo, referralRepo, orderRepo, settlement, &cfg.Worker, logger)
		if err := reconciler.Start(); err != nil {
			log.Fatalf("reconciler: %v", err)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	if reconciler != nil {
		reconciler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	log.Println("server stopped")
}
