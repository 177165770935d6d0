package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mpavlenko/kitchen-backend/internal/config"
	"github.com/mpavlenko/kitchen-backend/internal/db"
	handler "github.com/mpavlenko/kitchen-backend/internal/handler/http"
	"github.com/mpavlenko/kitchen-backend/internal/notify"
	"github.com/mpavlenko/kitchen-backend/internal/order"
	"github.com/mpavlenko/kitchen-backend/internal/product"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "kitchen-backend").Logger()

	log.Info().Msg("Kitchen backend starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.New(ctx, cfg.Postgres)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	broadcaster := notify.NewKafka(cfg.Kafka.Brokers)
	defer func() {
		if err := broadcaster.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close broadcaster")
		}
	}()

	productRepo := product.NewRepository(database.Pool)
	productSvc := product.NewService(productRepo)

	orderRepo := order.NewRepository(database.Pool)
	orderSvc := order.NewService(orderRepo, productRepo, broadcaster)

	router := handler.NewRouter(
		handler.NewProductHandler(productSvc),
		handler.NewOrderHandler(orderSvc),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
