package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"omnicore-pos/internal/client"
	"omnicore-pos/internal/config"
	"omnicore-pos/internal/handler"
	"omnicore-pos/internal/repository"
	"omnicore-pos/internal/server"
	"omnicore-pos/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitMysqlClient(cfg.DatabaseURL)
	erpClient := client.NewErpClient(&cfg.Erp)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	syncStateRepo := repository.NewSyncStateRepository(db)

	orderService := service.NewOrderService(db, orderRepo, productRepo, outboxRepo)
	catalogService := service.NewCatalogService(db, erpClient, productRepo, syncStateRepo)
	forwarderService := service.NewForwarderService(db, erpClient, orderRepo, productRepo, outboxRepo)

	if cfg.SeedProducts {
		if err := productRepo.Seed(context.Background()); err != nil {
			log.Fatal("seed products: ", err)
		}
	}

	orderHandler := handler.NewOrderHandler(orderService)
	productHandler := handler.NewProductHandler(catalogService, productRepo)

	srv := server.NewServer(orderHandler, productHandler, cfg.APIToken)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go forwarderService.RunOutboxWorker(workerCtx, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	workerCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
