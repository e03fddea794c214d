package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"omnicore-pos/internal/client"
	"omnicore-pos/internal/config"
	"omnicore-pos/internal/pos"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Terminal{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	store, err := pos.OpenStore(cfg.LocalDB)
	if err != nil {
		log.Fatal(err)
	}

	api := client.NewPosAPIClient(cfg)

	probeURL := cfg.ProbeURL
	if probeURL == "" {
		probeURL = api.HealthURL()
	}
	monitor := pos.NewPollingMonitor(probeURL, cfg.ProbeInterval)

	syncer := pos.NewSyncer(store, api, monitor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go monitor.Run(ctx)
	go func() {
		if err := syncer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatal("syncer stopped: ", err)
		}
	}()

	log.Println("POS terminal sync agent running, local store at", cfg.LocalDB)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, shutting down...")
	cancel()
}
