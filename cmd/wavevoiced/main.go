package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wavevoice/internal/app"
	"wavevoice/internal/config"
	"wavevoice/internal/enrich"
	"wavevoice/internal/events"
	"wavevoice/internal/results"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	cfgPath := os.Getenv("WV_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "serve":
		runServe(ctx, cfg)
	case "worker":
		runWorker(ctx, cfg)
	default:
		usage()
	}
}

func runServe(ctx context.Context, cfg config.Config) {
	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("app init error: %v", err)
	}
	defer appInstance.Close()

	log.Printf("wavevoiced serving on %s", cfg.HTTP.Addr)
	if err := appInstance.Serve(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runWorker(ctx context.Context, cfg config.Config) {
	channel, err := events.NewChannel(cfg.Redis.URL, cfg.Events.Channel)
	if err != nil {
		log.Fatalf("event channel error: %v", err)
	}
	defer channel.Close()
	if err := channel.Ping(ctx); err != nil {
		log.Fatalf("event channel unreachable: %v", err)
	}

	resultStore, err := results.NewRedisStore(cfg.Redis.URL, cfg.Results.TTL)
	if err != nil {
		log.Fatalf("result store error: %v", err)
	}
	defer resultStore.Close()

	gateway, err := app.SelectGateway(cfg)
	if err != nil {
		log.Fatalf("inference gateway error: %v", err)
	}
	worker := enrich.NewWorker(channel, enrich.NewOrchestrator(gateway, resultStore, cfg.Results.TTL))

	log.Println("enrichment worker started")
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("worker error: %v", err)
	}
}

func usage() {
	fmt.Println("Usage: wavevoiced <serve|worker>")
}
