package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"travel-planner/internal/archive"
	"travel-planner/internal/config"
	"travel-planner/internal/planner"
	"travel-planner/internal/queue"
	"travel-planner/internal/store"
	"travel-planner/internal/telemetry"
	"travel-planner/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := store.RunMigrations(ctx, cfg.PostgresDSN); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	st, err := store.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer st.Close()

	q := queue.NewGenerationQueue(cfg)
	gen := planner.New(cfg)

	arch, err := archive.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init archive: %v", err)
	}
	var archiver archive.Archiver
	if arch != nil {
		archiver = arch
	}

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	processor := worker.NewProcessor(cfg, q, st, gen, archiver)
	log.Printf("worker started with visibility=%s planner=%s", cfg.VisibilityTimeout, cfg.PlannerBaseURL)
	if err := processor.Run(ctx); err != nil {
		log.Printf("worker stopped: %v", err)
	}
}
