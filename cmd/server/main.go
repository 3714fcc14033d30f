package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voltex/api/httpserver"
	"voltex/config"
	"voltex/engine"
	"voltex/infra/auth"
	"voltex/infra/kafka"
	"voltex/infra/kv"
	"voltex/infra/outbox"
	"voltex/jobs/broadcaster"
	"voltex/service"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// ---------------- Store ----------------

	store, err := kv.OpenPebble(cfg.Store.Dir)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer store.Close()

	// ---------------- Event sinks ----------------

	hub := httpserver.NewHub()
	ob := outbox.New(store)

	sinks := service.Fanout{hub, &service.OutboxSink{Outbox: ob}}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer producer.Close()
		sinks = append(sinks, &service.KafkaSink{Producer: producer})
	} else {
		log.Println("[events] no kafka brokers configured; events topic disabled")
	}

	// ---------------- Engine ----------------

	eng := engine.New(store, sinks, engine.Options{
		TicksPerMinute: cfg.TicksPerMinute(),
		IndexCapacity:  cfg.Index.Capacity,
	})
	if err := eng.Load(); err != nil {
		log.Fatalf("engine load failed: %v", err)
	}

	svc := service.New(eng, auth.NewHMACVerifier(cfg.Auth.Secret))

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Kafka.Brokers) > 0 {
		bc, err := broadcaster.New(ob, cfg.Kafka.Brokers, cfg.Kafka.ExecutionsTopic, 250*time.Millisecond)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	tick := time.Duration(cfg.Clock.TickSeconds) * time.Second
	driver := service.NewTickDriver(svc, tick, eng.Height())
	go driver.Run(ctx)

	// ---------------- HTTP ----------------

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpserver.New(svc, hub).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("voltex engine listening on %s (height %d)", cfg.Server.Addr, eng.Height())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server exited: %v", err)
		}
	}()

	// ---------------- Shutdown ----------------

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
