package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mobileplanet/internal/auth"
	"mobileplanet/internal/config"
	"mobileplanet/internal/http/handlers"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/mq"
	"mobileplanet/internal/payment"
	"mobileplanet/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
			log.SetOutput(out)
		}
	}
	applog.Setup(out, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(ctx, 30*time.Second)
	store, err := repos.OpenDB(openCtx, cfg)
	cancelOpen()
	if err != nil {
		log.Fatal(err)
	}

	proc, err := payment.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	var pub mq.Publisher = mq.Noop{}
	if cfg.AMQPURL != "" {
		p, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal(err)
		}
		pub = p
	}

	if cfg.TokenTTL == 0 {
		log.Printf("[warn] TOKEN_TTL=0: access tokens never expire")
	}
	tokens := auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)

	deps := handlers.NewDeps(store, cfg, tokens, proc, pub)
	app := handlers.NewApp(cfg, deps, out)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		deps.Settlement.RunRecovery(workerCtx, cfg.SettlementRetryInterval)
	}()

	go func() {
		<-ctx.Done()
		log.Printf("[shutdown] signal received, draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("[shutdown] http: %v", err)
		}
	}()

	log.Printf("[http] listening on :%s (store=%s, payments=%s)", cfg.Port, cfg.StoreDriver, proc.Name())
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[http] %v", err)
	}

	stopWorker()
	<-workerDone
	if err := pub.Close(); err != nil {
		log.Printf("[shutdown] publisher: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("[shutdown] store: %v", err)
	}
}
