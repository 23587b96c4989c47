package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mindflow/mindflow"
)

func main() {
	seed := flag.Bool("seed", false, "seed the database with sample data and exit")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := mindflow.LoadConfig()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	store, err := mindflow.NewStore(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if *seed {
		if err := mindflow.Seed(store); err != nil {
			logger.Fatalf("seed: %v", err)
		}
		logger.Info("database seeded (username: admin, password: password123)")
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := mindflow.New(cfg, store, logger, mindflow.ViewFuncs{})

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := app.Start(); err != nil {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
