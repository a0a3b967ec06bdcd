package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "proxybid/internal/biddingService"
	"proxybid/internal/config"
	"proxybid/internal/notifier"
	"proxybid/internal/obs"
	"proxybid/internal/repository"
	"proxybid/internal/server"
	"proxybid/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		utils.Error("Server stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	utils.Info("Server stopped", nil)
}

func run() error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("config: bad LOG_LEVEL, keeping info", map[string]any{"error": err.Error()})
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.ServiceName, version, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			utils.Warn("otel: shutdown failed", map[string]any{"error": err.Error()})
		}
	}()

	repo, closeRepo, err := repository.Open(cfg.StoreDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			utils.Warn("store: close failed", map[string]any{"error": err.Error()})
		}
	}()

	hub := notifier.NewHub()
	publishers := notifier.Fanout{hub}
	if cfg.RabbitURL != "" {
		amqpPub, err := notifier.NewAMQPPublisher(cfg.RabbitURL, cfg.AuctionExchange)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer amqpPub.Close()
		publishers = append(publishers, amqpPub)
	}

	biddingSvc := bidding.NewBiddingService(repo, publishers,
		bidding.WithLockWait(cfg.LockWait),
		bidding.WithMaxConflictRetries(cfg.MaxConflictRetries),
		bidding.WithHistoryMaxLimit(cfg.HistoryMaxLimit),
	)

	router := server.SetupRouter(biddingSvc, hub)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("Starting auction server", map[string]any{"addr": cfg.HTTPAddr, "store": cfg.StoreDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return biddingSvc.RunLifecycle(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
