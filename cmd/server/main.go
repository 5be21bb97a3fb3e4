package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kantin-be/internal/config"
	"kantin-be/internal/db"
	"kantin-be/internal/handler"
	"kantin-be/internal/logger"
	"kantin-be/internal/menu"
	"kantin-be/internal/order"
	"kantin-be/internal/report"
	"kantin-be/internal/user"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := db.InitDB(cfg)
	defer database.Close()

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	menuRepo := menu.NewRepository(database)
	menuSvc := menu.NewService(menuRepo)

	ledger := menu.NewLedger()
	orderRepo := order.NewRepository(database, ledger)
	orderSvc := order.NewService(orderRepo, menuRepo, userSvc, order.Config{
		CheckoutWindow: cfg.CheckoutWindow,
		ManualWindow:   cfg.ManualWindow,
		SweepInterval:  cfg.SweepInterval,
	})

	reportSvc := report.NewService(orderSvc)

	h := handler.NewHandler(userSvc, menuSvc, orderSvc, reportSvc)

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: h.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Background cancellation of lapsed payment windows.
	orderSvc.StartExpirySweeper(ctx)

	g.Go(func() error {
		log.Info("🚀 kantin server running", zap.String("port", cfg.AppPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("application terminated with error", zap.Error(err))
	}
}
