package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/livesale/internal/appcontext"
	"github.com/RoyceAzure/lab/livesale/internal/config"
	"github.com/RoyceAzure/lab/livesale/internal/service"
	"github.com/rs/zerolog"
)

const (
	reapInterval = time.Minute
	cartTTL      = 30 * time.Minute
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "livesale").Logger()

	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		log.Fatal(err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	reaperDone := make(chan struct{}, 1)
	go func() {
		runCartReaper(ctx, &logger, app)
		reaperDone <- struct{}{}
	}()

	logger.Info().Msg("livesale server started")

	<-sigChan
	logger.Info().Msg("received shutdown signal")
	cancel()
	<-reaperDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("application shutdown error")
	}
	logger.Info().Msg("closed completed")
}

// runCartReaper 定期釋放閒置過久的購物車，把庫存還回去
func runCartReaper(ctx context.Context, logger *zerolog.Logger, app *appcontext.ApplicationContext) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			carts, err := app.Store.GetStaleCarts(ctx, "", time.Now().Add(-cartTTL))
			if err != nil {
				logger.Error().Err(err).Msg("failed to query stale carts")
				continue
			}

			for _, cart := range carts {
				_, err := app.ReservationService.CancelCart(ctx, cart.ID, cart.OrganizationID)
				if err != nil {
					// 已付款的購物車不能自動取消，留給人工處理
					if errors.Is(err, service.ErrCartAlreadyPaid) {
						continue
					}
					logger.Error().Err(err).Str("cart_id", cart.ID).Msg("failed to release stale cart")
					continue
				}
				logger.Info().Str("cart_id", cart.ID).Msg("released stale cart")
			}
		}
	}
}
