package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/config"
	"github.com/vitos/bracket_trader/internal/infrastructure/exchange"
	"github.com/vitos/bracket_trader/internal/infrastructure/notify"
	"github.com/vitos/bracket_trader/internal/infrastructure/storage"
	"github.com/vitos/bracket_trader/internal/strategy"
	"github.com/vitos/bracket_trader/internal/usecase"
	"github.com/vitos/bracket_trader/internal/web"
)

func liveCmd() *cobra.Command {
	var noWeb bool
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Trade live on the configured markets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			return runLive(cfg, log, buildStrategy(cfg), !noWeb)
		},
	}
	cmd.Flags().BoolVar(&noWeb, "no-web", false, "Do not start the status server")
	return cmd
}

func recordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record the trade stream into the history database without trading",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			cfg.Trading.RecordTrades = true
			cfg.Trading.Warmup = 0
			return runLive(cfg, log, strategy.NewMulti(), false)
		},
	}
}

func runLive(cfg *config.Config, log *zap.Logger, strat strategy.Strategy, withWeb bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	adapter := exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, log)

	sinks := []usecase.Sink{usecase.NewAuditSink(store)}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegramBot(cfg.Telegram.Token, cfg.Telegram.ChannelID, cfg.Exchange.QuoteAsset)
		if err != nil {
			log.Error("Telegram disabled", zap.Error(err))
		} else {
			sinks = append(sinks, tg)
		}
	}
	dispatcher := usecase.NewDispatcher(log, sinks...)

	wallet := usecase.NewWallet(cfg.Exchange.QuoteAsset)
	ledger := usecase.NewPositionLedger(cfg.LedgerConfig(), dispatcher)
	trader := usecase.NewLiveTrader(
		cfg.LiveConfig(),
		adapter,
		strat,
		wallet,
		ledger,
		usecase.NewFilterService(adapter, cfg.Trading.FilterCacheTTL),
		usecase.NewOrderExecutor(adapter, cfg.EntrySizeFactor(), log),
		log,
	)

	var recorder *usecase.HistoryRecorder
	if cfg.Trading.RecordTrades {
		recorder = usecase.NewHistoryRecorder(store, log)
		trader.WithRecorder(recorder)
	}

	if cfg.Trading.Warmup > 0 {
		now := time.Now()
		history, err := store.ListAggregatedTrades(ctx, cfg.Markets, now.Add(-cfg.Trading.Warmup), now, usecase.ReplayBucket)
		if err != nil {
			log.Warn("Failed to load warmup history", zap.Error(err))
		} else {
			trader.Warmup(history)
		}
	}

	if err := wallet.Sync(ctx, adapter); err != nil {
		log.Warn("Initial wallet sync failed", zap.Error(err))
	}

	var srv *web.Server
	if withWeb {
		srv = web.NewServer(cfg.Server.Port, ledger, wallet, store, cfg.Markets, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("Web server failed", zap.Error(err))
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = dispatcher.Run(runCtx)
	}()
	if recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = recorder.Run(runCtx)
		}()
	}

	log.Info("Trader started", zap.Strings("markets", cfg.Markets), zap.String("strategy", strat.Name()))
	err = trader.Run(runCtx)
	cancel()
	wg.Wait()

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.Warn("Web server shutdown", zap.Error(serr))
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("Trader stopped")
	return nil
}
