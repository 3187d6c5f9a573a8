package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/infrastructure/storage"
	"github.com/vitos/bracket_trader/internal/strategy"
	"github.com/vitos/bracket_trader/internal/usecase"
)

const dateLayout = "2006-01-02"

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}

func backtestCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay recorded history through the strategy, a buy-and-hold and a random baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			end := time.Now().UTC()
			if to != "" {
				if end, err = parseTime(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}
			start := end.AddDate(0, -1, 0)
			if from != "" {
				if start, err = parseTime(from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if !start.Before(end) {
				return fmt.Errorf("--from %s is not before --to %s", start, end)
			}

			store, err := storage.NewSQLiteStore(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			hold := usecase.NewSimulator(cfg.SimulatorConfig(cfg.Backtest.HoldConcurrency),
				strategy.NewPerMarket(func() strategy.Strategy { return strategy.NewHold() }))
			random := usecase.NewSimulator(cfg.SimulatorConfig(cfg.Backtest.StrategyConcurrency),
				strategy.NewPerMarket(func() strategy.Strategy { return strategy.NewRandom(cfg.Backtest.RandomSeed) }))
			sim := usecase.NewSimulator(cfg.SimulatorConfig(cfg.Backtest.StrategyConcurrency), buildStrategy(cfg))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			began := time.Now()
			n, err := usecase.Replay(ctx, store, cfg.Markets, start, end, strategy.NewMulti(hold, random, sim))
			if err != nil {
				return err
			}
			log.Info("Backtest finished",
				zap.Int("trades", n),
				zap.Time("from", start),
				zap.Time("to", end),
				zap.Duration("took", time.Since(began)))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, hold.Report())
			fmt.Fprintln(out, random.Report())
			fmt.Fprintln(out, sim.Report())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start of the replay (RFC3339 or YYYY-MM-DD), default one month before --to")
	cmd.Flags().StringVar(&to, "to", "", "End of the replay (RFC3339 or YYYY-MM-DD), default now")
	return cmd
}
