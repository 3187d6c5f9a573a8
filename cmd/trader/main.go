package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/config"
	"github.com/vitos/bracket_trader/internal/infrastructure/logger"
	"github.com/vitos/bracket_trader/internal/strategy"
)

var (
	configPath string
	envPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "trader",
		Short:         "Bracket order spot trader for Bybit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the YAML config")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "Path to the .env file with secrets")

	rootCmd.AddCommand(liveCmd())
	rootCmd.AddCommand(backtestCmd())
	rootCmd.AddCommand(recordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// buildStrategy returns the mean reversion strategy, one instance per
// market, fed one trade per interval.
func buildStrategy(cfg *config.Config) strategy.Strategy {
	params := cfg.Strategy.MeanReversion
	width := cfg.Strategy.Interval.Milliseconds()
	return strategy.NewPerMarket(func() strategy.Strategy {
		return strategy.NewInterval(strategy.NewMeanReversion(params), width)
	})
}
