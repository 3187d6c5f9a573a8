package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/config"
	"github.com/vitos/bracket_trader/internal/infrastructure/exchange"
	"github.com/vitos/bracket_trader/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the YAML config")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Bybit Interaction...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Exchange.RESTEndpoint)
	if len(cfg.Exchange.APIKey) >= 4 {
		fmt.Printf("API Key: %s...\n", cfg.Exchange.APIKey[:4])
	}

	adapter := exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 2. Check Public Endpoint (Filters)
	for _, market := range cfg.Markets {
		filters, err := adapter.GetMarketFilters(ctx, market)
		if err != nil {
			fmt.Printf("❌ Failed to get filters for %s: %v\n", market, err)
			continue
		}
		tick, _ := usecase.Filters(filters).TickSize()
		fmt.Printf("✅ Filters (%s): tick=%s", market, tick)
		for _, f := range filters[1:] {
			fmt.Printf(" %s[min=%s max=%s step=%s]", f.Kind, f.Min, f.Max, f.Step)
		}
		fmt.Println()
	}

	// 3. Check Private Endpoint (Balances)
	balances, err := adapter.GetBalances(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get balances: %v\n", err)
	} else {
		for _, b := range balances {
			fmt.Printf("✅ Balance %s: free=%s total=%s\n", b.Asset, b.Free, b.Total)
		}
	}

	// 4. Check Trade Stream
	stream, err := adapter.SubscribeTrades(ctx, cfg.Markets)
	if err != nil {
		fmt.Printf("❌ Failed to subscribe: %v\n", err)
		os.Exit(1)
	}
	defer stream.Close()

	readCtx, readCancel := context.WithTimeout(ctx, cfg.Trading.MessageTimeout)
	defer readCancel()
	trades, err := stream.Next(readCtx)
	if err != nil {
		fmt.Printf("❌ No trades received: %v\n", err)
		os.Exit(1)
	}
	for _, t := range trades {
		fmt.Printf("✅ Trade %s: qty=%f price=%f at %s\n", t.Market, t.Quantity, t.Price, time.UnixMilli(t.Timestamp).UTC())
	}
}
