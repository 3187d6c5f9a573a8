package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vitos/bracket_trader/internal/infrastructure/storage"
)

func main() {
	dbPath := flag.String("db", "trader.db", "Path to the SQLite database")
	limit := flag.Int("limit", 20, "Number of positions to show")
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	stats, err := store.TradeStats(ctx)
	if err != nil {
		fmt.Printf("Failed to read trade stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Recorded trades for %d markets:\n", len(stats))
	for _, s := range stats {
		fmt.Printf("- %s: %d trades from %s to %s\n", s.Market, s.Count, s.First.Format("2006-01-02 15:04"), s.Last.Format("2006-01-02 15:04"))
	}

	positions, err := store.ListPositions(ctx, *limit)
	if err != nil {
		fmt.Printf("Failed to list positions: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nLast %d positions:\n", len(positions))
	for _, p := range positions {
		switch {
		case p.Profitable == nil:
			fmt.Printf("  ⏳ %s %s buy=%s tp=%s sl=%s opened %s\n", shortID(p.ID), p.Market, p.BuyPrice, p.TakeProfit.Decimal, p.StopLoss.Decimal, p.OpenedAt.Format("2006-01-02 15:04"))
		case *p.Profitable:
			fmt.Printf("  ✅ %s %s buy=%s exit=%s return=%s%%\n", shortID(p.ID), p.Market, p.BuyPrice, p.ExitPrice, p.Return().Shift(2).StringFixed(2))
		default:
			fmt.Printf("  ❌ %s %s buy=%s exit=%s return=%s%%\n", shortID(p.ID), p.Market, p.BuyPrice, p.ExitPrice, p.Return().Shift(2).StringFixed(2))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
