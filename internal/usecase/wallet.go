package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vitos/bracket_trader/internal/domain"
)

// BalanceSource reports exchange balances.
type BalanceSource interface {
	GetBalances(ctx context.Context) ([]domain.Balance, error)
}

type Asset struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Free     decimal.Decimal `json:"free"`
}

func (a Asset) Value() decimal.Decimal {
	return a.Price.Mul(a.Quantity)
}

// Wallet tracks price and quantity per asset. The quote asset is always
// priced at 1. Every method takes the lock for its own duration only.
type Wallet struct {
	quote  string
	mu     sync.Mutex
	assets map[string]*Asset
}

func NewWallet(quoteAsset string) *Wallet {
	w := &Wallet{
		quote:  quoteAsset,
		assets: make(map[string]*Asset),
	}
	w.assets[quoteAsset] = &Asset{Symbol: quoteAsset, Price: decimal.NewFromInt(1)}
	return w
}

func (w *Wallet) QuoteAsset() string {
	return w.quote
}

// BaseAsset strips the quote asset suffix from a market name.
func (w *Wallet) BaseAsset(market string) (string, error) {
	base, ok := strings.CutSuffix(market, w.quote)
	if !ok || base == "" {
		return "", fmt.Errorf("market %s is not quoted in %s", market, w.quote)
	}
	return base, nil
}

func (w *Wallet) entry(symbol string) *Asset {
	a, ok := w.assets[symbol]
	if !ok {
		a = &Asset{Symbol: symbol}
		w.assets[symbol] = a
	}
	return a
}

func (w *Wallet) UpdatePrice(market string, price decimal.Decimal) error {
	base, err := w.BaseAsset(market)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entry(base).Price = price
	return nil
}

func (w *Wallet) UpdateQuantity(asset string, quantity decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a := w.entry(asset)
	a.Quantity = quantity
	a.Free = quantity
}

// Sync overwrites quantities with the balances reported by the exchange.
// The network call happens before the lock is taken.
func (w *Wallet) Sync(ctx context.Context, source BalanceSource) error {
	balances, err := source.GetBalances(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range balances {
		a := w.entry(b.Asset)
		a.Quantity = b.Total
		a.Free = b.Free
	}
	return nil
}

func (w *Wallet) Value(asset string) decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	if a, ok := w.assets[asset]; ok {
		return a.Value()
	}
	return decimal.Zero
}

// Available returns the free, unlocked quantity of asset.
func (w *Wallet) Available(asset string) decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	if a, ok := w.assets[asset]; ok {
		return a.Free
	}
	return decimal.Zero
}

func (w *Wallet) TotalValue() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := decimal.Zero
	for _, a := range w.assets {
		total = total.Add(a.Value())
	}
	return total
}

// Snapshot returns a copy of all tracked assets sorted by symbol.
func (w *Wallet) Snapshot() []Asset {
	w.mu.Lock()
	out := make([]Asset, 0, len(w.assets))
	for _, a := range w.assets {
		out = append(out, *a)
	}
	w.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
