package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/usecase"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

// scriptedStrategy emits the order stored for a trade timestamp.
type scriptedStrategy struct {
	mu     sync.Mutex
	orders map[int64]*domain.Order
	seen   []domain.Trade
}

func (s *scriptedStrategy) Run(trade domain.Trade) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, trade)
	if o, ok := s.orders[trade.Timestamp]; ok {
		order := *o
		return &order
	}
	return nil
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Seen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []usecase.Event
}

func (p *recordingPublisher) Publish(e usecase.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []usecase.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]usecase.Event(nil), p.events...)
}

// mockStream serves batches from a channel. A closed channel fails the read.
type mockStream struct {
	batches chan []domain.Trade
	closed  bool
}

func (s *mockStream) Next(ctx context.Context) ([]domain.Trade, error) {
	select {
	case batch, ok := <-s.batches:
		if !ok {
			return nil, errors.New("stream closed by peer")
		}
		return batch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}

type MockExchange struct {
	mu sync.Mutex

	Streams      []*mockStream
	SubscribeErr error
	Balances     []domain.Balance
	Filters      []domain.SymbolFilter
	BuyStatus    domain.OrderStatus
	BuyFilled    decimal.Decimal

	Subscribes   int
	BalanceCalls int
	FilterCalls  int
	Buys         []domain.BuyRequest
	Brackets     []domain.BracketRequest
}

func (m *MockExchange) SubscribeTrades(ctx context.Context, markets []string) (domain.TradeStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscribes++
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	if len(m.Streams) == 0 {
		return &mockStream{batches: make(chan []domain.Trade)}, nil
	}
	s := m.Streams[0]
	m.Streams = m.Streams[1:]
	return s, nil
}

func (m *MockExchange) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BalanceCalls++
	return m.Balances, nil
}

func (m *MockExchange) GetMarketFilters(ctx context.Context, market string) ([]domain.SymbolFilter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilterCalls++
	return m.Filters, nil
}

func (m *MockExchange) SubmitBuy(ctx context.Context, req domain.BuyRequest) (*domain.BuyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Buys = append(m.Buys, req)
	return &domain.BuyResult{OrderID: "1", Status: m.BuyStatus, FilledQuantity: m.BuyFilled}, nil
}

func (m *MockExchange) SubmitBracketSell(ctx context.Context, req domain.BracketRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Brackets = append(m.Brackets, req)
	return nil
}

func (m *MockExchange) counts() (subscribes, balances, buys int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Subscribes, m.BalanceCalls, len(m.Buys)
}

func spotFilters() []domain.SymbolFilter {
	return []domain.SymbolFilter{
		{Kind: domain.FilterPrice, Step: d("0.01")},
		{Kind: domain.FilterLotSize, Min: d("0.001"), Max: d("1000"), Step: d("0.001")},
		{Kind: domain.FilterMinNotional, Min: d("10")},
	}
}

func ts(minutes int) int64 {
	return time.Date(2024, 1, 1, 0, minutes, 0, 0, time.UTC).UnixMilli()
}
