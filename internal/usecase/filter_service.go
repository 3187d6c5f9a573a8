package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/vitos/bracket_trader/internal/domain"
)

type FilterSource interface {
	GetMarketFilters(ctx context.Context, market string) ([]domain.SymbolFilter, error)
}

type cachedFilters struct {
	filters Filters
	expiry  time.Time
}

// FilterService caches exchange filters per market.
type FilterService struct {
	source  FilterSource
	ttl     time.Duration
	mu      sync.Mutex
	cache   map[string]cachedFilters
	timeNow func() time.Time
}

func NewFilterService(source FilterSource, ttl time.Duration) *FilterService {
	return &FilterService{
		source:  source,
		ttl:     ttl,
		cache:   make(map[string]cachedFilters),
		timeNow: time.Now,
	}
}

func (s *FilterService) Get(ctx context.Context, market string) (Filters, error) {
	s.mu.Lock()
	cached, ok := s.cache[market]
	s.mu.Unlock()
	if ok && s.timeNow().Before(cached.expiry) {
		return cached.filters, nil
	}

	filters, err := s.source.GetMarketFilters(ctx, market)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[market] = cachedFilters{filters: filters, expiry: s.timeNow().Add(s.ttl)}
	s.mu.Unlock()
	return filters, nil
}
