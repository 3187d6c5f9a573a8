package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/usecase"
)

type stubPositions struct {
	positions []*domain.Position
	err       error
	limit     int
}

func (s *stubPositions) SavePosition(ctx context.Context, p *domain.Position) error { return nil }

func (s *stubPositions) UpdatePositionOutcome(ctx context.Context, p *domain.Position) error {
	return nil
}

func (s *stubPositions) ListPositions(ctx context.Context, limit int) ([]*domain.Position, error) {
	s.limit = limit
	return s.positions, s.err
}

func newTestServer(t *testing.T, repo *stubPositions) *Server {
	t.Helper()
	ledger := usecase.NewPositionLedger(usecase.DefaultLedgerConfig(), nil)
	require.NoError(t, ledger.Open(&domain.Position{
		Market:     "BTCUSDT",
		Quantity:   decimal.NewFromInt(1),
		BuyPrice:   decimal.NewFromInt(100),
		TakeProfit: decimal.NewNullDecimal(decimal.NewFromInt(110)),
		StopLoss:   decimal.NewNullDecimal(decimal.NewFromInt(90)),
		OpenedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	ledger.Check("BTCUSDT", decimal.NewFromInt(105), 1)

	wallet := usecase.NewWallet("USDT")
	wallet.UpdateQuantity("USDT", decimal.NewFromInt(250))

	return NewServer(0, ledger, wallet, repo, []string{"BTCUSDT"}, zap.NewNop())
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, &stubPositions{})
	rec := get(t, s, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.OpenPositions)
	assert.Equal(t, "250.00", resp.TotalValue)
	assert.Nil(t, resp.CooldownUntil)
}

func TestOpenPositions(t *testing.T) {
	s := newTestServer(t, &stubPositions{})
	rec := get(t, s, "/positions")
	require.Equal(t, http.StatusOK, rec.Code)

	var positions []domain.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, "BTCUSDT", positions[0].Market)
	assert.Equal(t, "105", positions[0].LastPrice.String())
}

func TestClosedPositions(t *testing.T) {
	profitable := true
	repo := &stubPositions{positions: []*domain.Position{{ID: "p1", Market: "ETHUSDT", Profitable: &profitable}}}
	s := newTestServer(t, repo)

	rec := get(t, s, "/positions/closed?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, repo.limit)
	assert.Contains(t, rec.Body.String(), `"id":"p1"`)

	rec = get(t, s, "/positions/closed?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	repo.err = errors.New("database is locked")
	rec = get(t, s, "/positions/closed")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, defaultPositionLimit, repo.limit)
}

func TestWalletAndDashboard(t *testing.T) {
	s := newTestServer(t, &stubPositions{})

	rec := get(t, s, "/api/wallet")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"USDT"`)

	rec = get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Wallet 250.00")
	assert.Contains(t, body, "<td>BTCUSDT</td>")
	assert.Contains(t, body, "5.00%")

	rec = get(t, s, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
