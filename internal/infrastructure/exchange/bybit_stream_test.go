package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
)

func TestParseTradeMessage(t *testing.T) {
	msg := `{"topic":"publicTrade.BTCUSDT","type":"snapshot","ts":1700000000123,"data":[
		{"T":1700000000100,"s":"BTCUSDT","S":"Buy","v":"0.5","p":"37000.5","i":"1"},
		{"T":1700000000120,"s":"BTCUSDT","S":"Sell","v":"0.25","p":"36999","i":"2"}]}`

	trades, err := parseTradeMessage([]byte(msg))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, domain.Trade{Market: "BTCUSDT", Quantity: 0.5, Price: 37000.5, Timestamp: 1700000000100}, trades[0])
	assert.Equal(t, -0.25, trades[1].Quantity)
}

func TestParseTradeMessage_Control(t *testing.T) {
	trades, err := parseTradeMessage([]byte(`{"success":true,"ret_msg":"pong","op":"ping"}`))
	require.NoError(t, err)
	assert.Empty(t, trades)

	_, err = parseTradeMessage([]byte(`{"success":false,"ret_msg":"invalid topic","op":"subscribe"}`))
	assert.Error(t, err)

	_, err = parseTradeMessage([]byte(`{"topic":"publicTrade.BTCUSDT","data":[{"v":"x","p":"1"}]}`))
	assert.Error(t, err)
}

func newStreamServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscribeTrades(t *testing.T) {
	subscribed := make(chan []interface{}, 2)
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		for i := 0; i < 2; i++ {
			var req map[string]interface{}
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			subscribed <- req["args"].([]interface{})
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"success":true,"op":"subscribe"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"topic":"publicTrade.ETHUSDT","data":[{"T":5,"s":"ETHUSDT","S":"Buy","v":"1","p":"2000"}]}`))
		time.Sleep(time.Second)
	})

	b := NewBybitAdapter("", "", "", wsURL, zap.NewNop())
	markets := []string{"M1USDT", "M2USDT", "M3USDT", "M4USDT", "M5USDT", "M6USDT", "M7USDT", "M8USDT", "M9USDT", "M10USDT", "ETHUSDT"}
	stream, err := b.SubscribeTrades(context.Background(), markets)
	require.NoError(t, err)
	defer stream.Close()

	assert.Len(t, <-subscribed, 10)
	assert.Equal(t, []interface{}{"publicTrade.ETHUSDT"}, <-subscribed)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	trades, err := stream.Next(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "ETHUSDT", trades[0].Market)
	assert.Equal(t, 2000.0, trades[0].Price)
}

func TestTradeStream_ReadTimeout(t *testing.T) {
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})

	b := NewBybitAdapter("", "", "", wsURL, zap.NewNop())
	stream, err := b.SubscribeTrades(context.Background(), []string{"BTCUSDT"})
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = stream.Next(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestTradeStream_PeerClose(t *testing.T) {
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		var req map[string]interface{}
		_ = conn.ReadJSON(&req)
	})

	b := NewBybitAdapter("", "", "", wsURL, zap.NewNop())
	stream, err := b.SubscribeTrades(context.Background(), []string{"BTCUSDT"})
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = stream.Next(ctx)
	var exErr *domain.ExchangeError
	assert.ErrorAs(t, err, &exErr)
}
