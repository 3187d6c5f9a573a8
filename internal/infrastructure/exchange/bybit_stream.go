package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
)

// Bybit accepts at most ten topics per spot subscribe request.
const maxTopicsPerRequest = 10

type wsMessage struct {
	Op      string         `json:"op"`
	Success *bool          `json:"success"`
	RetMsg  string         `json:"ret_msg"`
	Topic   string         `json:"topic"`
	Data    []wsTradeEntry `json:"data"`
}

type wsTradeEntry struct {
	Time   int64  `json:"T"`
	Symbol string `json:"s"`
	Side   string `json:"S"`
	Size   string `json:"v"`
	Price  string `json:"p"`
}

// SubscribeTrades dials the public spot stream and subscribes to the
// publicTrade topic of every market.
func (b *BybitAdapter) SubscribeTrades(ctx context.Context, markets []string) (domain.TradeStream, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, b.wsURL, nil)
	if err != nil {
		return nil, &domain.ExchangeError{Op: "dial stream", Err: err}
	}

	s := &tradeStream{
		conn:   conn,
		done:   make(chan struct{}),
		logger: b.logger,
	}

	for start := 0; start < len(markets); start += maxTopicsPerRequest {
		end := min(start+maxTopicsPerRequest, len(markets))
		args := make([]string, 0, end-start)
		for _, m := range markets[start:end] {
			args = append(args, "publicTrade."+m)
		}
		if err := s.writeJSON(map[string]interface{}{"op": "subscribe", "args": args}); err != nil {
			conn.Close()
			return nil, &domain.ExchangeError{Op: "subscribe", Err: err}
		}
	}

	go s.pingLoop(b.pingInterval)
	return s, nil
}

type tradeStream struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func (s *tradeStream) writeJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *tradeStream) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.writeJSON(map[string]string{"op": "ping"}); err != nil {
				s.logger.Debug("stream ping failed", zap.Error(err))
				return
			}
		}
	}
}

// Next blocks until a batch of trades arrives. The context deadline bounds
// the read; after a timeout the stream must be closed.
func (s *tradeStream) Next(ctx context.Context) ([]domain.Trade, error) {
	deadline, _ := ctx.Deadline()
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, context.DeadlineExceeded
			}
			return nil, &domain.ExchangeError{Op: "read stream", Err: err}
		}

		trades, err := parseTradeMessage(message)
		if err != nil {
			return nil, &domain.ExchangeError{Op: "read stream", Err: err}
		}
		if len(trades) > 0 {
			return trades, nil
		}
	}
}

func (s *tradeStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// parseTradeMessage returns the trades of a publicTrade message. Control
// messages yield no trades; a rejected subscription is an error. A taker
// sell gets a negative quantity.
func parseTradeMessage(message []byte) ([]domain.Trade, error) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.Op == "subscribe" && msg.Success != nil && !*msg.Success {
		return nil, fmt.Errorf("subscribe rejected: %s", msg.RetMsg)
	}
	if !strings.HasPrefix(msg.Topic, "publicTrade.") {
		return nil, nil
	}

	trades := make([]domain.Trade, 0, len(msg.Data))
	for _, entry := range msg.Data {
		size, err := strconv.ParseFloat(entry.Size, 64)
		if err != nil {
			return nil, fmt.Errorf("trade size %q: %w", entry.Size, err)
		}
		price, err := strconv.ParseFloat(entry.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("trade price %q: %w", entry.Price, err)
		}
		if entry.Side == "Sell" {
			size = -size
		}
		market := entry.Symbol
		if market == "" {
			market = strings.TrimPrefix(msg.Topic, "publicTrade.")
		}
		trades = append(trades, domain.Trade{
			Market:    market,
			Quantity:  size,
			Price:     price,
			Timestamp: entry.Time,
		})
	}
	return trades, nil
}
