package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
)

const (
	BybitBaseURL = "https://api.bybit.com"
	BybitWSURL   = "wss://stream.bybit.com/v5/public/spot"

	recvWindow = 5000
)

// BybitAdapter implements domain.Exchange for the Bybit v5 spot API.
type BybitAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	wsURL     string
	client    *http.Client
	logger    *zap.Logger

	pingInterval time.Duration
	pollInterval time.Duration
	pollAttempts int
	timeNow      func() time.Time
}

func NewBybitAdapter(apiKey, apiSecret, baseURL, wsURL string, logger *zap.Logger) *BybitAdapter {
	if baseURL == "" {
		baseURL = BybitBaseURL
	}
	if wsURL == "" {
		wsURL = BybitWSURL
	}
	return &BybitAdapter{
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		wsURL:        wsURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
		pingInterval: 20 * time.Second,
		pollInterval: 200 * time.Millisecond,
		pollAttempts: 5,
		timeNow:      time.Now,
	}
}

// --- REST API ---

func (b *BybitAdapter) sign(params string, timestamp int64) string {
	// timestamp + apiKey + recvWindow + params
	toSign := fmt.Sprintf("%d%s%d%s", timestamp, b.apiKey, recvWindow, params)
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(toSign))
	return hex.EncodeToString(h.Sum(nil))
}

type apiResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// sendRequest signs and sends a request. GET parameters go in the query
// string, POST parameters in the JSON body. The result object is decoded
// into out.
func (b *BybitAdapter) sendRequest(ctx context.Context, method, path string, query url.Values, payload map[string]interface{}, out interface{}) error {
	timestamp := b.timeNow().UnixMilli()

	var body []byte
	var paramsStr string
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = jsonBody
		paramsStr = string(jsonBody)
	} else if len(query) > 0 {
		paramsStr = query.Encode()
		path += "?" + paramsStr
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("X-BAPI-API-KEY", b.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-BAPI-SIGN", b.sign(paramsStr, timestamp))
	req.Header.Set("X-BAPI-RECV-WINDOW", strconv.Itoa(recvWindow))
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}
	if result.RetCode != 0 {
		return fmt.Errorf("bybit api error %d: %s", result.RetCode, result.RetMsg)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(result.Result, out)
}

func (b *BybitAdapter) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	var result struct {
		List []struct {
			Coin []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
				Locked        string `json:"locked"`
			} `json:"coin"`
		} `json:"list"`
	}
	query := url.Values{"accountType": {"UNIFIED"}}
	if err := b.sendRequest(ctx, http.MethodGet, "/v5/account/wallet-balance", query, nil, &result); err != nil {
		return nil, &domain.ExchangeError{Op: "get balances", Err: err}
	}

	var balances []domain.Balance
	for _, account := range result.List {
		for _, c := range account.Coin {
			total := parseDecimal(c.WalletBalance)
			free := total.Sub(parseDecimal(c.Locked))
			if free.IsNegative() {
				free = decimal.Zero
			}
			balances = append(balances, domain.Balance{Asset: c.Coin, Free: free, Total: total})
		}
	}
	return balances, nil
}

func (b *BybitAdapter) GetMarketFilters(ctx context.Context, market string) ([]domain.SymbolFilter, error) {
	var result struct {
		List []struct {
			Symbol        string `json:"symbol"`
			LotSizeFilter struct {
				BasePrecision string `json:"basePrecision"`
				MinOrderQty   string `json:"minOrderQty"`
				MaxOrderQty   string `json:"maxOrderQty"`
				MinOrderAmt   string `json:"minOrderAmt"`
				MaxOrderAmt   string `json:"maxOrderAmt"`
			} `json:"lotSizeFilter"`
			PriceFilter struct {
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
		} `json:"list"`
	}
	query := url.Values{"category": {"spot"}, "symbol": {market}}
	if err := b.sendRequest(ctx, http.MethodGet, "/v5/market/instruments-info", query, nil, &result); err != nil {
		return nil, &domain.ExchangeError{Op: "get filters", Err: err}
	}
	if len(result.List) == 0 {
		return nil, &domain.ExchangeError{Op: "get filters", Err: fmt.Errorf("unknown market %s", market)}
	}

	info := result.List[0]
	return []domain.SymbolFilter{
		{Kind: domain.FilterPrice, Step: parseDecimal(info.PriceFilter.TickSize)},
		{
			Kind: domain.FilterLotSize,
			Min:  parseDecimal(info.LotSizeFilter.MinOrderQty),
			Max:  parseDecimal(info.LotSizeFilter.MaxOrderQty),
			Step: parseDecimal(info.LotSizeFilter.BasePrecision),
		},
		{
			Kind: domain.FilterMinNotional,
			Min:  parseDecimal(info.LotSizeFilter.MinOrderAmt),
			Max:  parseDecimal(info.LotSizeFilter.MaxOrderAmt),
		},
	}, nil
}

// SubmitBuy places a market buy sized in the base coin, or an IOC limit buy
// when a price is set, and waits for the order to reach a final state.
func (b *BybitAdapter) SubmitBuy(ctx context.Context, req domain.BuyRequest) (*domain.BuyResult, error) {
	payload := map[string]interface{}{
		"category":    "spot",
		"symbol":      req.Market,
		"side":        "Buy",
		"orderType":   "Market",
		"qty":         req.Quantity.String(),
		"marketUnit":  "baseCoin",
		"orderLinkId": req.ClientOrderID,
	}
	if req.Price.Valid {
		payload["orderType"] = "Limit"
		payload["price"] = req.Price.Decimal.String()
		payload["timeInForce"] = "IOC"
		delete(payload, "marketUnit")
	}

	var created struct {
		OrderID string `json:"orderId"`
	}
	if err := b.sendRequest(ctx, http.MethodPost, "/v5/order/create", nil, payload, &created); err != nil {
		return nil, &domain.ExchangeError{Op: "submit buy", Err: err}
	}

	for attempt := 0; ; attempt++ {
		res, final, err := b.orderStatus(ctx, req.Market, created.OrderID)
		if err != nil {
			return nil, &domain.ExchangeError{Op: "query order", Err: err}
		}
		if final {
			return res, nil
		}
		if attempt+1 >= b.pollAttempts {
			return nil, &domain.ExchangeError{
				Op:  "query order",
				Err: fmt.Errorf("order %s still %s after %d polls", created.OrderID, res.Status, b.pollAttempts),
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.pollInterval):
		}
	}
}

func (b *BybitAdapter) orderStatus(ctx context.Context, market, orderID string) (*domain.BuyResult, bool, error) {
	var result struct {
		List []struct {
			OrderID     string `json:"orderId"`
			OrderStatus string `json:"orderStatus"`
			CumExecQty  string `json:"cumExecQty"`
		} `json:"list"`
	}
	query := url.Values{"category": {"spot"}, "symbol": {market}, "orderId": {orderID}}
	if err := b.sendRequest(ctx, http.MethodGet, "/v5/order/realtime", query, nil, &result); err != nil {
		return nil, false, err
	}
	if len(result.List) == 0 {
		return &domain.BuyResult{OrderID: orderID, Status: domain.OrderPending}, false, nil
	}

	o := result.List[0]
	res := &domain.BuyResult{OrderID: o.OrderID, FilledQuantity: parseDecimal(o.CumExecQty)}
	switch o.OrderStatus {
	case "Filled", "PartiallyFilledCanceled":
		res.Status = domain.OrderFilled
		return res, true, nil
	case "Cancelled", "Rejected", "Deactivated":
		res.Status = domain.OrderExpired
		return res, true, nil
	default:
		res.Status = domain.OrderPending
		return res, false, nil
	}
}

// SubmitBracketSell places a limit sell at the take profit with an attached
// stop-limit. Bybit cancels the remaining leg once either one fills.
func (b *BybitAdapter) SubmitBracketSell(ctx context.Context, req domain.BracketRequest) error {
	payload := map[string]interface{}{
		"category":     "spot",
		"symbol":       req.Market,
		"side":         "Sell",
		"orderType":    "Limit",
		"qty":          req.Quantity.String(),
		"price":        req.TakeProfit.String(),
		"timeInForce":  "GTC",
		"stopLoss":     req.StopPrice.String(),
		"slOrderType":  "Limit",
		"slLimitPrice": req.StopLimitPrice.String(),
		"orderLinkId":  req.ClientOrderID,
	}
	if err := b.sendRequest(ctx, http.MethodPost, "/v5/order/create", nil, payload, nil); err != nil {
		return &domain.ExchangeError{Op: "submit bracket sell", Err: err}
	}
	return nil
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
