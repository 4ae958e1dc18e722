package bitget

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"bitget-trading-bot/internal/logging"
)

// BaseURL is the production Bitget REST endpoint.
const BaseURL = "https://api.bitget.com"

// Credentials hold the Bitget API secrets. Supplied from the environment
// or Vault; never logged.
type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

// Client is the Bitget mix (USDT futures) REST client. Requests are
// signed with HMAC-SHA256 over timestamp+method+path+body and rate
// limited client-side to stay under the exchange's request caps.
type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	dryRun     bool
	simBalance float64
	log        zerolog.Logger
}

// NewClient creates a Bitget client. When dryRun is true order placement
// is simulated locally and nothing is sent to the trading endpoints.
func NewClient(creds Credentials, dryRun bool) *Client {
	return &Client{
		creds: Credentials{
			APIKey:     strings.TrimSpace(creds.APIKey),
			SecretKey:  strings.TrimSpace(creds.SecretKey),
			Passphrase: strings.TrimSpace(creds.Passphrase),
		},
		baseURL:    BaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 20), // 10 req/s, burst 20
		dryRun:     dryRun,
		log:        logging.Component("bitget"),
	}
}

// SetBaseURL overrides the REST endpoint (tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// DryRun reports whether order placement is simulated.
func (c *Client) DryRun() bool { return c.dryRun }

// SetSimBalance sets the equity reported in dry-run mode, for running
// without credentials.
func (c *Client) SetSimBalance(balance float64) { c.simBalance = balance }

// ==================== MARKET DATA ====================

// GetTicker returns the last traded price for a symbol.
func (c *Client) GetTicker(symbol string) (*Ticker, error) {
	body, err := c.get("/api/mix/v1/market/ticker", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var resp struct {
		apiResponse
		Data struct {
			Symbol string `json:"symbol"`
			Last   string `json:"last"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse ticker: %v", ErrUnavailable, err)
	}

	last, err := strconv.ParseFloat(resp.Data.Last, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: ticker price %q", ErrUnavailable, resp.Data.Last)
	}
	return &Ticker{Symbol: symbol, Last: last}, nil
}

// GetOrderBook returns a depth snapshot with up to depth levels per side.
func (c *Client) GetOrderBook(symbol string, depth int) (*OrderBook, error) {
	if depth <= 0 {
		depth = 50
	}
	body, err := c.get("/api/mix/v1/market/depth", url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(depth)},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		apiResponse
		Data struct {
			Bids [][]string `json:"bids"`
			Asks [][]string `json:"asks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse depth: %v", ErrUnavailable, err)
	}

	return &OrderBook{
		Symbol: symbol,
		Bids:   parseLevels(resp.Data.Bids),
		Asks:   parseLevels(resp.Data.Asks),
	}, nil
}

// ==================== ACCOUNT ====================

// GetAccountBalance returns the USDT futures account equity. In
// dry-run mode without credentials the configured simulated balance is
// reported instead.
func (c *Client) GetAccountBalance() (float64, error) {
	if c.dryRun && c.creds.APIKey == "" {
		return c.simBalance, nil
	}
	body, err := c.signedGet("/api/mix/v1/account/account", url.Values{"marginCoin": {"USDT"}})
	if err != nil {
		return 0, err
	}

	var resp struct {
		apiResponse
		Data struct {
			Equity string `json:"equity"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: parse account: %v", ErrUnavailable, err)
	}

	equity, err := strconv.ParseFloat(resp.Data.Equity, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: equity %q", ErrUnavailable, resp.Data.Equity)
	}
	return equity, nil
}

// ==================== TRADING ====================

// PlaceMarketOrder opens a position with the given notional size.
func (c *Client) PlaceMarketOrder(symbol string, side Side, notionalUSDT float64, leverage int) (*OrderResult, error) {
	clientOID := uuid.NewString()

	if c.dryRun {
		c.log.Info().
			Str("symbol", symbol).
			Str("side", string(side)).
			Float64("notional", notionalUSDT).
			Int("leverage", leverage).
			Msg("dry-run: simulated market order")
		return &OrderResult{OrderID: "sim-" + clientOID, ClientOID: clientOID, Simulated: true}, nil
	}

	req := map[string]string{
		"symbol":     symbol,
		"marginCoin": "USDT",
		"size":       strconv.FormatFloat(notionalUSDT, 'f', -1, 64),
		"side":       string(side),
		"orderType":  "market",
		"leverage":   strconv.Itoa(leverage),
		"clientOid":  clientOID,
	}

	body, err := c.signedPost("/api/mix/v1/order/placeOrder", req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		apiResponse
		Data struct {
			OrderID string `json:"orderId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse order response: %v", ErrUnavailable, err)
	}
	if resp.Code != "00000" {
		return nil, fmt.Errorf("%w: code=%s msg=%s", ErrRejected, resp.Code, resp.Msg)
	}

	return &OrderResult{OrderID: resp.Data.OrderID, ClientOID: clientOID}, nil
}

// PlaceTriggerOrder attaches a TP or SL trigger to an open position.
func (c *Client) PlaceTriggerOrder(symbol string, holdSide HoldSide, planType PlanType, triggerPrice, size float64) error {
	if c.dryRun {
		c.log.Info().
			Str("symbol", symbol).
			Str("plan", string(planType)).
			Float64("trigger", triggerPrice).
			Msg("dry-run: simulated trigger order")
		return nil
	}

	req := map[string]string{
		"symbol":       symbol,
		"marginCoin":   "USDT",
		"planType":     string(planType),
		"triggerPrice": strconv.FormatFloat(triggerPrice, 'f', -1, 64),
		"holdSide":     string(holdSide),
		"size":         strconv.FormatFloat(size, 'f', -1, 64),
	}

	body, err := c.signedPost("/api/mix/v1/plan/placeTPSL", req)
	if err != nil {
		return err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: parse trigger response: %v", ErrUnavailable, err)
	}
	if resp.Code != "00000" {
		return fmt.Errorf("%w: code=%s msg=%s", ErrRejected, resp.Code, resp.Msg)
	}
	return nil
}

// GetOrderStatus polls the fill state of an order. Simulated orders
// report as immediately filled.
func (c *Client) GetOrderStatus(symbol, orderID string) (*OrderStatus, error) {
	if strings.HasPrefix(orderID, "sim-") {
		return &OrderStatus{OrderID: orderID, State: OrderStateFilled}, nil
	}
	body, err := c.signedGet("/api/mix/v1/order/detail", url.Values{
		"symbol":  {symbol},
		"orderId": {orderID},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		apiResponse
		Data struct {
			OrderID   string `json:"orderId"`
			State     string `json:"state"`
			PriceAvg  string `json:"priceAvg"`
			FilledQty string `json:"filledQty"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse order detail: %v", ErrUnavailable, err)
	}

	avg, _ := strconv.ParseFloat(resp.Data.PriceAvg, 64)
	filled, _ := strconv.ParseFloat(resp.Data.FilledQty, 64)
	return &OrderStatus{
		OrderID:      resp.Data.OrderID,
		State:        OrderState(resp.Data.State),
		AvgFillPrice: avg,
		FilledSize:   filled,
	}, nil
}

// ==================== SIGNING & TRANSPORT ====================

// sign builds the Bitget request signature: base64 of HMAC-SHA256 over
// timestamp+method+requestPath+body.
func (c *Client) sign(timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(c.creds.SecretKey))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) authHeaders(req *http.Request, method, requestPath, body string) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("ACCESS-KEY", c.creds.APIKey)
	req.Header.Set("ACCESS-SIGN", c.sign(ts, method, requestPath, body))
	req.Header.Set("ACCESS-TIMESTAMP", ts)
	req.Header.Set("ACCESS-PASSPHRASE", c.creds.Passphrase)
	req.Header.Set("Content-Type", "application/json")
}

// get performs an unauthenticated GET.
func (c *Client) get(path string, params url.Values) ([]byte, error) {
	return c.do("GET", path, params, nil, false)
}

// signedGet performs an authenticated GET.
func (c *Client) signedGet(path string, params url.Values) ([]byte, error) {
	return c.do("GET", path, params, nil, true)
}

// signedPost performs an authenticated POST with a JSON body.
func (c *Client) signedPost(path string, payload map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal body: %v", ErrUnavailable, err)
	}
	return c.do("POST", path, nil, body, true)
}

func (c *Client) do(method, path string, params url.Values, body []byte, signed bool) ([]byte, error) {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}

	requestPath := path
	if len(params) > 0 {
		requestPath = path + "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, c.baseURL+requestPath, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	if signed {
		c.authHeaders(req, method, requestPath, string(body))
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s returned %d: %s",
			ErrUnavailable, method, path, resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

func parseLevels(raw [][]string) []BookLevel {
	levels := make([]BookLevel, 0, len(raw))
	for _, l := range raw {
		if len(l) < 2 {
			continue
		}
		price, err1 := strconv.ParseFloat(l[0], 64)
		size, err2 := strconv.ParseFloat(l[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		levels = append(levels, BookLevel{Price: price, Size: size})
	}
	return levels
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
