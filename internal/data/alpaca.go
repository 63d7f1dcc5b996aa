package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"paper-trader/internal/model"
)

const (
	DefaultTradingURL = "https://paper-api.alpaca.markets"
	DefaultDataURL    = "https://data.alpaca.markets"

	// maxBarPages bounds next_page_token following for a single request.
	maxBarPages = 50
	barPageSize = 10000
)

// AlpacaClient talks to the Alpaca trading and market-data REST APIs.
type AlpacaClient struct {
	KeyID      string
	SecretKey  string
	TradingURL string
	DataURL    string
	Feed       string
	Client     *http.Client

	limiter *rate.Limiter
	cache   *BarCache
	logger  *slog.Logger
}

type AlpacaOptions struct {
	KeyID      string
	SecretKey  string
	TradingURL string // defaults to DefaultTradingURL
	DataURL    string // defaults to DefaultDataURL
	Feed       string // "iex" or "sip"; empty lets Alpaca pick

	// RateLimitPerMin caps outbound requests. 0 disables limiting.
	RateLimitPerMin int
	Timeout         time.Duration
	Cache           *BarCache
	Logger          *slog.Logger
	HTTPClient      *http.Client
}

func NewAlpacaClient(opts AlpacaOptions) *AlpacaClient {
	if opts.TradingURL == "" {
		opts.TradingURL = DefaultTradingURL
	}
	if opts.DataURL == "" {
		opts.DataURL = DefaultDataURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &AlpacaClient{
		KeyID:      opts.KeyID,
		SecretKey:  opts.SecretKey,
		TradingURL: strings.TrimRight(opts.TradingURL, "/"),
		DataURL:    strings.TrimRight(opts.DataURL, "/"),
		Feed:       opts.Feed,
		Client:     opts.HTTPClient,
		cache:      opts.Cache,
		logger:     opts.Logger.With("component", "alpaca"),
	}
	if opts.RateLimitPerMin > 0 {
		burst := opts.RateLimitPerMin / 10
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(opts.RateLimitPerMin)/60), burst)
	}
	return c
}

// UpstreamError is any failure obtaining data from Alpaca: missing credentials,
// transport errors, non-2xx responses and undecodable bodies.
type UpstreamError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
	Err        error
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Configured reports whether credentials are present.
func (c *AlpacaClient) Configured() bool {
	return c.KeyID != "" && c.SecretKey != ""
}

func (c *AlpacaClient) validateKeys() error {
	if !c.Configured() {
		return &UpstreamError{
			Code:    "MISSING_API_KEY",
			Message: "Alpaca API keys not configured",
		}
	}
	return nil
}

// BarsParams selects a bar series.
type BarsParams struct {
	Symbol    string
	Timeframe string // e.g. "1Day", "1Min"
	Start     time.Time
	End       time.Time // zero means up to now
	Limit     int       // per page; 0 uses the maximum
	Feed      string    // overrides the client feed
}

// GetBars fetches every page of a bar series and returns the bars in
// ascending time order.
func (c *AlpacaClient) GetBars(ctx context.Context, p BarsParams) (*model.BarsResponse, error) {
	if err := c.validateKeys(); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if p.Timeframe == "" {
		p.Timeframe = "1Day"
	}
	if p.Limit <= 0 || p.Limit > barPageSize {
		p.Limit = barPageSize
	}
	if p.Feed == "" {
		p.Feed = c.Feed
	}
	if !p.End.IsZero() && p.Start.After(p.End) {
		return nil, fmt.Errorf("start must not be after end")
	}

	key := barCacheKey(symbol, p)
	if bars, ok := c.cache.Get(key); ok {
		c.logger.Debug("bar cache hit", "symbol", symbol, "bars", len(bars))
		return &model.BarsResponse{Symbol: symbol, Bars: bars}, nil
	}

	q := url.Values{}
	q.Set("timeframe", p.Timeframe)
	if !p.Start.IsZero() {
		q.Set("start", p.Start.UTC().Format(time.RFC3339))
	}
	if !p.End.IsZero() {
		q.Set("end", p.End.UTC().Format(time.RFC3339))
	}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("adjustment", "raw")
	if p.Feed != "" {
		q.Set("feed", p.Feed)
	}

	path := fmt.Sprintf("/v2/stocks/%s/bars", url.PathEscape(symbol))
	out := &model.BarsResponse{Symbol: symbol, Bars: []model.Bar{}}
	for page := 0; ; page++ {
		if page >= maxBarPages {
			return nil, &UpstreamError{
				Code:    "TOO_MANY_PAGES",
				Message: fmt.Sprintf("bar series for %s exceeds %d pages", symbol, maxBarPages),
			}
		}
		var resp model.BarsResponse
		if err := c.getJSON(ctx, c.DataURL, path, q, &resp); err != nil {
			return nil, err
		}
		out.Bars = append(out.Bars, resp.Bars...)
		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			break
		}
		q.Set("page_token", *resp.NextPageToken)
	}

	sort.SliceStable(out.Bars, func(i, j int) bool { return out.Bars[i].Time.Before(out.Bars[j].Time) })
	c.logger.Info("bars received", "symbol", symbol, "timeframe", p.Timeframe, "bars", len(out.Bars))
	c.cache.Set(key, out.Bars)
	return out, nil
}

// DailyBars returns daily bars for [start, end] inclusive. It satisfies
// backtest.BarSource.
func (c *AlpacaClient) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	resp, err := c.GetBars(ctx, BarsParams{
		Symbol:    symbol,
		Timeframe: "1Day",
		Start:     start,
		End:       end.Add(24*time.Hour - time.Second),
	})
	if err != nil {
		return nil, err
	}
	return resp.Bars, nil
}

// GetLatestQuote returns the latest quote for symbol.
func (c *AlpacaClient) GetLatestQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if err := c.validateKeys(); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	q := url.Values{}
	if c.Feed != "" {
		q.Set("feed", c.Feed)
	}
	var resp struct {
		Quote struct {
			AskPrice  float64   `json:"ap"`
			AskSize   float64   `json:"as"`
			BidPrice  float64   `json:"bp"`
			BidSize   float64   `json:"bs"`
			Timestamp time.Time `json:"t"`
		} `json:"quote"`
	}
	path := fmt.Sprintf("/v2/stocks/%s/quotes/latest", url.PathEscape(symbol))
	if err := c.getJSON(ctx, c.DataURL, path, q, &resp); err != nil {
		return nil, err
	}
	return &model.Quote{
		Symbol:    symbol,
		AskPrice:  resp.Quote.AskPrice,
		BidPrice:  resp.Quote.BidPrice,
		AskSize:   resp.Quote.AskSize,
		BidSize:   resp.Quote.BidSize,
		Timestamp: resp.Quote.Timestamp,
	}, nil
}

// GetClock returns the market clock.
func (c *AlpacaClient) GetClock(ctx context.Context) (*model.Clock, error) {
	if err := c.validateKeys(); err != nil {
		return nil, err
	}
	var clock model.Clock
	if err := c.getJSON(ctx, c.TradingURL, "/v2/clock", nil, &clock); err != nil {
		return nil, err
	}
	return &clock, nil
}

type alpacaAccount struct {
	Cash           decimal.Decimal `json:"cash"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	BuyingPower    decimal.Decimal `json:"buying_power"`
	Equity         decimal.Decimal `json:"equity"`
	LastEquity     decimal.Decimal `json:"last_equity"`
}

// GetAccount returns the account summary.
func (c *AlpacaClient) GetAccount(ctx context.Context) (*model.Account, error) {
	if err := c.validateKeys(); err != nil {
		return nil, err
	}
	var raw alpacaAccount
	if err := c.getJSON(ctx, c.TradingURL, "/v2/account", nil, &raw); err != nil {
		return nil, err
	}
	return &model.Account{
		Cash:           raw.Cash.InexactFloat64(),
		PortfolioValue: raw.PortfolioValue.InexactFloat64(),
		BuyingPower:    raw.BuyingPower.InexactFloat64(),
		Equity:         raw.Equity.InexactFloat64(),
		LastEquity:     raw.LastEquity.InexactFloat64(),
	}, nil
}

type alpacaPosition struct {
	Symbol         string          `json:"symbol"`
	Qty            decimal.Decimal `json:"qty"`
	AvgEntryPrice  decimal.Decimal `json:"avg_entry_price"`
	MarketValue    decimal.Decimal `json:"market_value"`
	UnrealizedPL   decimal.Decimal `json:"unrealized_pl"`
	UnrealizedPLPC decimal.Decimal `json:"unrealized_plpc"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
}

// GetPositions returns all open positions.
func (c *AlpacaClient) GetPositions(ctx context.Context) ([]model.Position, error) {
	if err := c.validateKeys(); err != nil {
		return nil, err
	}
	var raw []alpacaPosition
	if err := c.getJSON(ctx, c.TradingURL, "/v2/positions", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Position, 0, len(raw))
	for _, p := range raw {
		out = append(out, model.Position{
			Symbol:         p.Symbol,
			Qty:            p.Qty.InexactFloat64(),
			AvgEntryPrice:  p.AvgEntryPrice.InexactFloat64(),
			MarketValue:    p.MarketValue.InexactFloat64(),
			UnrealizedPL:   p.UnrealizedPL.InexactFloat64(),
			UnrealizedPLPC: p.UnrealizedPLPC.InexactFloat64(),
			CurrentPrice:   p.CurrentPrice.InexactFloat64(),
		})
	}
	return out, nil
}

func (c *AlpacaClient) getJSON(ctx context.Context, base, path string, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	u := base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.KeyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.SecretKey)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(started)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("request failed", "path", path, "duration", duration, "error", err)
		return &UpstreamError{
			Code:    "UPSTREAM_UNAVAILABLE",
			Message: "Failed to reach Alpaca API",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	c.logger.Debug("response", "method", http.MethodGet, "path", path, "status", resp.StatusCode, "duration", duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("error decoding response", "path", path, "error", err)
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Code:       "INVALID_RESPONSE",
			Message:    "Failed to decode Alpaca response",
			Err:        err,
		}
	}
	return nil
}

func (c *AlpacaClient) statusError(resp *http.Response, path string) error {
	detail := upstreamMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Warn("unauthorized", "path", path, "status", resp.StatusCode)
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: invalid Alpaca API key or secret",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		c.logger.Warn("rate limit exceeded", "path", path, "retry_after", retryAfter)
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		c.logger.Warn("api error", "path", path, "status", resp.StatusCode, "detail", detail)
		msg := fmt.Sprintf("Alpaca API returned status %d", resp.StatusCode)
		if detail != "" {
			msg += ": " + detail
		}
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    msg,
		}
	}
}

// upstreamMessage extracts Alpaca's {"message": "..."} error body, if any.
func upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(string(raw))
}

// IsUpstream reports whether err came from the Alpaca client.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
