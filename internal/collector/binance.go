package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"CryptoRadar/internal/metrics"
	"CryptoRadar/internal/model"
)

const (
	// DefaultBaseURL is the Binance spot REST root.
	DefaultBaseURL = "https://api.binance.com/api/v3"
	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 10 * time.Second

	endpointTicker = "ticker/24hr"
	endpointKlines = "klines"
)

// BinanceConfig configures a BinanceFetcher.
type BinanceConfig struct {
	BaseURL           string
	APIKey            string
	Proxy             string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables pacing
	Burst             int
}

// BinanceFetcher implements Fetcher using the Binance spot REST API.
type BinanceFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewBinanceFetcher creates a fetcher with optional proxy support and request pacing.
func NewBinanceFetcher(cfg BinanceConfig, logger *zap.Logger, m *metrics.Metrics) *BinanceFetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BinanceFetcher{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		Limiter: limiter,
		logger:  logger,
		metrics: m,
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// binanceTicker is the JSON shape of one /ticker/24hr entry. Binance sends decimals as strings.
type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	Count              int64  `json:"count"`
}

func (f *BinanceFetcher) FetchTicker(ctx context.Context, symbol string) (model.TickerSnapshot, error) {
	var raw binanceTicker
	q := url.Values{"symbol": {symbol}}
	if err := f.getJSON(ctx, endpointTicker, symbol, q, &raw); err != nil {
		return model.TickerSnapshot{}, err
	}
	t, err := raw.snapshot()
	if err != nil {
		return model.TickerSnapshot{}, newMalformed(endpointTicker, symbol, err)
	}
	return t, nil
}

// FetchTickers returns every parsable ticker. Entries with malformed numeric fields are
// skipped so that one bad symbol does not blank the whole universe.
func (f *BinanceFetcher) FetchTickers(ctx context.Context) ([]model.TickerSnapshot, error) {
	var raw []binanceTicker
	if err := f.getJSON(ctx, endpointTicker, "", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]model.TickerSnapshot, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		t, err := r.snapshot()
		if err != nil {
			skipped++
			f.logger.Debug("skip malformed ticker", zap.String("symbol", r.Symbol), zap.Error(err))
			continue
		}
		out = append(out, t)
	}
	if skipped > 0 {
		f.logger.Warn("skipped malformed tickers", zap.Int("skipped", skipped), zap.Int("kept", len(out)))
		f.metrics.AddMalformed(endpointTicker, skipped)
	}
	return out, nil
}

func (f *BinanceFetcher) FetchCloses(ctx context.Context, symbol, interval string, limit int) ([]float64, error) {
	q := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	var candles [][]json.RawMessage
	if err := f.getJSON(ctx, endpointKlines, symbol, q, &candles); err != nil {
		return nil, err
	}
	closes, err := parseCloses(candles)
	if err != nil {
		f.metrics.AddMalformed(endpointKlines, 1)
		return nil, newMalformed(endpointKlines, symbol, err)
	}
	if limit > 0 && len(closes) > limit {
		closes = closes[len(closes)-limit:]
	}
	return closes, nil
}

func (f *BinanceFetcher) getJSON(ctx context.Context, endpoint, symbol string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() { f.metrics.ObserveUpstream(endpoint, Outcome(err), time.Since(start)) }()

	// Wait fails when ctx is cancelled, expired, or its deadline is too close to get a slot.
	if err := f.Limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return classifyTransport(endpoint, symbol, err)
		}
		return &UpstreamError{Kind: ErrUpstreamTimeout, Endpoint: endpoint, Symbol: symbol, Err: err}
	}

	u := fmt.Sprintf("%s/%s", f.BaseURL, endpoint)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if f.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", f.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return classifyTransport(endpoint, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &UpstreamError{
			Kind:     ErrUpstreamHTTP,
			Endpoint: endpoint,
			Symbol:   symbol,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("body: %s", string(body)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return classifyTransport(endpoint, symbol, ctx.Err())
		}
		return newMalformed(endpoint, symbol, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func (r binanceTicker) snapshot() (model.TickerSnapshot, error) {
	last, err := parseDecimal("lastPrice", r.LastPrice, false)
	if err != nil {
		return model.TickerSnapshot{}, err
	}
	change, err := parseDecimal("priceChangePercent", r.PriceChangePercent, true)
	if err != nil {
		return model.TickerSnapshot{}, err
	}
	vol, err := parseDecimal("volume", r.Volume, false)
	if err != nil {
		return model.TickerSnapshot{}, err
	}
	quoteVol, err := parseDecimal("quoteVolume", r.QuoteVolume, false)
	if err != nil {
		return model.TickerSnapshot{}, err
	}
	if r.Count < 0 {
		return model.TickerSnapshot{}, fmt.Errorf("count: negative value %d", r.Count)
	}
	return model.TickerSnapshot{
		Symbol:             r.Symbol,
		LastPrice:          last,
		PriceChangePercent: change,
		Volume:             vol,
		QuoteVolume:        quoteVol,
		Count:              r.Count,
	}, nil
}

// parseDecimal parses a Binance decimal string, rejecting NaN and Inf.
func parseDecimal(field, s string, allowNegative bool) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: non-finite value %q", field, s)
	}
	if !allowNegative && v < 0 {
		return 0, fmt.Errorf("%s: negative value %q", field, s)
	}
	return v, nil
}

// parseCloses extracts the close (index 4) of every candle.
func parseCloses(candles [][]json.RawMessage) ([]float64, error) {
	closes := make([]float64, 0, len(candles))
	for i, c := range candles {
		if len(c) < 5 {
			return nil, fmt.Errorf("candle %d: expected at least 5 fields, got %d", i, len(c))
		}
		var s string
		if err := json.Unmarshal(c[4], &s); err != nil {
			return nil, fmt.Errorf("candle %d close: %w", i, err)
		}
		v, err := parseDecimal("close", s, false)
		if err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
		if v == 0 {
			return nil, fmt.Errorf("candle %d: zero close", i)
		}
		closes = append(closes, v)
	}
	return closes, nil
}
