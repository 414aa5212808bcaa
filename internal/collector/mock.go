package collector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"CryptoRadar/internal/model"
)

// MockFetcher returns controllable in-memory data for development and testing.
type MockFetcher struct {
	mu      sync.RWMutex
	tickers map[string]model.TickerSnapshot
	closes  map[string][]float64

	// Per-method and per-symbol injected failures.
	TickersErr   error
	TickerErrs   map[string]error
	ClosesErrs   map[string]error
	DefaultClose float64 // when > 0, symbols without closes get a flat series at this price

	TickerCalls  atomic.Int32
	TickersCalls atomic.Int32
	ClosesCalls  atomic.Int32
}

// NewMockFetcher creates a mock serving the given tickers.
func NewMockFetcher(tickers ...model.TickerSnapshot) *MockFetcher {
	m := &MockFetcher{
		tickers:    make(map[string]model.TickerSnapshot),
		closes:     make(map[string][]float64),
		TickerErrs: make(map[string]error),
		ClosesErrs: make(map[string]error),
	}
	for _, t := range tickers {
		m.tickers[t.Symbol] = t
	}
	return m
}

func (m *MockFetcher) Name() string { return "mock" }

// SetTicker adds or replaces a ticker.
func (m *MockFetcher) SetTicker(t model.TickerSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[t.Symbol] = t
}

// SetCloses sets the close series served for symbol regardless of interval.
func (m *MockFetcher) SetCloses(symbol string, closes []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes[symbol] = append([]float64(nil), closes...)
}

func (m *MockFetcher) FetchTicker(_ context.Context, symbol string) (model.TickerSnapshot, error) {
	m.TickerCalls.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.TickerErrs[symbol]; err != nil {
		return model.TickerSnapshot{}, err
	}
	t, ok := m.tickers[symbol]
	if !ok {
		return model.TickerSnapshot{}, &UpstreamError{
			Kind:     ErrUpstreamHTTP,
			Endpoint: endpointTicker,
			Symbol:   symbol,
			Status:   400,
			Err:      errors.New(`{"code":-1121,"msg":"Invalid symbol."}`),
		}
	}
	return t, nil
}

// FetchTickers returns all tickers sorted by symbol.
func (m *MockFetcher) FetchTickers(context.Context) ([]model.TickerSnapshot, error) {
	m.TickersCalls.Add(1)
	if m.TickersErr != nil {
		return nil, m.TickersErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.TickerSnapshot, 0, len(m.tickers))
	for _, t := range m.tickers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *MockFetcher) FetchCloses(_ context.Context, symbol, _ string, limit int) ([]float64, error) {
	m.ClosesCalls.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ClosesErrs[symbol]; err != nil {
		return nil, err
	}
	closes, ok := m.closes[symbol]
	if !ok {
		if m.DefaultClose <= 0 {
			return []float64{}, nil
		}
		closes = make([]float64, limit)
		for i := range closes {
			closes[i] = m.DefaultClose
		}
	}
	if limit > 0 && len(closes) > limit {
		closes = closes[len(closes)-limit:]
	}
	return append([]float64(nil), closes...), nil
}
