package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/stretchr/testify/mock"
)

// fakeMarket 返回预置的快照, 未预置的交易对报错
type fakeMarket struct {
	mu    sync.Mutex
	stats map[string]exchange.TickerStats
	errs  map[string]error
	calls int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{stats: map[string]exchange.TickerStats{}, errs: map[string]error{}}
}

func (m *fakeMarket) set(s exchange.TickerStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[s.Symbol] = s
	delete(m.errs, s.Symbol)
}

func (m *fakeMarket) fail(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
}

func (m *fakeMarket) Stats24h(ctx context.Context, symbol string) (exchange.TickerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.errs[symbol]; ok {
		return exchange.TickerStats{}, err
	}
	s, ok := m.stats[symbol]
	if !ok {
		return exchange.TickerStats{}, errors.New("unknown symbol")
	}
	return s, nil
}

func (m *fakeMarket) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingSink 记录收到的消息, failN 次之前一直失败
type recordingSink struct {
	mu    sync.Mutex
	msgs  []string
	failN int
	tries int
}

func (s *recordingSink) Send(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tries++
	if s.tries <= s.failN {
		return errors.New("telegram: 502 bad gateway")
	}
	s.msgs = append(s.msgs, message)
	return nil
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

type mockSymbolService struct {
	mock.Mock
}

func (m *mockSymbolService) GetAllSymbols(ctx context.Context) ([]exchange.TradingPair, error) {
	args := m.Called(ctx)
	return args.Get(0).([]exchange.TradingPair), args.Error(1)
}

func (m *mockSymbolService) Exists(ctx context.Context, symbol string) (bool, error) {
	args := m.Called(ctx, symbol)
	return args.Bool(0), args.Error(1)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func snapshot(symbol string, change, price, volume float64) exchange.TickerStats {
	return exchange.TickerStats{
		Symbol:             symbol,
		PriceChangePercent: change,
		LastPrice:          price,
		QuoteVolume:        volume,
		ObservedAt:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}
