package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultFetchConcurrency = 8
	DefaultFetchTimeout     = 10 * time.Second
)

type PollResult struct {
	// Snapshots 按 symbol 排序, 每个成功的交易对一条
	Snapshots []exchange.TickerStats
	Failures  []*DataSourceError
}

// Poller 一个 tick 内并发拉取所有交易对, 全部结束后才返回
type Poller struct {
	market      exchange.MarketService
	concurrency int
	timeout     time.Duration
}

type PollerOption func(p *Poller)

func WithFetchConcurrency(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithFetchTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPoller(market exchange.MarketService, opts ...PollerOption) *Poller {
	p := &Poller{
		market:      market,
		concurrency: DefaultFetchConcurrency,
		timeout:     DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll fetches every symbol. A failing symbol never affects the others; the
// returned error is non-nil only when ctx itself is done.
func (p *Poller) Poll(ctx context.Context, symbols []string) (PollResult, error) {
	var (
		mu  sync.Mutex
		res PollResult
	)

	// 不使用 errgroup.WithContext, 单个失败不能取消其他请求
	var eg errgroup.Group
	eg.SetLimit(p.concurrency)
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			snap, err := p.fetch(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("fetch 24h stats failed", "symbol", symbol, "error", err)
				res.Failures = append(res.Failures, &DataSourceError{Symbol: symbol, Err: err})
				return nil
			}
			res.Snapshots = append(res.Snapshots, snap)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(res.Snapshots, func(i, j int) bool {
		return res.Snapshots[i].Symbol < res.Snapshots[j].Symbol
	})
	return res, ctx.Err()
}

func (p *Poller) fetch(ctx context.Context, symbol string) (snap exchange.TickerStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	snap, err = p.market.Stats24h(ctx, symbol)
	if err != nil {
		return exchange.TickerStats{}, err
	}
	if snap.Symbol == "" {
		snap.Symbol = symbol
	}
	if snap.Symbol != symbol {
		return exchange.TickerStats{}, fmt.Errorf("response for %s, want %s", snap.Symbol, symbol)
	}
	return snap, nil
}
