package monitor

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/samber/lo"
)

const (
	DefaultBaselineWindow = 20
	MinBaselineWindow     = 5
)

// window 固定容量环形缓冲, 满了之后覆盖最旧的样本
type window struct {
	buf  []float64
	head int // 下一个写入位置
	n    int
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, size)}
}

func (w *window) push(v float64) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

// values returns the samples oldest first.
func (w *window) values() []float64 {
	res := make([]float64, 0, w.n)
	start := (w.head - w.n + len(w.buf)) % len(w.buf)
	for i := 0; i < w.n; i++ {
		res = append(res, w.buf[(start+i)%len(w.buf)])
	}
	return res
}

func (w *window) mean() float64 {
	if w.n == 0 {
		return 0
	}
	return lo.Sum(w.values()) / float64(w.n)
}

func (w *window) minMax() (float64, float64) {
	vs := w.values()
	if len(vs) == 0 {
		return 0, 0
	}
	return lo.Min(vs), lo.Max(vs)
}

type VolumeBaseline struct {
	Symbol         string
	RollingAverage float64
	SampleCount    int
}

type PriceRangeBaseline struct {
	Symbol     string
	RecentHigh float64
	RecentLow  float64
}

// Baseline 由当前快照之前的样本计算得出
type Baseline struct {
	Volume VolumeBaseline
	Price  PriceRangeBaseline
}

type series struct {
	volumes *window
	prices  *window
}

func (s *series) baseline(symbol string) Baseline {
	low, high := s.prices.minMax()
	return Baseline{
		Volume: VolumeBaseline{Symbol: symbol, RollingAverage: s.volumes.mean(), SampleCount: s.volumes.n},
		Price:  PriceRangeBaseline{Symbol: symbol, RecentHigh: high, RecentLow: low},
	}
}

// BaselineEstimator 每个交易对一组滚动窗口 (成交额, 最新价)
type BaselineEstimator struct {
	mu     sync.Mutex
	size   int
	warmup int
	data   map[string]*series
}

// NewBaselineEstimator clamps size to at least MinBaselineWindow and warmup to [1, size].
func NewBaselineEstimator(size, warmup int) *BaselineEstimator {
	if size < MinBaselineWindow {
		size = MinBaselineWindow
	}
	if warmup < 1 {
		warmup = 1
	}
	if warmup > size {
		warmup = size
	}
	return &BaselineEstimator{
		size:   size,
		warmup: warmup,
		data:   make(map[string]*series),
	}
}

// Observe records snap and returns the baseline computed from the samples before it.
// It returns ErrBaselineNotWarm when fewer than warmup prior samples exist.
func (e *BaselineEstimator) Observe(snap exchange.TickerStats) (Baseline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.data[snap.Symbol]
	if !ok {
		s = &series{volumes: newWindow(e.size), prices: newWindow(e.size)}
		e.data[snap.Symbol] = s
	}
	prior := s.baseline(snap.Symbol)
	s.volumes.push(snap.QuoteVolume)
	s.prices.push(snap.LastPrice)

	if prior.Volume.SampleCount < e.warmup {
		return prior, ErrBaselineNotWarm
	}
	return prior, nil
}

// Get returns the baseline including every sample observed so far.
func (e *BaselineEstimator) Get(symbol string) (Baseline, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.data[symbol]
	if !ok {
		return Baseline{}, false
	}
	return s.baseline(symbol), true
}

// Forget drops the windows of a symbol removed from the universe.
func (e *BaselineEstimator) Forget(symbol string) {
	e.mu.Lock()
	delete(e.data, symbol)
	e.mu.Unlock()
}

func (e *BaselineEstimator) Export() ([]entity.Baseline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := make([]entity.Baseline, 0, len(e.data))
	for symbol, s := range e.data {
		volumes, err := json.Marshal(s.volumes.values())
		if err != nil {
			return nil, err
		}
		prices, err := json.Marshal(s.prices.values())
		if err != nil {
			return nil, err
		}
		res = append(res, entity.Baseline{Symbol: symbol, Volumes: string(volumes), Prices: string(prices)})
	}
	return res, nil
}

// Restore replaces the windows of every checkpointed symbol. Samples beyond the
// window size keep only the newest ones.
func (e *BaselineEstimator) Restore(rows []entity.Baseline) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, row := range rows {
		var volumes, prices []float64
		if err := json.Unmarshal([]byte(row.Volumes), &volumes); err != nil {
			return fmt.Errorf("restore %s volumes: %w", row.Symbol, err)
		}
		if err := json.Unmarshal([]byte(row.Prices), &prices); err != nil {
			return fmt.Errorf("restore %s prices: %w", row.Symbol, err)
		}
		if len(volumes) != len(prices) {
			return fmt.Errorf("restore %s: %d volumes but %d prices", row.Symbol, len(volumes), len(prices))
		}
		s := &series{volumes: newWindow(e.size), prices: newWindow(e.size)}
		for i := range volumes {
			s.volumes.push(volumes[i])
			s.prices.push(prices[i])
		}
		e.data[row.Symbol] = s
	}
	return nil
}
