package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/notification"
	"github.com/dustin/go-humanize"
	"github.com/jpillora/backoff"
)

const (
	DefaultDispatchAttempts = 3
	DefaultRetryMin         = 500 * time.Millisecond
	DefaultRetryMax         = 5 * time.Second
	defaultAnnotateTimeout  = 8 * time.Second
)

// Dispatcher 渲染告警并发送到 Sink, 失败有限次重试后丢弃
type Dispatcher struct {
	sink     notification.Sink
	attempts int
	retryMin time.Duration
	retryMax time.Duration

	annotator       Annotator
	annotateTimeout time.Duration
}

type DispatcherOption func(d *Dispatcher)

func WithDispatchAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.attempts = n
		}
	}
}

func WithRetryBackoff(minDelay, maxDelay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if minDelay > 0 {
			d.retryMin = minDelay
		}
		if maxDelay >= d.retryMin {
			d.retryMax = maxDelay
		}
	}
}

// WithAnnotator appends a note from a to every alert. Failures omit the note.
func WithAnnotator(a Annotator, timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.annotator = a
		if timeout > 0 {
			d.annotateTimeout = timeout
		}
	}
}

func NewDispatcher(sink notification.Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:            sink,
		attempts:        DefaultDispatchAttempts,
		retryMin:        DefaultRetryMin,
		retryMax:        DefaultRetryMax,
		annotateTimeout: defaultAnnotateTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var kindTitle = map[AlertKind]string{
	KindPump:        "🚀 PUMP",
	KindDump:        "🔻 DUMP",
	KindVolumeSpike: "📊 VOLUME SPIKE",
	KindBreakout:    "⚡ BREAKOUT",
}

// Render formats an alert as plain text.
func Render(e AlertEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", kindTitle[e.Kind], e.Symbol)
	fmt.Fprintf(&b, "24h change: %+.2f%%\n", e.Snapshot.PriceChangePercent)
	fmt.Fprintf(&b, "Price: %s\n", humanize.FtoaWithDigits(e.Snapshot.LastPrice, 8))
	fmt.Fprintf(&b, "24h volume: %s USDT\n", humanize.CommafWithDigits(e.Snapshot.QuoteVolume, 0))

	switch e.Kind {
	case KindVolumeSpike:
		fmt.Fprintf(&b, "Volume %.2fx rolling average (%s USDT over %d samples)\n",
			e.Magnitude, humanize.CommafWithDigits(e.Baseline.Volume.RollingAverage, 0), e.Baseline.Volume.SampleCount)
	case KindBreakout:
		level, word := e.Baseline.Price.RecentHigh, "above recent high"
		if e.Direction == DirectionDown {
			level, word = e.Baseline.Price.RecentLow, "below recent low"
		}
		fmt.Fprintf(&b, "Broke %s %s (%+g)\n", word, humanize.FtoaWithDigits(level, 8), e.Magnitude)
	}
	fmt.Fprintf(&b, "Time: %s UTC", e.FiredAt.UTC().Format(time.DateTime))
	return b.String()
}

// Dispatch sends one alert. It never blocks longer than the retry budget and
// stops early when ctx is done.
func (d *Dispatcher) Dispatch(ctx context.Context, e AlertEvent) error {
	msg := Render(e)
	if note := d.annotate(ctx, e); note != "" {
		msg += "\n\n💬 " + note
	}

	b := &backoff.Backoff{Min: d.retryMin, Max: d.retryMax, Factor: 2, Jitter: true}
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if lastErr = d.sink.Send(ctx, msg); lastErr == nil {
			return nil
		}
		slog.Warn("send alert failed", "id", e.ID, "symbol", e.Symbol, "kind", e.Kind,
			"attempt", attempt, "error", lastErr)
		if attempt == d.attempts {
			break
		}
		timer := time.NewTimer(b.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return &DispatchError{EventID: e.ID, Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}
	}
	return &DispatchError{EventID: e.ID, Attempts: d.attempts, Err: lastErr}
}

// DispatchAll sends events concurrently and waits for all of them. Failed
// deliveries are logged and dropped; the number delivered is returned.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []AlertEvent) int {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, e := range events {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Dispatch(ctx, e); err != nil {
				slog.Error("alert dropped", "id", e.ID, "symbol", e.Symbol, "kind", e.Kind, "error", err)
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return delivered
}

// Notify sends a plain text message once, used for health and command replies.
func (d *Dispatcher) Notify(ctx context.Context, message string) error {
	return d.sink.Send(ctx, message)
}

func (d *Dispatcher) annotate(ctx context.Context, e AlertEvent) string {
	if d.annotator == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, d.annotateTimeout)
	defer cancel()
	note, err := d.annotator.Annotate(ctx, e)
	if err != nil {
		slog.Debug("annotate alert failed", "id", e.ID, "error", err)
		return ""
	}
	return strings.TrimSpace(note)
}
