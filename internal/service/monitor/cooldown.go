package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"github.com/KNICEX/market-sentinel/internal/repo"
)

type cooldownKey struct {
	symbol string
	kind   AlertKind
}

// CooldownTracker 按 (symbol, kind) 记录最近一次放行的时间, 记录只会向后移动
type CooldownTracker struct {
	mu      sync.Mutex
	records map[cooldownKey]time.Time
	repo    repo.CooldownRepo
}

type CooldownOption func(t *CooldownTracker)

func WithCooldownRepo(r repo.CooldownRepo) CooldownOption {
	return func(t *CooldownTracker) {
		t.repo = r
	}
}

func NewCooldownTracker(opts ...CooldownOption) *CooldownTracker {
	t := &CooldownTracker{records: make(map[cooldownKey]time.Time)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load restores persisted records.
func (t *CooldownTracker) Load(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}
	rows, err := t.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load cooldowns: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range rows {
		k := cooldownKey{symbol: row.Symbol, kind: AlertKind(row.Kind)}
		if row.LastFiredAt.After(t.records[k]) {
			t.records[k] = row.LastFiredAt
		}
	}
	return nil
}

// ShouldFire is the read-only check: no record, or now - lastFiredAt >= window.
func (t *CooldownTracker) ShouldFire(symbol string, kind AlertKind, now time.Time, window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shouldFire(cooldownKey{symbol: symbol, kind: kind}, now, window)
}

func (t *CooldownTracker) shouldFire(k cooldownKey, now time.Time, window time.Duration) bool {
	last, ok := t.records[k]
	if !ok {
		return true
	}
	return now.Sub(last) >= window
}

// TryAcquire atomically checks the window and, on success, records now as the
// last fire time. Callers must dispatch only when it returns true.
func (t *CooldownTracker) TryAcquire(ctx context.Context, symbol string, kind AlertKind, now time.Time, window time.Duration) bool {
	k := cooldownKey{symbol: symbol, kind: kind}

	t.mu.Lock()
	if !t.shouldFire(k, now, window) {
		t.mu.Unlock()
		return false
	}
	// window >= 0, 放行时 now 不早于已有记录
	t.records[k] = now
	t.mu.Unlock()

	if t.repo != nil {
		// sqlite 按字符串比较时间, 统一存 UTC
		err := t.repo.Save(ctx, entity.Cooldown{Symbol: symbol, Kind: string(kind), LastFiredAt: now.UTC()})
		if err != nil {
			slog.Warn("persist cooldown failed", "symbol", symbol, "kind", kind, "error", err)
		}
	}
	return true
}

func (t *CooldownTracker) LastFired(symbol string, kind AlertKind) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.records[cooldownKey{symbol: symbol, kind: kind}]
	return last, ok
}
