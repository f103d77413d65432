package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"github.com/KNICEX/market-sentinel/internal/repo"
	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/samber/lo"
)

// Universe 监控交易对集合与两个开关:
// monitoring 控制是否拉取数据 (start/stop), dispatch 控制是否真正发送通知 (enable/disable).
type Universe struct {
	mu         sync.RWMutex
	members    map[string]struct{}
	monitoring bool
	dispatch   bool

	repo repo.SymbolRepo
}

type UniverseOption func(u *Universe)

func WithSymbolRepo(r repo.SymbolRepo) UniverseOption {
	return func(u *Universe) {
		u.repo = r
	}
}

// NewUniverse starts with monitoring and dispatch both enabled.
func NewUniverse(symbols []string, opts ...UniverseOption) *Universe {
	u := &Universe{
		members:    make(map[string]struct{}, len(symbols)),
		monitoring: true,
		dispatch:   true,
	}
	for _, s := range normalizeAll(symbols) {
		u.members[s] = struct{}{}
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func normalizeAll(symbols []string) []string {
	return lo.Uniq(lo.FilterMap(symbols, func(s string, _ int) (string, bool) {
		n, err := exchange.NormalizeSymbol(s, "USDT")
		if err != nil {
			slog.Warn("skip invalid symbol", "symbol", s, "error", err)
			return "", false
		}
		return n, true
	}))
}

// Load merges persisted membership: configured ∪ watched − ignored.
func (u *Universe) Load(ctx context.Context) error {
	if u.repo == nil {
		return nil
	}
	watched, err := u.repo.FindByMark(ctx, entity.MarkWatch)
	if err != nil {
		return fmt.Errorf("load watched symbols: %w", err)
	}
	ignored, err := u.repo.FindByMark(ctx, entity.MarkIgnore)
	if err != nil {
		return fmt.Errorf("load ignored symbols: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, s := range watched {
		u.members[s.Base+s.Quote] = struct{}{}
	}
	for _, s := range ignored {
		delete(u.members, s.Base+s.Quote)
	}
	return nil
}

func (u *Universe) Start() {
	u.mu.Lock()
	u.monitoring = true
	u.mu.Unlock()
}

// Stop takes effect at the next tick boundary; a running tick completes.
func (u *Universe) Stop() {
	u.mu.Lock()
	u.monitoring = false
	u.mu.Unlock()
}

func (u *Universe) IsEnabled() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.monitoring
}

func (u *Universe) EnableDispatch() {
	u.mu.Lock()
	u.dispatch = true
	u.mu.Unlock()
}

func (u *Universe) DisableDispatch() {
	u.mu.Lock()
	u.dispatch = false
	u.mu.Unlock()
}

func (u *Universe) DispatchEnabled() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.dispatch
}

// Members returns a sorted copy.
func (u *Universe) Members() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	res := lo.Keys(u.members)
	sort.Strings(res)
	return res
}

func (u *Universe) Contains(symbol string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.members[symbol]
	return ok
}

// Add returns false if the symbol was already a member.
func (u *Universe) Add(ctx context.Context, symbol string) (bool, error) {
	return u.setMember(ctx, symbol, true)
}

// Remove returns false if the symbol was not a member.
func (u *Universe) Remove(ctx context.Context, symbol string) (bool, error) {
	return u.setMember(ctx, symbol, false)
}

func (u *Universe) setMember(ctx context.Context, symbol string, member bool) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	_, exists := u.members[symbol]
	if exists == member {
		return false, nil
	}
	if u.repo != nil {
		base, quote := exchange.SplitSymbol(symbol)
		mark := entity.MarkIgnore
		if member {
			mark = entity.MarkWatch
		}
		if err := u.repo.Mark(ctx, base, quote, mark); err != nil {
			return false, fmt.Errorf("persist %s: %w", symbol, err)
		}
	}
	if member {
		u.members[symbol] = struct{}{}
	} else {
		delete(u.members, symbol)
	}
	return true, nil
}
