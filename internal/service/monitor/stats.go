package monitor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

type StatsSnapshot struct {
	Ticks              int64
	FetchFailures      int64
	Fired              map[AlertKind]int64
	SuppressedCooldown int64
	SuppressedDisabled int64
	DispatchFailures   int64
	LastAlertAt        time.Time
	StartedAt          time.Time
}

func (s StatsSnapshot) TotalFired() int64 {
	return lo.Sum(lo.Values(s.Fired))
}

// String renders the snapshot for the "alert stats" reply.
func (s StatsSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 Alert stats since %s\n", humanize.Time(s.StartedAt))
	fmt.Fprintf(&b, "Ticks: %s, fetch failures: %s\n", humanize.Comma(s.Ticks), humanize.Comma(s.FetchFailures))
	fmt.Fprintf(&b, "Alerts fired: %s\n", humanize.Comma(s.TotalFired()))
	for _, k := range AllKinds {
		fmt.Fprintf(&b, "  %s: %d\n", k, s.Fired[k])
	}
	fmt.Fprintf(&b, "Suppressed by cooldown: %d\n", s.SuppressedCooldown)
	fmt.Fprintf(&b, "Suppressed while disabled: %d\n", s.SuppressedDisabled)
	fmt.Fprintf(&b, "Dispatch failures: %d\n", s.DispatchFailures)
	if s.LastAlertAt.IsZero() {
		b.WriteString("Last alert: never")
	} else {
		fmt.Fprintf(&b, "Last alert: %s", humanize.Time(s.LastAlertAt))
	}
	return b.String()
}

type Stats struct {
	mu sync.Mutex
	s  StatsSnapshot
}

func NewStats(now time.Time) *Stats {
	return &Stats{s: StatsSnapshot{Fired: make(map[AlertKind]int64), StartedAt: now}}
}

type tickCounts struct {
	fetchFailures      int
	fired              []AlertEvent
	suppressedCooldown int
	suppressedDisabled int
	dispatchFailures   int
}

func (st *Stats) record(c tickCounts) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Ticks++
	st.s.FetchFailures += int64(c.fetchFailures)
	st.s.SuppressedCooldown += int64(c.suppressedCooldown)
	st.s.SuppressedDisabled += int64(c.suppressedDisabled)
	st.s.DispatchFailures += int64(c.dispatchFailures)
	for _, e := range c.fired {
		st.s.Fired[e.Kind]++
		if e.FiredAt.After(st.s.LastAlertAt) {
			st.s.LastAlertAt = e.FiredAt
		}
	}
}

func (st *Stats) Snapshot() StatsSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	res := st.s
	res.Fired = lo.Assign(st.s.Fired)
	return res
}
