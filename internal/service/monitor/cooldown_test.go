package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCooldownRepo struct {
	mu   sync.Mutex
	rows []entity.Cooldown
}

func (r *memCooldownRepo) Save(ctx context.Context, c entity.Cooldown) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, c)
	return nil
}

func (r *memCooldownRepo) FindAll(ctx context.Context) ([]entity.Cooldown, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Cooldown(nil), r.rows...), nil
}

func TestCooldownTracker_Window(t *testing.T) {
	ctx := context.Background()
	tr := NewCooldownTracker()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	assert.True(t, tr.ShouldFire("DOGEUSDT", KindPump, t0, window))
	require.True(t, tr.TryAcquire(ctx, "DOGEUSDT", KindPump, t0, window))

	assert.False(t, tr.TryAcquire(ctx, "DOGEUSDT", KindPump, t0.Add(5*time.Minute), window))
	assert.False(t, tr.TryAcquire(ctx, "DOGEUSDT", KindPump, t0.Add(window-time.Nanosecond), window))
	// 不同 kind 互不影响
	assert.True(t, tr.TryAcquire(ctx, "DOGEUSDT", KindVolumeSpike, t0.Add(time.Minute), window))
	// 边界包含
	assert.True(t, tr.TryAcquire(ctx, "DOGEUSDT", KindPump, t0.Add(window), window))

	last, ok := tr.LastFired("DOGEUSDT", KindPump)
	require.True(t, ok)
	assert.Equal(t, t0.Add(window), last)
}

func TestCooldownTracker_NeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	r := &memCooldownRepo{}
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tr := NewCooldownTracker(WithCooldownRepo(r))
	require.True(t, tr.TryAcquire(ctx, "BTCUSDT", KindDump, t0, 0))
	// 早于记录的时间点不放行, 即使窗口为 0
	assert.False(t, tr.TryAcquire(ctx, "BTCUSDT", KindDump, t0.Add(-time.Hour), 0))

	// 持久化里较旧的记录不会覆盖内存里较新的记录
	r.rows = append(r.rows, entity.Cooldown{Symbol: "BTCUSDT", Kind: string(KindDump), LastFiredAt: t0.Add(-2 * time.Hour)})
	require.NoError(t, tr.Load(ctx))

	last, ok := tr.LastFired("BTCUSDT", KindDump)
	require.True(t, ok)
	assert.True(t, t0.Equal(last))
}

func TestCooldownTracker_ConcurrentAcquireFiresOnce(t *testing.T) {
	ctx := context.Background()
	tr := NewCooldownTracker()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var fired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.TryAcquire(ctx, "DOGEUSDT", KindPump, now, time.Minute) {
				fired.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fired.Load())
}

func TestCooldownTracker_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	r := &memCooldownRepo{}
	local := time.FixedZone("UTC+8", 8*3600)
	t0 := time.Date(2024, 5, 1, 20, 0, 0, 0, local)

	tr := NewCooldownTracker(WithCooldownRepo(r))
	require.True(t, tr.TryAcquire(ctx, "DOGEUSDT", KindPump, t0, time.Minute))
	require.Len(t, r.rows, 1)
	assert.Equal(t, time.UTC, r.rows[0].LastFiredAt.Location())

	restored := NewCooldownTracker(WithCooldownRepo(r))
	require.NoError(t, restored.Load(ctx))
	assert.False(t, restored.ShouldFire("DOGEUSDT", KindPump, t0.Add(30*time.Second), time.Minute))
	assert.True(t, restored.ShouldFire("DOGEUSDT", KindPump, t0.Add(time.Minute), time.Minute))
}
