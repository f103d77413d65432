package monitor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"github.com/KNICEX/market-sentinel/internal/repo"
)

// ThresholdConfig 告警灵敏度参数. 值类型, Snapshot 返回的副本在一个 tick 内不变.
type ThresholdConfig struct {
	PumpPercent           float64       `mapstructure:"pump_percent"`
	DumpPercent           float64       `mapstructure:"dump_percent"`
	VolumeSpikeMultiplier float64       `mapstructure:"volume_multiplier"`
	MinVolumeUSDT         float64       `mapstructure:"min_volume_usdt"`
	BreakoutMarginPercent float64       `mapstructure:"breakout_margin_percent"`
	Cooldown              time.Duration `mapstructure:"cooldown"`
	Interval              time.Duration `mapstructure:"interval"`
}

func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		PumpPercent:           15,
		DumpPercent:           -15,
		VolumeSpikeMultiplier: 5,
		MinVolumeUSDT:         100_000,
		BreakoutMarginPercent: 0,
		Cooldown:              30 * time.Minute,
		Interval:              time.Minute,
	}
}

// Validate checks dump < 0 < pump, multiplier >= 1, minvol >= 0, cooldown >= 0, interval >= 1s.
func (c ThresholdConfig) Validate() error {
	if err := finite("pump", c.PumpPercent); err != nil {
		return err
	}
	if c.PumpPercent <= 0 {
		return &ValidationError{Field: "pump", Value: c.PumpPercent, Reason: "must be positive"}
	}
	if err := finite("dump", c.DumpPercent); err != nil {
		return err
	}
	if c.DumpPercent >= 0 {
		return &ValidationError{Field: "dump", Value: c.DumpPercent, Reason: "must be negative"}
	}
	if err := finite("volume", c.VolumeSpikeMultiplier); err != nil {
		return err
	}
	if c.VolumeSpikeMultiplier < 1 {
		return &ValidationError{Field: "volume", Value: c.VolumeSpikeMultiplier, Reason: "must be at least 1"}
	}
	if err := finite("minvol", c.MinVolumeUSDT); err != nil {
		return err
	}
	if c.MinVolumeUSDT < 0 {
		return &ValidationError{Field: "minvol", Value: c.MinVolumeUSDT, Reason: "must not be negative"}
	}
	if err := finite("breakout margin", c.BreakoutMarginPercent); err != nil {
		return err
	}
	if c.BreakoutMarginPercent < 0 {
		return &ValidationError{Field: "breakout margin", Value: c.BreakoutMarginPercent, Reason: "must not be negative"}
	}
	if c.Cooldown < 0 {
		return &ValidationError{Field: "cooldown", Value: c.Cooldown, Reason: "must not be negative"}
	}
	if c.Interval < time.Second {
		return &ValidationError{Field: "interval", Value: c.Interval, Reason: "must be at least 1s"}
	}
	return nil
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Value: v, Reason: "must be a finite number"}
	}
	return nil
}

// ThresholdStore 进程内唯一的阈值配置. 写操作先校验, 通过后整体替换.
type ThresholdStore struct {
	mu   sync.RWMutex
	cfg  ThresholdConfig
	repo repo.ThresholdRepo
}

type ThresholdOption func(s *ThresholdStore)

// WithThresholdRepo persists every accepted change.
func WithThresholdRepo(r repo.ThresholdRepo) ThresholdOption {
	return func(s *ThresholdStore) {
		s.repo = r
	}
}

func NewThresholdStore(initial ThresholdConfig, opts ...ThresholdOption) (*ThresholdStore, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	s := &ThresholdStore{cfg: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load replaces the current config with the persisted one, if any.
// An invalid persisted row is ignored.
func (s *ThresholdStore) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	row, found, err := s.repo.Find(ctx)
	if err != nil {
		return fmt.Errorf("load thresholds: %w", err)
	}
	if !found {
		return nil
	}
	cfg := fromThresholdEntity(row)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("persisted thresholds rejected: %w", err)
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *ThresholdStore) Snapshot() ThresholdConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ThresholdStore) SetPumpPercent(ctx context.Context, v float64) (ThresholdConfig, error) {
	return s.update(ctx, func(c *ThresholdConfig) { c.PumpPercent = v })
}

func (s *ThresholdStore) SetDumpPercent(ctx context.Context, v float64) (ThresholdConfig, error) {
	return s.update(ctx, func(c *ThresholdConfig) { c.DumpPercent = v })
}

func (s *ThresholdStore) SetVolumeSpikeMultiplier(ctx context.Context, v float64) (ThresholdConfig, error) {
	return s.update(ctx, func(c *ThresholdConfig) { c.VolumeSpikeMultiplier = v })
}

func (s *ThresholdStore) SetMinVolumeUSDT(ctx context.Context, v float64) (ThresholdConfig, error) {
	return s.update(ctx, func(c *ThresholdConfig) { c.MinVolumeUSDT = v })
}

func (s *ThresholdStore) SetBreakoutMarginPercent(ctx context.Context, v float64) (ThresholdConfig, error) {
	return s.update(ctx, func(c *ThresholdConfig) { c.BreakoutMarginPercent = v })
}

func (s *ThresholdStore) SetCooldown(ctx context.Context, d time.Duration) (ThresholdConfig, error) {
	return s.update(ctx, func(c *ThresholdConfig) { c.Cooldown = d })
}

func (s *ThresholdStore) SetInterval(ctx context.Context, d time.Duration) (ThresholdConfig, error) {
	return s.update(ctx, func(c *ThresholdConfig) { c.Interval = d })
}

func (s *ThresholdStore) update(ctx context.Context, mutate func(c *ThresholdConfig)) (ThresholdConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	mutate(&next)
	if err := next.Validate(); err != nil {
		return s.cfg, err
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, toThresholdEntity(next)); err != nil {
			return s.cfg, fmt.Errorf("persist thresholds: %w", err)
		}
	}
	s.cfg = next
	return next, nil
}

func toThresholdEntity(c ThresholdConfig) entity.Threshold {
	return entity.Threshold{
		Id:                    entity.ThresholdSingletonId,
		PumpPercent:           c.PumpPercent,
		DumpPercent:           c.DumpPercent,
		VolumeMultiplier:      c.VolumeSpikeMultiplier,
		MinVolumeUSDT:         c.MinVolumeUSDT,
		BreakoutMarginPercent: c.BreakoutMarginPercent,
		CooldownMillis:        c.Cooldown.Milliseconds(),
		IntervalMillis:        c.Interval.Milliseconds(),
	}
}

func fromThresholdEntity(t entity.Threshold) ThresholdConfig {
	return ThresholdConfig{
		PumpPercent:           t.PumpPercent,
		DumpPercent:           t.DumpPercent,
		VolumeSpikeMultiplier: t.VolumeMultiplier,
		MinVolumeUSDT:         t.MinVolumeUSDT,
		BreakoutMarginPercent: t.BreakoutMarginPercent,
		Cooldown:              time.Duration(t.CooldownMillis) * time.Millisecond,
		Interval:              time.Duration(t.IntervalMillis) * time.Millisecond,
	}
}
