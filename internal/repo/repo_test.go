package repo

import (
	"context"
	"testing"
	"time"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RepoSuite struct {
	suite.Suite
	db  *gorm.DB
	ctx context.Context
}

func (s *RepoSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	// 每个连接都是独立的内存库, 只保留一个
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(InitTables(db))
	s.db = db
	s.ctx = context.Background()
}

func (s *RepoSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())
}

func TestRepoSuite(t *testing.T) {
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) TestSymbolRepo_Mark() {
	r := NewSymbolRepo(s.db)

	s.Require().NoError(r.Mark(s.ctx, "DOGE", "USDT", entity.MarkWatch))
	s.Require().NoError(r.Mark(s.ctx, "BTC", "USDT", entity.MarkWatch))
	s.Require().NoError(r.Mark(s.ctx, "DOGE", "USDT", entity.MarkIgnore))

	watched, err := r.FindByMark(s.ctx, entity.MarkWatch)
	s.Require().NoError(err)
	s.Require().Len(watched, 1)
	s.Equal("BTC", watched[0].Base)

	doge, err := r.FindByBaseAndQuote(s.ctx, "DOGE", "USDT")
	s.Require().NoError(err)
	s.Equal(entity.MarkIgnore, doge.Mark)

	_, err = r.FindByBaseAndQuote(s.ctx, "ETH", "USDT")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *RepoSuite) TestCooldownRepo_NeverMovesBackwards() {
	r := NewCooldownRepo(s.db)
	later := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	earlier := later.Add(-10 * time.Minute)

	s.Require().NoError(r.Save(s.ctx, entity.Cooldown{Symbol: "DOGEUSDT", Kind: "pump", LastFiredAt: later}))
	s.Require().NoError(r.Save(s.ctx, entity.Cooldown{Symbol: "DOGEUSDT", Kind: "pump", LastFiredAt: earlier}))
	s.Require().NoError(r.Save(s.ctx, entity.Cooldown{Symbol: "DOGEUSDT", Kind: "dump", LastFiredAt: earlier}))

	all, err := r.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	for _, c := range all {
		switch c.Kind {
		case "pump":
			s.True(c.LastFiredAt.Equal(later), "got %v", c.LastFiredAt)
		case "dump":
			s.True(c.LastFiredAt.Equal(earlier), "got %v", c.LastFiredAt)
		}
	}
}

func (s *RepoSuite) TestBaselineRepo_SaveAll() {
	r := NewBaselineRepo(s.db)
	s.Require().NoError(r.SaveAll(s.ctx, nil))
	s.Require().NoError(r.SaveAll(s.ctx, []entity.Baseline{
		{Symbol: "DOGEUSDT", Volumes: "[1,2]", Prices: "[0.1,0.2]"},
		{Symbol: "BTCUSDT", Volumes: "[3]", Prices: "[60000]"},
	}))
	s.Require().NoError(r.SaveAll(s.ctx, []entity.Baseline{
		{Symbol: "DOGEUSDT", Volumes: "[1,2,3]", Prices: "[0.1,0.2,0.3]"},
	}))

	all, err := r.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	bySymbol := map[string]entity.Baseline{}
	for _, b := range all {
		bySymbol[b.Symbol] = b
	}
	s.Equal("[1,2,3]", bySymbol["DOGEUSDT"].Volumes)
	s.Equal("[60000]", bySymbol["BTCUSDT"].Prices)
}

func TestThresholdRepo(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, InitTables(db))

	r := NewThresholdRepo(db)
	ctx := context.Background()

	_, found, err := r.Find(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.Save(ctx, entity.Threshold{PumpPercent: 15, DumpPercent: -15, VolumeMultiplier: 5}))
	require.NoError(t, r.Save(ctx, entity.Threshold{PumpPercent: 20, DumpPercent: -10, VolumeMultiplier: 4, CooldownMillis: 60_000}))

	got, found, err := r.Find(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(entity.ThresholdSingletonId), got.Id)
	assert.Equal(t, 20.0, got.PumpPercent)
	assert.Equal(t, -10.0, got.DumpPercent)
	assert.Equal(t, int64(60_000), got.CooldownMillis)
}
