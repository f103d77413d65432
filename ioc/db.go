package ioc

import (
	"github.com/KNICEX/market-sentinel/internal/repo"
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB() *gorm.DB {
	type Config struct {
		DSN string `mapstructure:"dsn"`
	}

	cfg := Config{DSN: "./data/sentinel.db"}
	if err := viper.UnmarshalKey("db", &cfg); err != nil {
		panic(err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		panic(err)
	}
	// sqlite 只允许一个写连接
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	return db
}
