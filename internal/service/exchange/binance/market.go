package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/KNICEX/market-sentinel/pkg/decimalx"
	"github.com/adshao/go-binance/v2"
)

var _ exchange.MarketService = (*MarketService)(nil)

type MarketService struct {
	cli *binance.Client
}

// NewMarketService 创建现货行情服务, 使用 /api/v3/ticker/24hr
func NewMarketService(cli *binance.Client) *MarketService {
	return &MarketService{cli: cli}
}

func (m *MarketService) Stats24h(ctx context.Context, symbol string) (exchange.TickerStats, error) {
	res, err := m.cli.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return exchange.TickerStats{}, err
	}
	if len(res) == 0 || res[0] == nil {
		return exchange.TickerStats{}, fmt.Errorf("no 24h stats returned for %s", symbol)
	}
	return convertStats(res[0])
}

func convertStats(s *binance.PriceChangeStats) (exchange.TickerStats, error) {
	var p decimalx.FloatParser
	stats := exchange.TickerStats{
		Symbol:             s.Symbol,
		PriceChangePercent: p.Parse("priceChangePercent", s.PriceChangePercent),
		LastPrice:          p.Parse("lastPrice", s.LastPrice),
		QuoteVolume:        p.Parse("quoteVolume", s.QuoteVolume),
		ObservedAt:         time.Now(),
	}
	if err := p.Err(); err != nil {
		return exchange.TickerStats{}, fmt.Errorf("malformed 24h stats for %s: %w", s.Symbol, err)
	}
	if s.CloseTime > 0 {
		stats.ObservedAt = time.UnixMilli(s.CloseTime)
	}
	return stats, nil
}
