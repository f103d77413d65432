package binance

import (
	"context"
	"errors"
	"strings"

	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/samber/lo"
)

// 过期/下架币种, 以及稳定币自身
var binanceOverdueSymbolBase = []string{
	"BCC", "VEN", "PAX", "BCHABC", "BCHSV", "WAVES", "BTT", "USDS", "XMR", "NANO", "OMG",
	"MITH", "MATIC", "FTM", "USDSB", "GTO", "ERD", "NPXS", "COCOS", "TOMO", "PERL", "MFT",
	"KEY", "STORM", "DOCK", "BUSD", "BEAM", "REN", "HC", "MCO", "VITE", "DREP", "BULL", "BEAR",
	"BTCUP", "BTCDOWN", "ETHUP", "ETHDOWN", "BNBUP", "BNBDOWN", "UST", "SRM", "ANT", "OCEAN",
	"AGIX", "RNDR", "MULTI", "KLAY", "NEBL",

	"USDC", "FUSDT", "USDP", "TUSD", "FDUSD",
}

// Binance 对未知交易对返回 -1121 Invalid symbol
const codeInvalidSymbol = -1121

type SymbolService struct {
	cli         *binance.Client
	overdueBase map[string]struct{}
}

func NewSymbolService(cli *binance.Client) *SymbolService {
	return &SymbolService{
		cli: cli,
		overdueBase: lo.SliceToMap(binanceOverdueSymbolBase, func(item string) (string, struct{}) {
			return item, struct{}{}
		}),
	}
}

// GetAllSymbols 返回当前可交易的 USDT 交易对
func (svc *SymbolService) GetAllSymbols(ctx context.Context) ([]exchange.TradingPair, error) {
	prices, err := svc.cli.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, err
	}
	pairs := lo.FilterMap(prices, func(item *binance.SymbolPrice, _ int) (exchange.TradingPair, bool) {
		if !strings.HasSuffix(item.Symbol, "USDT") {
			return exchange.TradingPair{}, false
		}
		return exchange.TradingPair{Base: strings.TrimSuffix(item.Symbol, "USDT"), Quote: "USDT"}, true
	})
	return svc.filterOverdue(pairs), nil
}

// Exists reports whether the exchange knows the symbol and it is not delisted.
func (svc *SymbolService) Exists(ctx context.Context, symbol string) (bool, error) {
	base, _ := exchange.SplitSymbol(symbol)
	if _, ok := svc.overdueBase[base]; ok {
		return false, nil
	}
	prices, err := svc.cli.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol {
			return false, nil
		}
		return false, err
	}
	return len(prices) > 0, nil
}

// filterOverdue 过滤掉过期的币种
func (svc *SymbolService) filterOverdue(s []exchange.TradingPair) []exchange.TradingPair {
	return lo.Reject(s, func(item exchange.TradingPair, _ int) bool {
		_, ok := svc.overdueBase[item.Base]
		return ok
	})
}
