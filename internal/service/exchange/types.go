package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// 常见 Quote 列表, 按匹配优先级排序
var knownQuotes = []string{"USDT", "FDUSD", "USDC", "BUSD", "BTC", "ETH", "BNB"}

// TradingPair 交易对
type TradingPair struct {
	Base  string
	Quote string
}

// SplitSymbol 把 BTCUSDT 拆成 BTC, USDT. 未识别的 quote 返回空字符串
func SplitSymbol(s string) (string, string) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, q := range knownQuotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	// fallback
	return s, ""
}

// SymbolCandidates returns the exchange symbols raw may refer to, most likely first.
// "doge/usdt" is an explicit pair. A string already ending in defaultQuote is taken
// as is. A string ending in another quote is ambiguous: WBTC is a base asset while
// ETHBTC is a pair, so both WBTC+defaultQuote and the string itself are returned.
func SymbolCandidates(raw, defaultQuote string) ([]string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	explicit := strings.ContainsAny(s, "/-")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")
	if s == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return nil, fmt.Errorf("invalid symbol %q", s)
		}
	}
	defaultQuote = strings.ToUpper(defaultQuote)
	if explicit || (strings.HasSuffix(s, defaultQuote) && len(s) > len(defaultQuote)) {
		return []string{s}, nil
	}
	if _, quote := SplitSymbol(s); quote != "" {
		return []string{s + defaultQuote, s}, nil
	}
	return []string{s + defaultQuote}, nil
}

// NormalizeSymbol is the offline form of ResolveSymbol: a bare base asset is
// quoted in defaultQuote.
func NormalizeSymbol(raw, defaultQuote string) (string, error) {
	candidates, err := SymbolCandidates(raw, defaultQuote)
	if err != nil {
		return "", err
	}
	return candidates[0], nil
}

// ResolveSymbol returns the first candidate the exchange lists. When none is
// listed it returns the most likely candidate and false.
func ResolveSymbol(ctx context.Context, svc SymbolService, raw, defaultQuote string) (string, bool, error) {
	candidates, err := SymbolCandidates(raw, defaultQuote)
	if err != nil {
		return "", false, err
	}
	for _, c := range candidates {
		ok, err := svc.Exists(ctx, c)
		if err != nil {
			return c, false, fmt.Errorf("check %s: %w", c, err)
		}
		if ok {
			return c, true, nil
		}
	}
	return candidates[0], false, nil
}

func (s TradingPair) IsZero() bool {
	return s.Base == "" || s.Quote == ""
}

func (s TradingPair) ToString() string {
	return fmt.Sprintf("%s%s", s.Base, s.Quote)
}

func (s TradingPair) ToSlashString() string {
	return fmt.Sprintf("%s/%s", s.Base, s.Quote)
}

// TickerStats 24h 滚动窗口统计快照, 每个 tick 重新获取, 创建后不再修改
type TickerStats struct {
	Symbol             string
	PriceChangePercent float64 // 24h 涨跌幅, 单位 %
	LastPrice          float64
	QuoteVolume        float64 // 成交额 (quote 计价)
	ObservedAt         time.Time
}

// Pair returns the base/quote split of the snapshot symbol.
func (t TickerStats) Pair() TradingPair {
	base, quote := SplitSymbol(t.Symbol)
	return TradingPair{Base: base, Quote: quote}
}

// MarketService 行情数据源
type MarketService interface {
	// Stats24h fetches the rolling 24h statistics of one symbol.
	Stats24h(ctx context.Context, symbol string) (TickerStats, error)
}

// SymbolService 交易对列表
type SymbolService interface {
	GetAllSymbols(ctx context.Context) ([]TradingPair, error)
	Exists(ctx context.Context, symbol string) (bool, error)
}
