package collector

import (
	"sort"
	"strings"
)

// Markets holds the built-in watchlists by market name.
var Markets = map[string][]string{
	"NASDAQ":  {"AAPL", "MSFT", "AMZN", "GOOG", "META", "TSLA", "NVDA", "PYPL", "ADBE", "NFLX"},
	"NYSE":    {"JPM", "V", "JNJ", "WMT", "PG", "XOM", "KO", "DIS", "BA", "IBM"},
	"Tadawul": {"2222.SR", "1180.SR", "7010.SR", "1211.SR", "2380.SR"},
}

// MarketSymbols returns a copy of the named watchlist, matched
// case-insensitively.
func MarketSymbols(name string) ([]string, bool) {
	for k, syms := range Markets {
		if strings.EqualFold(k, name) {
			return append([]string(nil), syms...), true
		}
	}
	return nil, false
}

// MarketNames lists the preset names in sorted order.
func MarketNames() []string {
	names := make([]string, 0, len(Markets))
	for k := range Markets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
