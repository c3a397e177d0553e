package model

// ProviderKind selects a market data provider and the payload layout it
// returns.
type ProviderKind string

const (
	ProviderAlphaVantage ProviderKind = "alphavantage"
	ProviderFinnhub      ProviderKind = "finnhub"
	ProviderYahoo        ProviderKind = "yahoo"
	ProviderTwelveData   ProviderKind = "twelvedata"
	ProviderTiingo       ProviderKind = "tiingo"
	ProviderPolygon      ProviderKind = "polygon"
	// ProviderTable is a generic column table such as a yfinance history frame.
	ProviderTable ProviderKind = "table"
	ProviderMock  ProviderKind = "mock"
)

// ProviderKinds lists every known kind in display order.
var ProviderKinds = []ProviderKind{
	ProviderYahoo,
	ProviderAlphaVantage,
	ProviderFinnhub,
	ProviderTwelveData,
	ProviderTiingo,
	ProviderPolygon,
	ProviderTable,
	ProviderMock,
}

func (k ProviderKind) String() string { return string(k) }

// Valid reports whether k is a known kind.
func (k ProviderKind) Valid() bool {
	for _, known := range ProviderKinds {
		if k == known {
			return true
		}
	}
	return false
}
