package normalizer

import (
	"strings"

	"github.com/moznion/go-optional"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// ParseOverview reads an Alpha Vantage OVERVIEW body. ReturnOnEquityTTM is
// a ratio and is converted to percent. A nil Overview with a nil error means
// the provider knows nothing about the symbol.
func ParseOverview(raw any, symbol string) (*model.Overview, error) {
	obj, err := alphaVantageBody(raw)
	if err != nil || len(obj) == 0 {
		return nil, err
	}

	out := &model.Overview{Symbol: symbol, Name: text(obj["Name"]), Sector: text(obj["Sector"])}
	if s := text(obj["Symbol"]); s != "" {
		out.Symbol = s
	}
	out.MarketCap, _ = Float(obj["MarketCapitalization"])
	if roe, ok := Float(obj["ReturnOnEquityTTM"]); ok {
		out.ROE = optional.Some(roe * 100)
	}
	return out, nil
}

// ParseCashFlow reads an Alpha Vantage CASH_FLOW body, keeping the annual
// reports in the provider's order. A report without a numeric operating
// cash flow or capital expenditure is dropped and counted.
func ParseCashFlow(raw any, symbol string) (*model.CashFlow, error) {
	obj, err := alphaVantageBody(raw)
	if err != nil {
		return nil, err
	}
	reports, ok := asSlice(obj["annualReports"])
	if !ok {
		return nil, nil
	}

	out := &model.CashFlow{Symbol: symbol}
	if s := text(obj["symbol"]); s != "" {
		out.Symbol = s
	}
	for _, item := range reports {
		rec, ok := asObject(item)
		if !ok {
			out.Dropped++
			continue
		}
		operating, okOp := Float(rec["operatingCashflow"])
		capex, okCapex := Float(rec["capitalExpenditures"])
		if !okOp || !okCapex {
			out.Dropped++
			continue
		}
		out.Years = append(out.Years, model.CashFlowYear{
			FiscalDateEnding:    text(rec["fiscalDateEnding"]),
			OperatingCashflow:   operating,
			CapitalExpenditures: capex,
			FreeCashFlow:        operating - capex,
		})
	}
	return out, nil
}

// ParseMetrics reads a Finnhub /stock/metric?metric=all body. Finnhub
// reports these ratios in percent already.
func ParseMetrics(raw any, symbol string) (*model.Margins, error) {
	payload, err := decode(raw)
	if err != nil {
		return nil, apperr.NewShapeError("finnhub", "decode: %v", err)
	}
	obj, ok := asObject(payload)
	if !ok {
		return nil, apperr.NewShapeError("finnhub", "expected a JSON object, got %T", payload)
	}
	if msg, ok := obj["error"]; ok {
		return nil, apperr.Newf(apperr.ErrCodeProviderRejected, "finnhub: %v", msg)
	}
	metric, _ := asObject(obj["metric"])
	if len(metric) == 0 {
		return nil, nil
	}

	value := func(key string) model.Value {
		if v, ok := Float(metric[key]); ok {
			return optional.Some(v)
		}
		return optional.None[float64]()
	}
	return &model.Margins{
		Symbol:          symbol,
		OperatingMargin: value("operatingMarginTTM"),
		NetMargin:       value("netProfitMarginTTM"),
		RevenueGrowth:   value("revenueGrowthTTM"),
	}, nil
}

// ParseGlobalQuote reads an Alpha Vantage GLOBAL_QUOTE body. The change is
// derived from the previous close. A nil quote with a nil error means the
// symbol is unknown to the provider.
func ParseGlobalQuote(raw any) (*model.IndexQuote, error) {
	obj, err := alphaVantageBody(raw)
	if err != nil {
		return nil, err
	}
	quote, ok := asObject(obj["Global Quote"])
	if !ok {
		return nil, apperr.NewShapeError("alphavantage", "no \"Global Quote\" object")
	}
	if len(quote) == 0 {
		return nil, nil
	}

	fields := make(map[string]any, len(quote))
	for k, v := range quote {
		fields[alphaVantageField(k)] = v
	}
	price, ok := Float(fields["price"])
	if !ok {
		return nil, apperr.NewShapeError("alphavantage", "quote without a numeric price")
	}
	prev, ok := Float(fields["previous close"])
	if !ok {
		prev = price
	}
	out := &model.IndexQuote{
		Symbol:        text(fields["symbol"]),
		Price:         price,
		PreviousClose: prev,
		Change:        price - prev,
		TradingDay:    text(fields["latest trading day"]),
	}
	if prev != 0 {
		out.ChangePercent = out.Change / prev * 100
	}
	return out, nil
}

func alphaVantageBody(raw any) (map[string]any, error) {
	payload, err := decode(raw)
	if err != nil {
		return nil, apperr.NewShapeError("alphavantage", "decode: %v", err)
	}
	return alphaVantageObject(payload)
}

func text(v any) string {
	s, _ := v.(string)
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return ""
	}
	return strings.TrimSpace(s)
}
