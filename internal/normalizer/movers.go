package normalizer

import (
	"strings"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// ParseMovers reads an Alpha Vantage TOP_GAINERS_LOSERS body. Rows priced
// below minPrice or with unparseable numbers are skipped.
func ParseMovers(raw any, minPrice float64) (*model.Movers, error) {
	obj, err := alphaVantageBody(raw)
	if err != nil {
		return nil, err
	}
	if _, ok := obj["top_gainers"]; !ok {
		return nil, apperr.NewShapeError("alphavantage", "no \"top_gainers\" list")
	}

	out := &model.Movers{
		Gainers:    moverList(obj["top_gainers"], minPrice),
		Losers:     moverList(obj["top_losers"], minPrice),
		MostActive: moverList(obj["most_actively_traded"], minPrice),
	}
	if s, ok := obj["last_updated"].(string); ok {
		out.LastUpdated = s
	}
	return out, nil
}

func moverList(v any, minPrice float64) []model.Mover {
	items, _ := asSlice(v)
	out := make([]model.Mover, 0, len(items))
	for _, item := range items {
		rec, ok := asObject(item)
		if !ok {
			continue
		}
		ticker, _ := rec["ticker"].(string)
		price, okPrice := Float(rec["price"])
		pct, okPct := Percent(rec["change_percentage"])
		if strings.TrimSpace(ticker) == "" || !okPrice || !okPct || price < minPrice {
			continue
		}
		amount, _ := Float(rec["change_amount"])
		volume, _ := Float(rec["volume"])
		out = append(out, model.Mover{
			Ticker:        ticker,
			Price:         price,
			ChangeAmount:  amount,
			ChangePercent: pct,
			Volume:        volume,
		})
	}
	return out
}
