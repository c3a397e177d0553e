package model

import "time"

// Range holds the rolling high/low context of the latest close.
type Range struct {
	High52w     float64 `json:"high_52w"`
	Low52w      float64 `json:"low_52w"`
	High30d     float64 `json:"high_30d"`
	Low30d      float64 `json:"low_30d"`
	Position52w float64 `json:"position_52w"` // 0.0 ~ 1.0
}

// Analysis is the output of one fetch, compute and classify request.
type Analysis struct {
	ID         string       `json:"id"`
	Symbol     string       `json:"symbol"`
	Provider   ProviderKind `json:"provider"`
	Period     Period       `json:"period"`
	Result     ResultKind   `json:"result"`
	Reason     string       `json:"reason,omitempty"`
	Bars       BarSeries    `json:"bars,omitempty"`
	Indicators IndicatorSet `json:"indicators,omitempty"`
	Signal     Signal       `json:"signal"`
	Range      *Range       `json:"range,omitempty"`
	Dropped    int          `json:"dropped"`
	CreatedAt  time.Time    `json:"created_at"`
}

// LastClose returns the latest close, or 0 for an empty analysis.
func (a *Analysis) LastClose() float64 {
	if b, ok := a.Bars.Last(); ok {
		return b.Close
	}
	return 0
}

// LastReturn returns the latest daily return in percent.
func (a *Analysis) LastReturn() Value {
	return a.Indicators[IndicatorDailyReturn].Last()
}

// Mover is one row of a top gainers, losers or most active list.
type Mover struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	ChangeAmount  float64 `json:"change_amount"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume"`
}

// Movers groups the three market mover lists.
type Movers struct {
	Gainers     []Mover   `json:"gainers"`
	Losers      []Mover   `json:"losers"`
	MostActive  []Mover   `json:"most_active"`
	LastUpdated string    `json:"last_updated,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ScanReport is the outcome of a watchlist scan. Ranked holds analyses with
// data ordered by latest daily return, best first; Skipped holds the rest.
type ScanReport struct {
	Market     string      `json:"market,omitempty"`
	Ranked     []*Analysis `json:"ranked"`
	Skipped    []*Analysis `json:"skipped"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}
