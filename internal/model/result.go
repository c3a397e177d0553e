package model

import "time"

// ResultKind tags a ProviderResult.
type ResultKind string

const (
	ResultOK    ResultKind = "ok"
	ResultEmpty ResultKind = "empty"
	ResultError ResultKind = "error"
)

// ProviderResult is the fetch coordinator's return value: Ok carries a
// series, Empty means the provider had no data, Error carries the last
// failure reason.
type ProviderResult struct {
	Kind      ResultKind   `json:"kind"`
	Series    BarSeries    `json:"series,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Err       error        `json:"-"`
	Provider  ProviderKind `json:"provider"`
	Symbol    string       `json:"symbol"`
	Attempts  int          `json:"attempts"`
	Dropped   int          `json:"dropped"`
	FetchedAt time.Time    `json:"fetched_at"`
	Cached    bool         `json:"cached"`
}

// Ok builds a successful result.
func Ok(series BarSeries) ProviderResult {
	return ProviderResult{Kind: ResultOK, Series: series}
}

// Empty builds a no-data result.
func Empty(reason string) ProviderResult {
	return ProviderResult{Kind: ResultEmpty, Reason: reason}
}

// Failed builds an error result from err.
func Failed(err error) ProviderResult {
	r := ProviderResult{Kind: ResultError, Err: err}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

func (r ProviderResult) IsOK() bool    { return r.Kind == ResultOK }
func (r ProviderResult) IsEmpty() bool { return r.Kind == ResultEmpty }
func (r ProviderResult) IsError() bool { return r.Kind == ResultError }
