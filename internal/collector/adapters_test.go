package collector_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/collector"
	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
)

// fakeProviders serves canned provider responses on the paths the adapters
// call.
func fakeProviders(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()

	r.HandleFunc("/v8/finance/chart/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		sym := mux.Vars(req)["symbol"]
		if sym == "NOPE" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
			return
		}
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"`+sym+`"},"timestamp":[1704153600,1704240000,1704326400],
			"indicators":{"quote":[{"open":[187.15,null,182.15],"high":[188.44,185.88,183.09],"low":[183.89,183.43,180.88],
			"close":[185.64,184.25,181.91],"volume":[82488700,58414500,71983600]}]}}],"error":null}}`)
	}).Methods(http.MethodGet).Queries("interval", "1d")

	r.HandleFunc("/query", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("apikey") != "av-key" {
			fmt.Fprint(w, `{"Error Message": "the parameter apikey is invalid or missing."}`)
			return
		}
		switch q.Get("function") {
		case "TIME_SERIES_DAILY":
			fmt.Fprint(w, `{"Meta Data":{"2. Symbol":"`+q.Get("symbol")+`"},"Time Series (Daily)":{
				"2024-01-03":{"1. open":"184.22","2. high":"185.88","3. low":"183.43","4. close":"184.25","5. volume":"58414500"},
				"2024-01-02":{"1. open":"187.15","2. high":"188.44","3. low":"183.89","4. close":"185.64","5. volume":"82488700"}}}`)
		case "TOP_GAINERS_LOSERS":
			fmt.Fprint(w, `{"metadata":"Top gainers, losers, and most actively traded US tickers","last_updated":"2024-01-03 16:15:59 US/Eastern",
				"top_gainers":[{"ticker":"ABCD","price":"3.10","change_amount":"1.10","change_percentage":"55.0%","volume":"1000"},
					{"ticker":"PENNY","price":"0.12","change_amount":"0.06","change_percentage":"100%","volume":"50"}],
				"top_losers":[{"ticker":"WXYZ","price":"10.5","change_amount":"-4.5","change_percentage":"-30.0%","volume":"2500"}],
				"most_actively_traded":[{"ticker":"SPY","price":"470.00","change_amount":"1.00","change_percentage":"0.2128%","volume":"90000000"}]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/stock/candle", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("token") == "" || q.Get("resolution") != "D" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Invalid API key"}`)
			return
		}
		fmt.Fprint(w, `{"s":"ok","t":[1704153600,1704240000],"o":[187.15,184.22],"h":[188.44,185.88],"l":[183.89,183.43],"c":[185.64,184.25],"v":[82488700,58414500]}`)
	}).Methods(http.MethodGet)

	r.HandleFunc("/time_series", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("symbol") == "NOPE" {
			fmt.Fprint(w, `{"code":400,"message":"**symbol** not found: NOPE","status":"error"}`)
			return
		}
		fmt.Fprint(w, `{"meta":{"symbol":"AAPL","interval":"1day"},"values":[
			{"datetime":"2024-01-03","open":"184.22","high":"185.88","low":"183.43","close":"184.25","volume":"58414500"},
			{"datetime":"2024-01-02","open":"187.15","high":"188.44","low":"183.89","close":"185.64","volume":"82488700"}],"status":"ok"}`)
	}).Methods(http.MethodGet)

	r.HandleFunc("/tiingo/daily/{symbol}/prices", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["symbol"] == "NOPE" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"Error: Ticker 'NOPE' not found"}`)
			return
		}
		fmt.Fprint(w, `[{"date":"2024-01-02T00:00:00.000Z","open":187.15,"high":188.44,"low":183.89,"close":185.64,"volume":82488700},
			{"date":"2024-01-03T00:00:00.000Z","open":184.22,"high":185.88,"low":183.43,"close":184.25,"volume":58414500}]`)
	}).Methods(http.MethodGet)

	r.HandleFunc("/flaky", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func fetchAndParse(t *testing.T, f collector.Fetcher, req collector.Request) *normalizer.Result {
	t.Helper()
	raw, err := f.Fetch(context.Background(), req)
	require.NoError(t, err)
	res, err := normalizer.Parse(raw, f.Kind())
	require.NoError(t, err)
	return res
}

func TestYahooFetcher(t *testing.T) {
	srv := fakeProviders(t)
	f := collector.NewYahooFetcher(srv.Client())
	f.BaseURL = srv.URL

	res := fetchAndParse(t, f, collector.Request{Symbol: "AAPL", Period: model.Period1Month})
	assert.Len(t, res.Series, 2, "the null open drops one row")
	assert.Len(t, res.Dropped, 1)

	res = fetchAndParse(t, f, collector.Request{Symbol: "NOPE", Period: model.Period1Month})
	assert.True(t, res.NoData)
}

func TestAlphaVantageFetcher(t *testing.T) {
	srv := fakeProviders(t)
	f := collector.NewAlphaVantageFetcher(srv.Client())
	f.BaseURL = srv.URL

	res := fetchAndParse(t, f, collector.Request{Symbol: "AAPL", Period: model.Period1Month, Credential: "av-key"})
	require.Len(t, res.Series, 2)
	assert.True(t, res.Series[0].Time.Before(res.Series[1].Time))

	raw, err := f.Fetch(context.Background(), collector.Request{Symbol: "AAPL", Period: model.Period1Month, Credential: "bad"})
	require.NoError(t, err)
	_, err = normalizer.Parse(raw, f.Kind())
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeProviderRejected))
}

func TestFinnhubFetcher(t *testing.T) {
	srv := fakeProviders(t)
	f := collector.NewFinnhubFetcher(srv.Client())
	f.BaseURL = srv.URL

	res := fetchAndParse(t, f, collector.Request{Symbol: "AAPL", Period: model.Period3Months, Credential: "fh-key"})
	assert.Len(t, res.Series, 2)

	_, err := f.Fetch(context.Background(), collector.Request{Symbol: "AAPL", Period: model.Period3Months})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeProviderRejected))
	var statusErr *collector.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestTwelveDataFetcher(t *testing.T) {
	srv := fakeProviders(t)
	f := collector.NewTwelveDataFetcher(srv.Client())
	f.BaseURL = srv.URL

	res := fetchAndParse(t, f, collector.Request{Symbol: "AAPL", Period: model.Period3Months, Credential: "td-key"})
	assert.Len(t, res.Series, 2)

	res = fetchAndParse(t, f, collector.Request{Symbol: "NOPE", Period: model.Period3Months, Credential: "td-key"})
	assert.True(t, res.NoData)
}

func TestWindowedProvidersTrimToPeriod(t *testing.T) {
	srv := fakeProviders(t)
	now := func() time.Time { return time.Date(2024, 2, 2, 15, 30, 0, 0, time.UTC) }

	av := collector.NewAlphaVantageFetcher(srv.Client())
	av.BaseURL = srv.URL
	av.Now = now
	td := collector.NewTwelveDataFetcher(srv.Client())
	td.BaseURL = srv.URL
	td.Now = now

	reg := collector.NewRegistry()
	reg.Register(collector.ProviderInfo{Kind: model.ProviderAlphaVantage, RequiresKey: true}, av)
	reg.Register(collector.ProviderInfo{Kind: model.ProviderTwelveData, RequiresKey: true}, td)
	coord := collector.NewCoordinator(reg)
	creds := collector.Credentials{model.ProviderAlphaVantage: "av-key", model.ProviderTwelveData: "td-key"}

	for _, kind := range []model.ProviderKind{model.ProviderAlphaVantage, model.ProviderTwelveData} {
		res := coord.Fetch(context.Background(), "AAPL", model.Period1Month, kind, creds)
		require.True(t, res.IsOK(), "%s: %v", kind, res.Err)
		require.Len(t, res.Series, 1, "%s: 2024-01-02 falls before the 30-day window", kind)
		assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), res.Series[0].Time.UTC())
	}

	// a longer period keeps both bars
	res := coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderAlphaVantage, creds)
	require.True(t, res.IsOK())
	assert.Len(t, res.Series, 2)
}

func TestTiingoFetcher(t *testing.T) {
	srv := fakeProviders(t)
	f := collector.NewTiingoFetcher(srv.Client())
	f.BaseURL = srv.URL

	res := fetchAndParse(t, f, collector.Request{Symbol: "AAPL", Period: model.Period3Months, Credential: "tg-key"})
	assert.Len(t, res.Series, 2)

	res = fetchAndParse(t, f, collector.Request{Symbol: "NOPE", Period: model.Period3Months, Credential: "tg-key"})
	assert.True(t, res.NoData)
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := fakeProviders(t)
	f := collector.NewYahooFetcher(srv.Client())
	f.BaseURL = srv.URL + "/flaky?"

	_, err := f.Fetch(context.Background(), collector.Request{Symbol: "AAPL", Period: model.Period1Month})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeTransientFetchFailure))
}

func TestYahooFetcherThroughCoordinator(t *testing.T) {
	srv := fakeProviders(t)
	var calls atomic.Int32
	wrapped := countingFetcher{Fetcher: collector.NewYahooFetcher(srv.Client()), calls: &calls}
	wrapped.Fetcher.(*collector.YahooFetcher).BaseURL = srv.URL

	reg := collector.NewRegistry()
	reg.Register(collector.ProviderInfo{Kind: model.ProviderYahoo, DisplayName: "Yahoo Finance"}, wrapped)
	coord := collector.NewCoordinator(reg)

	res := coord.Fetch(context.Background(), "NOPE", model.Period1Month, model.ProviderYahoo, nil)
	assert.True(t, res.IsEmpty())
	assert.Equal(t, int32(1), calls.Load())
}

type countingFetcher struct {
	collector.Fetcher
	calls *atomic.Int32
}

func (c countingFetcher) Fetch(ctx context.Context, req collector.Request) (any, error) {
	c.calls.Add(1)
	return c.Fetcher.Fetch(ctx, req)
}

// fakePolygon implements PolygonAPIClient over a fixed slice.
type fakePolygon struct {
	aggs   []models.Agg
	err    error
	params *models.ListAggsParams
}

func (f *fakePolygon) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) collector.PolygonAggsIterator {
	f.params = params
	return &fakeAggsIter{aggs: f.aggs, err: f.err}
}

type fakeAggsIter struct {
	aggs  []models.Agg
	index int
	err   error
}

func (it *fakeAggsIter) Next() bool {
	if it.index < len(it.aggs) {
		it.index++
		return true
	}
	return false
}

func (it *fakeAggsIter) Item() models.Agg { return it.aggs[it.index-1] }

func (it *fakeAggsIter) Err() error { return it.err }

func TestPolygonFetcher(t *testing.T) {
	fake := &fakePolygon{aggs: []models.Agg{
		{Timestamp: models.Millis(time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)), Open: 187.15, High: 188.44, Low: 183.89, Close: 185.64, Volume: 82488700},
		{Timestamp: models.Millis(time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC)), Open: 184.22, High: 185.88, Low: 183.43, Close: 184.25, Volume: 58414500},
	}}
	var gotKey string
	f := collector.NewPolygonFetcher()
	f.NewClient = func(apiKey string) collector.PolygonAPIClient {
		gotKey = apiKey
		return fake
	}
	f.Now = func() time.Time { return time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC) }

	res := fetchAndParse(t, f, collector.Request{Symbol: "aapl", Period: model.Period1Month, Credential: "pg-key"})
	assert.Len(t, res.Series, 2)
	assert.Equal(t, "pg-key", gotKey)
	require.NotNil(t, fake.params)
	assert.Equal(t, "AAPL", fake.params.Ticker)
	assert.Equal(t, models.Day, fake.params.Timespan)

	fake.err = fmt.Errorf("NOT_AUTHORIZED: unknown API key")
	_, err := f.Fetch(context.Background(), collector.Request{Symbol: "AAPL", Period: model.Period1Month, Credential: "bad"})
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeProviderRejected))
}

func TestMockFetcherFeedsTheTableLayout(t *testing.T) {
	f := collector.NewMockFetcher(50)
	res := fetchAndParse(t, f, collector.Request{Symbol: "ANY", Period: model.Period3Months})
	assert.Len(t, res.Series, model.Period3Months.Days())
	assert.Empty(t, res.Dropped)
}

func TestCollectorMovers(t *testing.T) {
	srv := fakeProviders(t)
	av := collector.NewAlphaVantageFetcher(srv.Client())
	av.BaseURL = srv.URL

	coll := collector.NewCollector(collector.NewCoordinator(collector.NewRegistry()), av, collector.Settings{
		Credentials: collector.Credentials{model.ProviderAlphaVantage: "av-key"},
	}, nil)

	movers, err := coll.Movers(context.Background())
	require.NoError(t, err)
	require.Len(t, movers.Gainers, 1, "the penny stock is filtered out")
	assert.Equal(t, "ABCD", movers.Gainers[0].Ticker)
	assert.InDelta(t, 55.0, movers.Gainers[0].ChangePercent, 1e-9)
	require.Len(t, movers.Losers, 1)
	assert.InDelta(t, -30.0, movers.Losers[0].ChangePercent, 1e-9)
	assert.Len(t, movers.MostActive, 1)
	assert.Equal(t, "2024-01-03 16:15:59 US/Eastern", movers.LastUpdated)
	assert.False(t, movers.FetchedAt.IsZero())
}
