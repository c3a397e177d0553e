package collector_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"

	"MarketPulse/internal/collector"
	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

var overviews = map[string]string{
	"AAPL": `{"Symbol":"AAPL","Name":"Apple Inc","Sector":"TECHNOLOGY","MarketCapitalization":"2900000000000","ReturnOnEquityTTM":"1.4725"}`,
	"MSFT": `{"Symbol":"MSFT","Name":"Microsoft Corporation","Sector":"TECHNOLOGY","MarketCapitalization":"2800000000000","ReturnOnEquityTTM":"0.3859"}`,
	"XOM":  `{"Symbol":"XOM","Name":"Exxon Mobil Corp","Sector":"ENERGY","MarketCapitalization":"410000000000","ReturnOnEquityTTM":"0.12"}`,
	"JPM":  `{"Symbol":"JPM","Name":"JPMorgan Chase & Co","Sector":"FINANCE","MarketCapitalization":"490000000000","ReturnOnEquityTTM":"None"}`,
	"NOPE": `{}`,
}

var quotes = map[string]string{
	"^DJI":  `{"Global Quote":{"01. symbol":"^DJI","05. price":"34200.12","07. latest trading day":"2024-01-03","08. previous close":"34025.45"}}`,
	"^GSPC": `{"Global Quote":{"01. symbol":"^GSPC","05. price":"4380.34","07. latest trading day":"2024-01-03","08. previous close":"4400.00"}}`,
	"^IXIC": `{"Global Quote":{}}`,
	"^RUT":  `{"Information":"Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`,
}

func fakeFundamentals(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/query", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("apikey") != "av-key" {
			fmt.Fprint(w, `{"Error Message": "the parameter apikey is invalid or missing."}`)
			return
		}
		sym := q.Get("symbol")
		switch q.Get("function") {
		case "OVERVIEW":
			fmt.Fprint(w, overviews[sym])
		case "CASH_FLOW":
			if sym != "AAPL" {
				fmt.Fprint(w, `{}`)
				return
			}
			fmt.Fprint(w, `{"symbol":"AAPL","annualReports":[
				{"fiscalDateEnding":"2023-09-30","operatingCashflow":"110543000000","capitalExpenditures":"10959000000"},
				{"fiscalDateEnding":"2022-09-30","operatingCashflow":"122151000000","capitalExpenditures":"10708000000"},
				{"fiscalDateEnding":"2021-09-30","operatingCashflow":"None","capitalExpenditures":"11085000000"}],
				"quarterlyReports":[]}`)
		case "GLOBAL_QUOTE":
			fmt.Fprint(w, quotes[sym])
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/stock/metric", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("token") == "" || q.Get("metric") != "all" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Invalid API key"}`)
			return
		}
		if q.Get("symbol") != "AAPL" {
			fmt.Fprint(w, `{"metric":{},"metricType":"all","symbol":"`+q.Get("symbol")+`"}`)
			return
		}
		fmt.Fprint(w, `{"metric":{"operatingMarginTTM":29.82,"netProfitMarginTTM":25.31,"revenueGrowthTTM":-2.8,"52WeekHigh":199.62},"metricType":"all","symbol":"AAPL"}`)
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type FundamentalsTestSuite struct {
	suite.Suite
	srv  *httptest.Server
	coll *collector.Collector
}

func TestFundamentalsSuite(t *testing.T) {
	suite.Run(t, new(FundamentalsTestSuite))
}

func (suite *FundamentalsTestSuite) newCollector(creds collector.Credentials) *collector.Collector {
	av := collector.NewAlphaVantageFetcher(suite.srv.Client())
	av.BaseURL = suite.srv.URL
	fh := collector.NewFinnhubFetcher(suite.srv.Client())
	fh.BaseURL = suite.srv.URL

	reg := collector.NewRegistry()
	reg.Register(collector.ProviderInfo{Kind: model.ProviderAlphaVantage, RequiresKey: true}, av)
	reg.Register(collector.ProviderInfo{Kind: model.ProviderFinnhub, RequiresKey: true}, fh)
	m := metrics.New()
	return collector.NewCollector(collector.NewCoordinator(reg, collector.WithMetrics(m)), av, collector.Settings{Credentials: creds}, m)
}

func (suite *FundamentalsTestSuite) SetupTest() {
	suite.srv = fakeFundamentals(suite.T())
	suite.coll = suite.newCollector(collector.Credentials{
		model.ProviderAlphaVantage: "av-key",
		model.ProviderFinnhub:      "fh-key",
	})
}

func (suite *FundamentalsTestSuite) TestScreenROE() {
	ctx := context.Background()
	screen, err := suite.coll.ScreenROE(ctx, []string{"xom", "MSFT", "AAPL", "JPM", "NOPE"}, collector.DefaultMinROE, "")
	suite.Require().NoError(err)
	suite.Require().Len(screen.Matches, 2)
	suite.Equal("AAPL", screen.Matches[0].Symbol, "best ROE first")
	suite.InDelta(147.25, screen.Matches[0].ROE.Unwrap(), 1e-9)
	suite.Equal("Apple Inc", screen.Matches[0].Name)
	suite.InDelta(2.9e12, screen.Matches[0].MarketCap, 1)
	suite.Equal("MSFT", screen.Matches[1].Symbol)
	suite.Equal([]string{"JPM", "NOPE"}, screen.Skipped)

	screen, err = suite.coll.ScreenROE(ctx, []string{"AAPL", "MSFT", "XOM"}, 10, "energy")
	suite.Require().NoError(err)
	suite.Require().Len(screen.Matches, 1)
	suite.Equal("XOM", screen.Matches[0].Symbol)
	suite.Equal("energy", screen.Sector)
}

func (suite *FundamentalsTestSuite) TestFreeCashFlow() {
	cf, err := suite.coll.FreeCashFlow(context.Background(), "aapl")
	suite.Require().NoError(err)
	suite.Equal("AAPL", cf.Symbol)
	suite.Require().Len(cf.Years, 2)
	suite.Equal(1, cf.Dropped)
	suite.Equal("2023-09-30", cf.Years[0].FiscalDateEnding)
	suite.InDelta(99_584_000_000, cf.Years[0].FreeCashFlow, 1)
	suite.InDelta(111_443_000_000, cf.Years[1].FreeCashFlow, 1)

	cf, err = suite.coll.FreeCashFlow(context.Background(), "NOPE")
	suite.Require().NoError(err)
	suite.Empty(cf.Years)

	_, err = suite.coll.FreeCashFlow(context.Background(), " ")
	suite.True(apperr.HasCode(err, apperr.ErrCodeInvalidRequest))
}

func (suite *FundamentalsTestSuite) TestMargins() {
	m, err := suite.coll.Margins(context.Background(), "AAPL")
	suite.Require().NoError(err)
	suite.InDelta(29.82, m.OperatingMargin.Unwrap(), 1e-9)
	suite.InDelta(25.31, m.NetMargin.Unwrap(), 1e-9)
	suite.InDelta(-2.8, m.RevenueGrowth.Unwrap(), 1e-9)

	m, err = suite.coll.Margins(context.Background(), "NOPE")
	suite.Require().NoError(err)
	suite.True(m.OperatingMargin.IsNone())
	suite.True(m.RevenueGrowth.IsNone())
}

func (suite *FundamentalsTestSuite) TestIndices() {
	report, err := suite.coll.Indices(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(report.Quotes, 2)

	dji := report.Quotes[0]
	suite.Equal("DJIA", dji.Key)
	suite.Equal("^DJI", dji.Symbol)
	suite.Equal("Dow Jones", dji.Name)
	suite.InDelta(34200.12, dji.Price, 1e-9)
	suite.InDelta(174.67, dji.Change, 1e-6)
	suite.InDelta(174.67/34025.45*100, dji.ChangePercent, 1e-9)
	suite.Equal("2024-01-03", dji.TradingDay)
	suite.Less(report.Quotes[1].ChangePercent, 0.0)

	suite.Equal([]string{"NDX", "RUT"}, report.Failed)
}

func (suite *FundamentalsTestSuite) TestMissingKeys() {
	coll := suite.newCollector(nil)
	ctx := context.Background()

	_, err := coll.ScreenROE(ctx, nil, 15, "")
	suite.True(apperr.HasCode(err, apperr.ErrCodeMissingCredential))
	_, err = coll.FreeCashFlow(ctx, "AAPL")
	suite.True(apperr.HasCode(err, apperr.ErrCodeMissingCredential))
	_, err = coll.Margins(ctx, "AAPL")
	suite.True(apperr.HasCode(err, apperr.ErrCodeMissingCredential))
	_, err = coll.Indices(ctx)
	suite.True(apperr.HasCode(err, apperr.ErrCodeMissingCredential))
}

func (suite *FundamentalsTestSuite) TestRejectedKey() {
	coll := suite.newCollector(collector.Credentials{model.ProviderAlphaVantage: "bad"})
	_, err := coll.FreeCashFlow(context.Background(), "AAPL")
	suite.True(apperr.HasCode(err, apperr.ErrCodeProviderRejected))
}

func (suite *FundamentalsTestSuite) TestWithoutAlphaVantageSource() {
	coll := collector.NewCollector(collector.NewCoordinator(collector.NewRegistry()), nil, collector.Settings{}, nil)
	_, err := coll.Indices(context.Background())
	suite.True(apperr.HasCode(err, apperr.ErrCodeInvalidRequest))
	_, err = coll.Margins(context.Background(), "AAPL")
	suite.True(apperr.HasCode(err, apperr.ErrCodeUnknownProvider))
}
