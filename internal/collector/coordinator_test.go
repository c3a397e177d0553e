package collector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/collector/mocks"
	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// CoordinatorTestSuite drives the coordinator with a gomock Fetcher
// registered as Finnhub, so payloads use the candle layout.
type CoordinatorTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	fetcher *mocks.MockFetcher
	delays  []time.Duration
	coord   *collector.Coordinator
	cache   *collector.MemoryCache
	clock   time.Time
	creds   collector.Credentials
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (suite *CoordinatorTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.fetcher = mocks.NewMockFetcher(suite.ctrl)
	suite.fetcher.EXPECT().Kind().Return(model.ProviderFinnhub).AnyTimes()
	suite.delays = nil
	suite.clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.creds = collector.Credentials{model.ProviderFinnhub: "test-key"}

	reg := collector.NewRegistry()
	reg.Register(collector.ProviderInfo{Kind: model.ProviderFinnhub, DisplayName: "Finnhub", RequiresKey: true}, suite.fetcher)

	suite.cache = collector.NewMemoryCache().WithClock(func() time.Time { return suite.clock })
	suite.coord = collector.NewCoordinator(reg,
		collector.WithSleep(func(_ context.Context, d time.Duration) error {
			suite.delays = append(suite.delays, d)
			return nil
		}),
		collector.WithClock(func() time.Time { return suite.clock }),
		collector.WithCache(suite.cache, time.Minute),
	)
}

func (suite *CoordinatorTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func candles() map[string]any {
	return map[string]any{
		"s": "ok",
		"t": []any{1704153600.0, 1704240000.0, 1704326400.0},
		"o": []any{187.15, 184.22, 182.15},
		"h": []any{188.44, 185.88, 183.09},
		"l": []any{183.89, 183.43, 180.88},
		"c": []any{185.64, 184.25, 181.91},
		"v": []any{82488700.0, 58414500.0, 71983600.0},
	}
}

func transient() error {
	return apperr.New(apperr.ErrCodeTransientFetchFailure, "connection reset")
}

func (suite *CoordinatorTestSuite) TestThreeFailuresGiveErrorAfterThreeAttempts() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, transient()).Times(3)

	res := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)

	suite.True(res.IsError())
	suite.Equal(3, res.Attempts)
	suite.Equal(apperr.ErrCodeTransientFetchFailure, apperr.GetCode(res.Err))
	suite.Require().Len(suite.delays, 2, "no delay after the last attempt")
	for i := 1; i < len(suite.delays); i++ {
		suite.GreaterOrEqual(suite.delays[i], suite.delays[i-1])
	}
	suite.Equal([]time.Duration{2 * time.Second, 4 * time.Second}, suite.delays)
	suite.Equal(0, suite.cache.Len(), "errors are not cached")
}

func (suite *CoordinatorTestSuite) TestRecoversAfterTransientFailure() {
	gomock.InOrder(
		suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, transient()),
		suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(candles(), nil),
	)

	res := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)

	suite.Require().True(res.IsOK(), res.Reason)
	suite.Equal(2, res.Attempts)
	suite.Len(res.Series, 3)
	suite.Equal("AAPL", res.Symbol)
	suite.Equal(model.ProviderFinnhub, res.Provider)
}

func (suite *CoordinatorTestSuite) TestNoDataSentinelGivesEmpty() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(map[string]any{"s": "no_data"}, nil).Times(1)

	res := suite.coord.Fetch(context.Background(), "ZZZZ", model.Period1Month, model.ProviderFinnhub, suite.creds)

	suite.True(res.IsEmpty())
	suite.Equal(1, res.Attempts)
	suite.Empty(res.Series)
	suite.NotEmpty(res.Reason)
}

func (suite *CoordinatorTestSuite) TestMissingCredentialMakesNoAttempt() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Times(0)

	res := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, collector.Credentials{})

	suite.True(res.IsError())
	suite.Equal(0, res.Attempts)
	suite.True(apperr.HasCode(res.Err, apperr.ErrCodeMissingCredential))
	suite.Empty(suite.delays)
}

func (suite *CoordinatorTestSuite) TestRejectionIsNotRetried() {
	rejected := apperr.New(apperr.ErrCodeProviderRejected, "invalid API key")
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, rejected).Times(1)

	res := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)

	suite.True(res.IsError())
	suite.Equal(1, res.Attempts)
	suite.Empty(suite.delays)
}

func (suite *CoordinatorTestSuite) TestShapeErrorIsNotRetried() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(map[string]any{"unexpected": true}, nil).Times(1)

	res := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)

	suite.True(res.IsError())
	suite.True(apperr.IsShapeError(res.Err))
	suite.Equal(1, res.Attempts)
}

func (suite *CoordinatorTestSuite) TestAdapterPanicBecomesError() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, collector.Request) (any, error) { panic("boom") }).
		Times(1)

	var res model.ProviderResult
	suite.NotPanics(func() {
		res = suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)
	})
	suite.True(res.IsError())
	suite.Contains(res.Reason, "boom")
}

func (suite *CoordinatorTestSuite) TestCachesOkUntilTTL() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(candles(), nil).Times(2)

	first := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)
	suite.Require().True(first.IsOK())
	suite.False(first.Cached)

	second := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)
	suite.True(second.Cached)
	suite.Equal(first.Series, second.Series)

	suite.clock = suite.clock.Add(2 * time.Minute)
	third := suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)
	suite.False(third.Cached)
}

func (suite *CoordinatorTestSuite) TestPassesCredentialAndPeriod() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), collector.Request{
		Symbol:     "MSFT",
		Period:     model.Period6Months,
		Credential: "test-key",
	}).Return(candles(), nil)

	res := suite.coord.Fetch(context.Background(), " MSFT ", model.Period6Months, model.ProviderFinnhub, suite.creds)
	suite.True(res.IsOK())
}

func (suite *CoordinatorTestSuite) TestInvalidRequests() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Times(0)

	res := suite.coord.Fetch(context.Background(), "", model.Period3Months, model.ProviderFinnhub, suite.creds)
	suite.True(apperr.HasCode(res.Err, apperr.ErrCodeInvalidRequest))

	res = suite.coord.Fetch(context.Background(), "AAPL", model.Period("5d"), model.ProviderFinnhub, suite.creds)
	suite.True(apperr.HasCode(res.Err, apperr.ErrCodeInvalidRequest))

	res = suite.coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderTiingo, suite.creds)
	suite.True(apperr.HasCode(res.Err, apperr.ErrCodeUnknownProvider))
	suite.Equal(0, res.Attempts)
}

func (suite *CoordinatorTestSuite) TestCancelledWaitStopsRetrying() {
	suite.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, transient()).Times(1)

	reg := collector.NewRegistry()
	reg.Register(collector.ProviderInfo{Kind: model.ProviderFinnhub, RequiresKey: true}, suite.fetcher)
	coord := collector.NewCoordinator(reg, collector.WithSleep(func(context.Context, time.Duration) error {
		return context.Canceled
	}))

	res := coord.Fetch(context.Background(), "AAPL", model.Period3Months, model.ProviderFinnhub, suite.creds)
	suite.True(res.IsError())
	suite.Equal(1, res.Attempts)
}

func TestRetryPolicyDelay(t *testing.T) {
	p := collector.RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := p.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %s, want %s", i+1, got, w)
		}
	}

	flat := collector.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 0.5}
	if flat.Delay(3) != time.Second {
		t.Errorf("multiplier below 1 must not shrink the delay, got %s", flat.Delay(3))
	}
}
