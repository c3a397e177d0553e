package collector

import (
	"context"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// PolygonAggsIterator is the subset of the SDK iterator the adapter uses.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the SDK client the adapter uses.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonSDK struct {
	client *polygon.Client
}

func (p polygonSDK) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return p.client.ListAggs(ctx, params, options...)
}

// PolygonFetcher implements Fetcher with the Polygon REST SDK. The API key
// arrives per request, so a client is built for each call.
type PolygonFetcher struct {
	NewClient func(apiKey string) PolygonAPIClient
	Now       func() time.Time
}

func NewPolygonFetcher() *PolygonFetcher {
	return &PolygonFetcher{
		NewClient: func(apiKey string) PolygonAPIClient {
			return polygonSDK{client: polygon.New(apiKey)}
		},
		Now: time.Now,
	}
}

func (f *PolygonFetcher) Kind() model.ProviderKind { return model.ProviderPolygon }

// Fetch drains the daily aggregates iterator into a []models.Agg.
func (f *PolygonFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	from, to := req.Period.Window(f.Now().UTC())

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     strings.ToUpper(req.Symbol),
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithLimit(5000)

	iter := f.NewClient(req.Credential).ListAggs(ctx, params)
	aggs := make([]models.Agg, 0, req.Period.Days())
	for iter.Next() {
		aggs = append(aggs, iter.Item())
	}
	if err := iter.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.Wrap(polygonErrorCode(err), "polygon aggregates", err)
	}
	return aggs, nil
}

// polygonErrorCode classifies SDK errors, which surface the HTTP status
// only in their message.
func polygonErrorCode(err error) apperr.ErrorCode {
	msg := strings.ToUpper(err.Error())
	for _, marker := range []string{"NOT_AUTHORIZED", "401", "403", "UNKNOWN API KEY"} {
		if strings.Contains(msg, marker) {
			return apperr.ErrCodeProviderRejected
		}
	}
	return apperr.ErrCodeTransientFetchFailure
}
