package normalizer

import (
	"time"

	"github.com/polygon-io/client-go/rest/models"

	apperr "MarketPulse/internal/errors"
)

// parsePolygon accepts the SDK's aggregate slice or a raw /v2/aggs JSON body
// ({"results": [{"o":..,"h":..,"l":..,"c":..,"v":..,"t": <ms>}], "resultsCount": n}).
func parsePolygon(payload any) (parsed, error) {
	switch p := payload.(type) {
	case []models.Agg:
		if len(p) == 0 {
			return noData("polygon returned no aggregates"), nil
		}
		rows := make([]row, len(p))
		for i, agg := range p {
			rows[i] = row{
				index:  i,
				date:   time.Time(agg.Timestamp),
				open:   agg.Open,
				high:   agg.High,
				low:    agg.Low,
				close:  agg.Close,
				volume: agg.Volume,
			}
		}
		return parsed{rows: rows}, nil
	case map[string]any:
		if status, _ := p["status"].(string); status == "ERROR" || status == "NOT_AUTHORIZED" {
			return parsed{}, apperr.Newf(apperr.ErrCodeProviderRejected, "polygon %s: %v", status, p["error"])
		}
		results, ok := asSlice(p["results"])
		if !ok {
			if _, counted := p["resultsCount"]; counted {
				return noData("polygon returned no aggregates"), nil
			}
			return parsed{}, apperr.NewShapeError("polygon", "missing \"results\" array")
		}
		if len(results) == 0 {
			return noData("polygon returned no aggregates"), nil
		}
		rows := make([]row, len(results))
		for i, rec := range results {
			obj, _ := asObject(rec)
			rows[i] = row{index: i, date: obj["t"], open: obj["o"], high: obj["h"], low: obj["l"], close: obj["c"], volume: obj["v"]}
		}
		return parsed{rows: rows}, nil
	default:
		return parsed{}, apperr.NewShapeError("polygon", "unsupported payload %T", payload)
	}
}
