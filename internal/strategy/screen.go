package strategy

import "MarketPulse/internal/model"

// Company screen thresholds.
const (
	MinCompanyMarketCap = 1_000_000_000
	MinCompanyPrice     = 5
)

// FilterCompanies keeps actively traded operating companies worth more than
// MinCompanyMarketCap, priced above MinCompanyPrice and paying a dividend.
// ETFs and funds are excluded. Order is preserved.
func FilterCompanies(companies []model.Company) []model.Company {
	out := make([]model.Company, 0, len(companies))
	for _, c := range companies {
		if c.MarketCap > MinCompanyMarketCap &&
			c.Price > MinCompanyPrice &&
			c.LastAnnualDividend > 0 &&
			!c.IsETF && !c.IsFund && c.IsActivelyTrading {
			out = append(out, c)
		}
	}
	return out
}
