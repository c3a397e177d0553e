package strategy

import (
	"testing"

	"MarketPulse/internal/model"
)

func TestFilterCompanies(t *testing.T) {
	good := model.Company{Symbol: "KO", Price: 60, MarketCap: 2.6e11, LastAnnualDividend: 1.84, IsActivelyTrading: true}
	cases := map[string]func(c *model.Company){
		"small cap":   func(c *model.Company) { c.MarketCap = 1_000_000_000 },
		"penny price": func(c *model.Company) { c.Price = 5 },
		"no dividend": func(c *model.Company) { c.LastAnnualDividend = 0 },
		"etf":         func(c *model.Company) { c.IsETF = true },
		"fund":        func(c *model.Company) { c.IsFund = true },
		"not trading": func(c *model.Company) { c.IsActivelyTrading = false },
	}

	in := []model.Company{good}
	for name, mutate := range cases {
		c := good
		c.Symbol = name
		mutate(&c)
		in = append(in, c)
	}
	second := good
	second.Symbol = "PEP"
	in = append(in, second)

	got := FilterCompanies(in)
	if len(got) != 2 || got[0].Symbol != "KO" || got[1].Symbol != "PEP" {
		t.Fatalf("expected [KO PEP], got %+v", got)
	}
	if out := FilterCompanies(nil); len(out) != 0 {
		t.Errorf("expected no companies, got %v", out)
	}
}
