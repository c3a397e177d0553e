package model

import "time"

// Overview is the company profile subset read from Alpha Vantage OVERVIEW.
type Overview struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"market_cap"`
	ROE       Value   `json:"roe"` // percent, trailing twelve months
}

// ROEScreen lists the companies whose ROE meets MinROE, best first.
type ROEScreen struct {
	MinROE    float64    `json:"min_roe"`
	Sector    string     `json:"sector,omitempty"`
	Matches   []Overview `json:"matches"`
	Skipped   []string   `json:"skipped,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// CashFlowYear is one annual report. FreeCashFlow is operating cash flow
// minus capital expenditures.
type CashFlowYear struct {
	FiscalDateEnding    string  `json:"fiscal_date_ending"`
	OperatingCashflow   float64 `json:"operating_cashflow"`
	CapitalExpenditures float64 `json:"capital_expenditures"`
	FreeCashFlow        float64 `json:"free_cash_flow"`
}

// CashFlow holds a symbol's annual reports, latest first.
type CashFlow struct {
	Symbol    string         `json:"symbol"`
	Years     []CashFlowYear `json:"years"`
	Dropped   int            `json:"dropped"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// Margins holds trailing-twelve-month profitability in percent.
type Margins struct {
	Symbol          string    `json:"symbol"`
	OperatingMargin Value     `json:"operating_margin"`
	NetMargin       Value     `json:"net_margin"`
	RevenueGrowth   Value     `json:"revenue_growth"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// IndexQuote is the latest level of one market index.
type IndexQuote struct {
	Key           string  `json:"key"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	TradingDay    string  `json:"trading_day,omitempty"`
}

// IndicesReport is the market overview. Failed names the indices whose
// quote could not be read.
type IndicesReport struct {
	Quotes    []IndexQuote `json:"quotes"`
	Failed    []string     `json:"failed,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Company is one row of an uploaded company list.
type Company struct {
	Symbol             string  `json:"symbol"`
	Name               string  `json:"name"`
	Price              float64 `json:"price"`
	MarketCap          float64 `json:"market_cap"`
	LastAnnualDividend float64 `json:"last_annual_dividend"`
	IsETF              bool    `json:"is_etf"`
	IsFund             bool    `json:"is_fund"`
	IsActivelyTrading  bool    `json:"is_actively_trading"`
}
