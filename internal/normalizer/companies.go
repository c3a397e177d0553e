package normalizer

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// companyRecord mirrors the columns of a company list export. Values are
// read as text and coerced afterwards so one bad cell drops one row.
type companyRecord struct {
	Symbol             string `csv:"symbol"`
	CompanyName        string `csv:"companyName"`
	Price              string `csv:"price"`
	MarketCap          string `csv:"marketCap"`
	LastAnnualDividend string `csv:"lastAnnualDividend"`
	IsEtf              string `csv:"isEtf"`
	IsFund             string `csv:"isFund"`
	IsActivelyTrading  string `csv:"isActivelyTrading"`
}

// CompanyList is the outcome of ParseCompanies.
type CompanyList struct {
	Companies []model.Company
	Dropped   []RowError
}

// ParseCompanies reads a company list CSV. A row without a symbol, with a
// number that does not coerce, or with a flag that is not a boolean is
// dropped; the rest are kept in file order.
func ParseCompanies(r io.Reader) (*CompanyList, error) {
	var records []*companyRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return &CompanyList{}, nil
		}
		return nil, apperr.Wrap(apperr.ErrCodeInvalidRequest, "read company csv", err)
	}

	out := &CompanyList{Companies: make([]model.Company, 0, len(records))}
	for i, rec := range records {
		c, rowErr := rec.company(i)
		if rowErr != nil {
			out.Dropped = append(out.Dropped, *rowErr)
			continue
		}
		out.Companies = append(out.Companies, c)
	}
	return out, nil
}

func (rec *companyRecord) company(i int) (model.Company, *RowError) {
	fail := func(field, reason string) *RowError {
		return &RowError{Index: i, Key: rec.Symbol, Field: field, Reason: reason}
	}
	c := model.Company{
		Symbol: strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Name:   strings.TrimSpace(rec.CompanyName),
	}
	if c.Symbol == "" {
		return c, fail("symbol", "missing")
	}

	var ok bool
	if c.Price, ok = Float(rec.Price); !ok {
		return c, fail("price", "not a number")
	}
	if c.MarketCap, ok = Float(rec.MarketCap); !ok {
		return c, fail("marketCap", "not a number")
	}
	if c.LastAnnualDividend, ok = Float(rec.LastAnnualDividend); !ok {
		return c, fail("lastAnnualDividend", "not a number")
	}

	var err error
	if c.IsETF, err = strconv.ParseBool(strings.TrimSpace(rec.IsEtf)); err != nil {
		return c, fail("isEtf", "not a boolean")
	}
	if c.IsFund, err = strconv.ParseBool(strings.TrimSpace(rec.IsFund)); err != nil {
		return c, fail("isFund", "not a boolean")
	}
	if c.IsActivelyTrading, err = strconv.ParseBool(strings.TrimSpace(rec.IsActivelyTrading)); err != nil {
		return c, fail("isActivelyTrading", "not a boolean")
	}
	return c, nil
}
