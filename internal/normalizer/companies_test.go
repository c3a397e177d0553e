package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "MarketPulse/internal/errors"
)

const companiesCSV = `symbol,companyName,price,marketCap,lastAnnualDividend,isEtf,isFund,isActivelyTrading,exchange
KO,Coca-Cola Company,60.12,"260,000,000,000",1.84,False,False,True,NYSE
spy,SPDR S&P 500 ETF Trust,470.5,430000000000,6.3,True,False,True,AMEX
BAD,Broken Row,n/a,1000,0,False,False,True,NASDAQ
,No Symbol,10,1000,0,False,False,True,NASDAQ
ODD,Odd Flags,10,1000,0,maybe,False,True,NASDAQ
`

func TestParseCompanies(t *testing.T) {
	list, err := ParseCompanies(strings.NewReader(companiesCSV))
	require.NoError(t, err)
	require.Len(t, list.Companies, 2)

	ko := list.Companies[0]
	assert.Equal(t, "KO", ko.Symbol)
	assert.Equal(t, "Coca-Cola Company", ko.Name)
	assert.InDelta(t, 60.12, ko.Price, 1e-9)
	assert.InDelta(t, 2.6e11, ko.MarketCap, 1)
	assert.False(t, ko.IsETF)
	assert.True(t, ko.IsActivelyTrading)

	assert.Equal(t, "SPY", list.Companies[1].Symbol)
	assert.True(t, list.Companies[1].IsETF)

	require.Len(t, list.Dropped, 3)
	assert.Equal(t, "price", list.Dropped[0].Field)
	assert.Equal(t, "symbol", list.Dropped[1].Field)
	assert.Equal(t, "isEtf", list.Dropped[2].Field)
	assert.Equal(t, apperr.ErrCodePartialRowDropped, apperr.GetCode(list.Dropped[0]))
}

func TestParseCompaniesMissingColumns(t *testing.T) {
	list, err := ParseCompanies(strings.NewReader("symbol,price\nKO,60\n"))
	require.NoError(t, err)
	assert.Empty(t, list.Companies)
	require.Len(t, list.Dropped, 1)
	assert.Equal(t, "marketCap", list.Dropped[0].Field)

	list, err = ParseCompanies(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, list.Companies)
}
