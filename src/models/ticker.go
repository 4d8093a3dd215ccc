package models

import (
	"github.com/shopspring/decimal"
)

// MTickerItem is a quote snapshot.
type MTickerItem struct {
	Symbol    string  `json:"symbol"`
	Pair      string  `json:"pair"`
	Price     MPrice  `json:"price"`
	Change    float64 `json:"change"`
	Volume24h float64 `json:"volume24h"`
	High24h   float64 `json:"high24h"`
	Low24h    float64 `json:"low24h"`
}

// MPrice is a decimal that keeps the precision chosen by its producer and is
// serialized as a fixed-point string ("43250.00").
type MPrice struct {
	decimal.Decimal
	Places int32
}

func NewPrice(v float64, places int32) MPrice {
	return MPrice{Decimal: decimal.NewFromFloat(v).Round(places), Places: places}
}

func (p MPrice) String() string {
	return p.Decimal.StringFixed(p.Places)
}

func (p MPrice) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts quoted or bare numbers and infers Places from the input.
func (p *MPrice) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	p.Decimal = d
	p.Places = 0
	if exp := d.Exponent(); exp < 0 {
		p.Places = -exp
	}
	return nil
}
