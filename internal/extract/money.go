package extract

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TotalWithTax returns amount plus tax at the given percentage rate,
// rounded to cents. The receipt creation flow stores the pre-tax value as
// the amount and this result as the total.
func TotalWithTax(amount, taxRate float64) (float64, error) {
	if amount < 0 || taxRate < 0 {
		return 0, fmt.Errorf("amount and tax rate cannot be negative")
	}

	a := decimal.NewFromFloat(amount)
	rate := decimal.NewFromFloat(taxRate).Div(decimal.NewFromInt(100))
	total, _ := a.Add(a.Mul(rate)).Round(2).Float64()
	return total, nil
}
