package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places monetary amounts are rounded to
const MoneyScale int32 = 2

// Input amounts (quantities, unit prices, tax rates) are stored as DECIMAL(18,4)
// and derived money as DECIMAL(18,2).
const (
	AmountIntegerDigits  = 14
	AmountFractionDigits = 4
	MoneyIntegerDigits   = 16
)

var maxMoney = decimal.New(1, MoneyIntegerDigits)

// RoundMoney rounds half away from zero to MoneyScale places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// FitsMoney reports whether d fits a DECIMAL(18,2) column
func FitsMoney(d decimal.Decimal) bool {
	return d.Abs().LessThan(maxMoney)
}

// ParseAmount parses a plain decimal such as "12", "-0.5" or "3.1250".
// Exponent notation is rejected, as is anything with more than
// AmountIntegerDigits integer or AmountFractionDigits fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" || !allDigits(intPart) || !allDigits(fracPart) {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}

	intPart = strings.TrimLeft(intPart, "0")
	fracPart = strings.TrimRight(fracPart, "0")
	if len(intPart) > AmountIntegerDigits {
		return decimal.Zero, fmt.Errorf("%q has more than %d integer digits", raw, AmountIntegerDigits)
	}
	if len(fracPart) > AmountFractionDigits {
		return decimal.Zero, fmt.Errorf("%q has more than %d decimal places", raw, AmountFractionDigits)
	}

	if intPart == "" {
		intPart = "0"
	}
	normalized := sign + intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}
	return decimal.NewFromString(normalized)
}

// ParseDecimalOr parses raw with ParseAmount, returning def when raw is blank
func ParseDecimalOr(raw string, def decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return ParseAmount(raw)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
