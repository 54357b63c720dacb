package posfile

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyReplacer = strings.NewReplacer(
	"฿", "",
	"$", "",
	"THB", "",
	",", "",
	"\u00a0", "",
	" ", "",
)

// CleanNumber coerces a raw cell into a decimal. It strips currency symbols,
// thousands separators and whitespace, and accepts accounting-style
// parenthesized negatives. A value that cannot be parsed yields zero and
// ok=false; callers record the warning so one bad cell never aborts an
// import.
func CleanNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero, true
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencyReplacer.Replace(s)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
