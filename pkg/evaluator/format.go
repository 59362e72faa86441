package evaluator

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MaxFractionDigits caps the fraction digits FormatNumber shows when the
// caller does not choose a count. It is also the largest count a caller
// should choose.
const MaxFractionDigits = 15

// Round rounds v to the given number of significant digits, suppressing
// binary floating-point artifacts: Round(0.1+0.2, 15) == 0.3. Negative zero
// becomes zero. Non-finite values are returned unchanged.
func Round(v float64, digits int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	if v == 0 {
		return 0
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', digits, 64), 64)
	if err != nil {
		return v
	}
	if r == 0 {
		return 0
	}
	return r
}

// Canonical renders v as a plain decimal numeral that the tokenizer reads
// back to exactly v. Negative values carry a leading minus sign.
func Canonical(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatNumber renders v for display using locale-aware digit grouping and
// decimal separator. fractionDigits fixes the number of fraction digits; a
// negative value shows as many as the value needs, up to 15. Unknown locales
// fall back to English.
func FormatNumber(v float64, locale string, fractionDigits int) string {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	if fractionDigits < 0 {
		return p.Sprint(number.Decimal(v,
			number.MinFractionDigits(0),
			number.MaxFractionDigits(neededFractionDigits(v)),
		))
	}
	return p.Sprint(number.Decimal(v,
		number.MinFractionDigits(fractionDigits),
		number.MaxFractionDigits(fractionDigits),
	))
}

// neededFractionDigits returns the number of fraction digits in the
// canonical rendering of v, capped at MaxFractionDigits.
func neededFractionDigits(v float64) int {
	s := Canonical(v)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return min(len(s)-i-1, MaxFractionDigits)
}
