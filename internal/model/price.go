package model

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes every formatted price.
const CurrencySymbol = "₱"

var (
	priceCleaner = strings.NewReplacer(CurrencySymbol, "", ",", "")
	digitRe      = regexp.MustCompile(`\d`)
	printer      = message.NewPrinter(language.English)
)

// ParsePrice coerces a currency-formatted string like "₱1,234.50" into a
// decimal. It reports false when the text is empty or not numeric.
func ParsePrice(text string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(priceCleaner.Replace(text))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatPrice renders a value with the currency symbol, thousands grouping,
// and two decimals.
// The value is never converted to a float.
func FormatPrice(d decimal.Decimal) string {
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	return sign + CurrencySymbol + groupDigits(whole) + "." + frac
}

// groupDigits inserts thousands separators into a run of digits.
func groupDigits(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return printer.Sprintf("%d", n)
	}
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// FormatPriceText normalizes a textual price. Text already carrying the
// symbol is kept, numeric text gets the symbol, anything else passes through.
func FormatPriceText(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return ""
	case strings.HasPrefix(text, CurrencySymbol):
		return text
	case digitRe.MatchString(text):
		return CurrencySymbol + text
	default:
		return text
	}
}
