package pricing

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders prices for display: locale-grouped digits followed
// by the currency symbol ("6 000 ₽", "19.99 USD").
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter creates a formatter for the given currency and locale.
// Unknown locales fall back to Russian, the marketplace's home locale.
func NewFormatter(currency, lang string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Russian
	}

	symbol := strings.ToUpper(currency)
	if symbol == "RUB" {
		symbol = "₽"
	}

	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}
}

// Format renders a price value with its currency symbol. Whole values
// drop the fraction entirely.
func (f *Formatter) Format(value float64) string {
	var num string
	if value == float64(int64(value)) {
		num = f.printer.Sprint(number.Decimal(int64(value)))
	} else {
		num = f.printer.Sprint(number.Decimal(value, number.MaxFractionDigits(2), number.MinFractionDigits(2)))
	}
	return fmt.Sprintf("%s %s", num, f.symbol)
}
