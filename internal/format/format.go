// Package format renders amounts and dates for people.
package format

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/model"
)

var printer = message.NewPrinter(language.English)

// Euro formats d as a euro amount with two decimals and thousands
// separators, e.g. "€1,234.50" or "-€3.00".
func Euro(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "€" + printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Amount formats a model or plain decimal as euros. Other values format as "".
func Amount(v any) string {
	switch d := v.(type) {
	case model.Decimal:
		return Euro(d.Value())
	case decimal.Decimal:
		return Euro(d)
	case *decimal.Decimal:
		if d == nil {
			return ""
		}
		return Euro(*d)
	default:
		return ""
	}
}

// Date shows a backend date as "Jan 2, 2006". Unparseable dates are
// returned as they came.
func Date(s string) string {
	t, err := aggregate.ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// Month shows a "2006-01" bucket key as "Jan 2006".
func Month(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}
