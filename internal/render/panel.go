package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"StockDash/internal/domain/models"
)

// Box is one bordered cell of the summary panel.
type Box struct {
	Kind  string `json:"kind"`
	Color string `json:"color"`
	Rows  []Row  `json:"rows"`
}

type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Panel is the formatted summary shown beside the chart.
type Panel struct {
	Currency     string `json:"currency"`
	CurrentPrice string `json:"current_price"`
	CurrentDate  string `json:"current_date"`
	FXRate       string `json:"fx_rate,omitempty"`
	Boxes        []Box  `json:"boxes"`
}

var currencySymbols = map[string]string{
	"USD": "$",
	"KRW": "₩",
	"EUR": "€",
	"JPY": "¥",
	"GBP": "£",
}

// Money formats v with a currency symbol and thousands separators,
// e.g. ₩143,000.00. Unknown codes are used as a prefix.
func Money(v float64, currency string) string {
	cur := strings.ToUpper(currency)
	sym, ok := currencySymbols[cur]
	if !ok {
		sym = cur + " "
	}
	if v < 0 {
		return "-" + sym + humanize.FormatFloat("#,###.##", -v)
	}
	return sym + humanize.FormatFloat("#,###.##", v)
}

// Volume formats a share count with separators.
func Volume(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// Percent formats a change with an explicit sign.
func Percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// BuildPanel formats s for display in currency. fxRate is shown only in
// converted mode.
func BuildPanel(s models.Summary, currentDate time.Time, currency string, mode models.CurrencyMode, base string, fxRate float64) Panel {
	price := func(v float64) string { return fmt.Sprintf("%.2f %s", v, currency) }

	p := Panel{
		Currency:     currency,
		CurrentPrice: Money(s.CurrentPrice, currency),
		CurrentDate:  currentDate.Format(dateLayout),
		Boxes: []Box{
			{Kind: "min", Color: minColor, Rows: []Row{
				{"Low", price(s.MinClose)},
				{"Date", s.MinCloseDate.Format(dateLayout)},
				{"Volume", Volume(s.MinCloseVolume)},
			}},
			{Kind: "max", Color: maxColor, Rows: []Row{
				{"High", price(s.MaxClose)},
				{"Date", s.MaxCloseDate.Format(dateLayout)},
				{"Volume", Volume(s.MaxCloseVolume)},
			}},
			{Kind: "current", Color: lineColor, Rows: []Row{
				{"Current", price(s.CurrentPrice)},
				{"From low", Percent(s.PctChangeFromMin)},
				{"From high", Percent(s.PctChangeFromMax)},
			}},
		},
	}
	if mode == models.Converted {
		p.FXRate = fmt.Sprintf("%s → %s %s", base, currency, Money(fxRate, currency))
	}
	return p
}
