// Package render turns a display series and its summary into a Plotly
// figure, a summary panel and the dashboard HTML page.
package render

import (
	"encoding/json"
	"fmt"

	"StockDash/internal/domain/models"
)

// Style selects the price trace.
type Style string

const (
	StyleLine        Style = "line"
	StyleCandlestick Style = "candlestick"
)

const (
	dateLayout = "2006-01-02"

	lineColor   = "blue"
	volumeColor = "rgba(255, 99, 71, 0.6)"
	minColor    = "red"
	maxColor    = "green"

	darkBackground = "#111111"
	darkFont       = "#f2f5fa"
	darkGrid       = "#283442"
)

// Figure is a Plotly figure as accepted by Plotly.newPlot.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

type Trace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	X             []string  `json:"x"`
	Y             []float64 `json:"y,omitempty"`
	Open          []float64 `json:"open,omitempty"`
	High          []float64 `json:"high,omitempty"`
	Low           []float64 `json:"low,omitempty"`
	Close         []float64 `json:"close,omitempty"`
	Mode          string    `json:"mode,omitempty"`
	Line          *Line     `json:"line,omitempty"`
	Marker        *Marker   `json:"marker,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
	XAxis         string    `json:"xaxis,omitempty"`
	YAxis         string    `json:"yaxis,omitempty"`
}

type Line struct {
	Color string `json:"color,omitempty"`
	Width int    `json:"width,omitempty"`
	Dash  string `json:"dash,omitempty"`
}

type Marker struct {
	Color string `json:"color,omitempty"`
}

type Font struct {
	Color string `json:"color,omitempty"`
	Size  int    `json:"size,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

type Axis struct {
	Title       *Title       `json:"title,omitempty"`
	Domain      []float64    `json:"domain,omitempty"`
	Anchor      string       `json:"anchor,omitempty"`
	Matches     string       `json:"matches,omitempty"`
	Type        string       `json:"type,omitempty"`
	GridColor   string       `json:"gridcolor,omitempty"`
	ShowTicks   *bool        `json:"showticklabels,omitempty"`
	RangeSlider *RangeSlider `json:"rangeslider,omitempty"`
}

// Shape is a layout shape. Only horizontal reference lines are drawn.
type Shape struct {
	Type string  `json:"type"`
	Name string  `json:"name,omitempty"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   string  `json:"x0"`
	X1   string  `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

type Annotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XAnchor   string  `json:"xanchor"`
	YAnchor   string  `json:"yanchor"`
	ShowArrow bool    `json:"showarrow"`
	Font      *Font   `json:"font,omitempty"`
}

type Layout struct {
	Title        Title        `json:"title"`
	PaperBGColor string       `json:"paper_bgcolor"`
	PlotBGColor  string       `json:"plot_bgcolor"`
	Font         Font         `json:"font"`
	Height       int          `json:"height,omitempty"`
	ShowLegend   bool         `json:"showlegend"`
	XAxis        Axis         `json:"xaxis"`
	YAxis        Axis         `json:"yaxis"`
	XAxis2       Axis         `json:"xaxis2"`
	YAxis2       Axis         `json:"yaxis2"`
	Shapes       []Shape      `json:"shapes"`
	Annotations  []Annotation `json:"annotations"`
}

// Rows of the two-panel grid; 0.1 vertical spacing between them.
var (
	priceDomain  = []float64{0.55, 1}
	volumeDomain = []float64{0, 0.45}
)

// BuildFigure lays out the price panel (row 1), the volume panel (row 2)
// and dashed reference lines at the summary's min and max close.
// display must be non-empty.
func BuildFigure(symbol string, display models.Series, s models.Summary, style Style) Figure {
	dates := make([]string, len(display))
	closes := make([]float64, len(display))
	volumes := make([]float64, len(display))
	for i, b := range display {
		dates[i] = b.Time.Format(dateLayout)
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	var price Trace
	switch style {
	case StyleCandlestick:
		price = Trace{Type: "candlestick", Name: "Candlesticks", X: dates, Close: closes}
		price.Open = make([]float64, len(display))
		price.High = make([]float64, len(display))
		price.Low = make([]float64, len(display))
		for i, b := range display {
			price.Open[i], price.High[i], price.Low[i] = b.Open, b.High, b.Low
		}
	default:
		price = Trace{Type: "scatter", Name: "Line", Mode: "lines", X: dates, Y: closes, Line: &Line{Color: lineColor}}
	}
	price.XAxis, price.YAxis = "x", "y"

	volume := Trace{
		Type:          "bar",
		Name:          "Volume",
		X:             dates,
		Y:             volumes,
		Marker:        &Marker{Color: volumeColor},
		HoverTemplate: "%{x}<br>Volume: %{y}",
		XAxis:         "x2",
		YAxis:         "y2",
	}

	first, last := dates[0], dates[len(dates)-1]
	title := fmt.Sprintf("%s chart", symbol)
	hide := false

	return Figure{
		Data: []Trace{price, volume},
		Layout: Layout{
			Title:        Title{Text: title},
			PaperBGColor: darkBackground,
			PlotBGColor:  darkBackground,
			Font:         Font{Color: darkFont},
			Height:       720,
			ShowLegend:   true,
			XAxis: Axis{
				Domain:      []float64{0, 1},
				Anchor:      "y",
				Matches:     "x2",
				Type:        "date",
				GridColor:   darkGrid,
				ShowTicks:   &hide,
				RangeSlider: &RangeSlider{Visible: false},
			},
			YAxis: Axis{Title: &Title{Text: "Price"}, Domain: priceDomain, Anchor: "x", GridColor: darkGrid},
			XAxis2: Axis{
				Title:       &Title{Text: "Date"},
				Domain:      []float64{0, 1},
				Anchor:      "y2",
				Type:        "date",
				GridColor:   darkGrid,
				RangeSlider: &RangeSlider{Visible: true},
			},
			YAxis2: Axis{Domain: volumeDomain, Anchor: "x2", GridColor: darkGrid},
			Shapes: []Shape{
				referenceLine("Min", first, last, s.MinClose, minColor),
				referenceLine("Max", first, last, s.MaxClose, maxColor),
			},
			Annotations: []Annotation{
				subplotTitle(title, priceDomain[1]),
				subplotTitle("Volume", volumeDomain[1]),
			},
		},
	}
}

func referenceLine(name, x0, x1 string, y float64, color string) Shape {
	return Shape{
		Type: "line",
		Name: name,
		XRef: "x",
		YRef: "y",
		X0:   x0,
		X1:   x1,
		Y0:   y,
		Y1:   y,
		Line: Line{Color: color, Width: 2, Dash: "dash"},
	}
}

func subplotTitle(text string, top float64) Annotation {
	return Annotation{
		Text:    text,
		XRef:    "paper",
		YRef:    "paper",
		X:       0.5,
		Y:       top,
		XAnchor: "center",
		YAnchor: "bottom",
		Font:    &Font{Size: 16},
	}
}

// JSON encodes the figure for Plotly.newPlot.
func (f Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}
