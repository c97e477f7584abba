package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/labstack/echo/v4"

	"StockDash/internal/domain/models"
	"StockDash/internal/domain/repository"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData feeds templates/dashboard.html.
type PageData struct {
	Request    models.DashboardRequest
	Lookbacks  []string
	Styles     []string
	Currencies []string
	Panel      *Panel
	Figure     template.JS
	Error      string
	LiveQuery  string
}

// NewPageData prepares the form options for req. fig and panel may be nil
// when the page only reports an error.
func NewPageData(req models.DashboardRequest, currencies []string, fig *Figure, panel *Panel) (*PageData, error) {
	d := &PageData{
		Request:    req,
		Styles:     []string{string(StyleLine), string(StyleCandlestick)},
		Currencies: currencies,
		Panel:      panel,
	}
	for _, lb := range repository.Lookbacks() {
		d.Lookbacks = append(d.Lookbacks, string(lb))
	}
	if fig != nil {
		b, err := fig.JSON()
		if err != nil {
			return nil, fmt.Errorf("encode figure: %w", err)
		}
		d.Figure = template.JS(b)
	}
	d.LiveQuery = url.Values{
		"symbol":   {req.Symbol},
		"lookback": {req.Lookback},
		"chart":    {req.ChartStyle},
		"currency": {req.Currency},
	}.Encode()
	return d, nil
}

// Templates implements echo.Renderer over the embedded pages.
type Templates struct {
	t *template.Template
}

var _ echo.Renderer = (*Templates)(nil)

func NewTemplates() (*Templates, error) {
	funcs := template.FuncMap{
		"selected": func(a, b string) bool { return a == b },
	}
	t, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Templates{t: t}, nil
}

func (t *Templates) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.t.ExecuteTemplate(w, name, data)
}
