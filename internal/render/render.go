// Package render executes the embedded HTML pages.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"time"

	"github.com/kjstillabower/weather-compare/internal/models"
	"github.com/kjstillabower/weather-compare/internal/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageHome       = "home"
	PageResults    = "results"
	PageComparison = "comparison_results"
	PageError      = "error"
)

var pages = []string{PageHome, PageResults, PageComparison, PageError}

// ErrorPage is the context for the error page.
type ErrorPage struct {
	Status    int
	Title     string
	Message   string
	RequestID string
}

// Renderer holds one parsed template set per page, each sharing the base layout.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page. It fails only when an embedded template is broken.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.templates[page] = t
	}
	return r, nil
}

// Render executes page into a buffer and writes it with status. Nothing is
// written to w when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.templates[page]
	if !ok {
		observability.RenderErrorsTotal.WithLabelValues(page).Inc()
		return fmt.Errorf("render: unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		observability.RenderErrorsTotal.WithLabelValues(page).Inc()
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"longDate":    func(t time.Time) string { return t.Format("Monday, January 2, 2006") },
	"isoDate":     func(t time.Time) string { return t.Format("2006-01-02") },
	"reading":     formatReading,
	"temperature": func(r models.Reading, letter string) string { return formatReading(r, tempUnit(letter)) },
	"windUnit":    windUnit,
	"summary":     summary,
}

// formatReading appends suffix to a valid reading. Unavailable readings carry no unit.
func formatReading(r models.Reading, suffix string) string {
	if !r.Valid {
		return models.Unavailable
	}
	return r.String() + suffix
}

// tempUnit is the suffix for a temperature. Kelvin takes no degree sign.
func tempUnit(letter string) string {
	if letter == "K" {
		return " K"
	}
	return "°" + letter
}

func windUnit(units string) string {
	if units == "imperial" {
		return " mph"
	}
	return " m/s"
}

// summary describes how the first city relates to the second. Readings that
// are unavailable for either city are skipped.
func summary(c models.Comparison) []string {
	var out []string
	a, b := c.City1.City, c.City2.City
	if line := relate(a, b, c.City1.Temperature, c.City2.Temperature, tempUnit(c.UnitsLetter), "warmer", "colder", "the same temperature"); line != "" {
		out = append(out, line)
	}
	if line := relate(a, b, c.City1.Humidity, c.City2.Humidity, "%", "more humid", "less humid", "the same humidity"); line != "" {
		out = append(out, line)
	}
	if line := relate(a, b, c.City1.WindSpeed, c.City2.WindSpeed, windUnit(c.Units), "windier", "calmer", "the same wind speed"); line != "" {
		out = append(out, line)
	}
	return out
}

func relate(a, b string, x, y models.Reading, unit, more, less, same string) string {
	if !x.Valid || !y.Valid {
		return ""
	}
	d := math.Round((x.Value-y.Value)*100) / 100
	switch {
	case d > 0:
		return fmt.Sprintf("%s is %s%s %s than %s.", a, models.Available(d), unit, more, b)
	case d < 0:
		return fmt.Sprintf("%s is %s%s %s than %s.", a, models.Available(-d), unit, less, b)
	default:
		return fmt.Sprintf("%s and %s have %s.", a, b, same)
	}
}
