package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/plati-tools/platiscout/internal/types"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer produces the standalone HTML offer report.
type Renderer struct {
	templates *template.Template
}

// PageData is the root template context for one rendered report.
type PageData struct {
	Result      *types.RankedResultSet
	GeneratedAt time.Time
}

// NewRenderer parses the embedded report templates
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatPercent": formatPercent,
		"formatPrice":   formatPrice,
		"add":           func(a, b int) int { return a + b },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render writes the report for one result set to the writer.
func (r *Renderer) Render(w io.Writer, result *types.RankedResultSet) error {
	data := PageData{Result: result, GeneratedAt: time.Now()}
	if err := r.templates.ExecuteTemplate(w, "report.html", data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteFile renders the report into a file, creating or truncating it.
func (r *Renderer) WriteFile(path string, result *types.RankedResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return r.Render(f, result)
}

// formatPercent renders a 0..1 ratio as a percentage for display
func formatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// formatPrice falls back to a plain rendering when the locale-aware
// formatted string is absent.
func formatPrice(formatted string, price float64, currency string) string {
	if formatted != "" {
		return formatted
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}
