package web

import (
	"embed"
	"html/template"
	"strings"

	"github.com/example/badstu-booker/internal/domain/booking"
)

//go:embed templates/*.html
var templatesFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"capitalize": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"relative": func(dag string) string { return booking.RelativePrefix + dag },
	}
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}
