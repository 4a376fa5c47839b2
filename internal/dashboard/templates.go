package dashboard

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// parseTemplates parses all embedded page and fragment templates.
func parseTemplates() (*template.Template, error) {
	t, err := template.New("envdash").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}
