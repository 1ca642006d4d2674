package http

import (
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// loadTemplates parses the page templates from dir, or the embedded copies
// when dir is empty.
func loadTemplates(dir string) (*template.Template, error) {
	tmpl := template.New("")
	if dir == "" {
		parsed, err := tmpl.ParseFS(embeddedTemplates, "templates/*.html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
		}
		return parsed, nil
	}

	parsed, err := tmpl.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates in %s: %w", dir, err)
	}
	return parsed, nil
}
