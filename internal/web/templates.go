package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"
)

//go:embed templates/*
var templateFS embed.FS

// Presentation handles all view-related logic and template rendering
type Presentation struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// NewPresentation creates a new Presentation layer
func NewPresentation() (*Presentation, error) {
	tmpl, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/*")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Presentation{tmpl: tmpl}, nil
}

// isGlyph tells a literal icon ("📘") from a symbolic icon name ("book").
func isGlyph(icon string) bool {
	if icon == "" {
		return false
	}
	for _, r := range icon {
		if r >= utf8.RuneSelf {
			return true
		}
	}
	return strings.ContainsAny(icon, " ")
}
