package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// adminPages are rendered inside layout.html; every other template stands alone.
var adminPages = []string{
	"dashboard.html",
	"users.html",
	"subscriptions.html",
	"analytics.html",
	"audit_logs.html",
	"page_visits.html",
	"system.html",
	"e2e_tests.html",
	"support.html",
	"support_thread.html",
}

var standalonePages = []string{
	"login.html",
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a standalone template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), name)
}

// parsePages parses every page once at startup. Admin pages share the layout.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(adminPages)+len(standalonePages))
	for _, name := range adminPages {
		tmpl, err := template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	for _, name := range standalonePages {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// renderPage executes into a buffer first so a template error never leaves a half-written page.
func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = buf.WriteTo(w)
}

var templateFuncs = template.FuncMap{
	"formatTime":  formatTime,
	"money":       money,
	"percent":     percent,
	"add":         func(a, b int) int { return a + b },
	"sub":         func(a, b int) int { return a - b },
	"float":       func(i int) float64 { return float64(i) },
	"title":       titleCase,
	"barWidth":    barWidth,
	"statusClass": statusClass,
}

func formatTime(t apiclient.Time) string {
	return t.Format("2006-01-02 15:04")
}

func money(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// statusClass and titleCase take any so named string types (users.Status) work in templates.
func statusClass(v any) string {
	s := fmt.Sprint(v)
	return "status-" + strings.ToLower(strings.ReplaceAll(s, "_", "-"))
}

func titleCase(v any) string {
	s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// barWidth scales v against peak to a CSS percentage for the inline bar charts.
func barWidth(v, peak float64) string {
	if peak <= 0 || v <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", v/peak*100)
}
