package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"

	"github.com/go-while/go-salas/internal/routes"
)

//go:embed templates
var embeddedTemplatesFS embed.FS

const (
	layoutTemplate = "base.html"
	errorTemplate  = "error.html"
)

// TemplateSet holds one parsed clone of the layout per page.
// Templates are parsed once at startup so a broken template fails the boot, not a request.
type TemplateSet struct {
	pages map[string]*template.Template
}

// LoadTemplates parses the layout, the error page and every page in the route table.
// An empty dir uses the templates embedded in the binary.
func LoadTemplates(dir string) (*TemplateSet, error) {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embeddedTemplatesFS, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	return ParseTemplates(fsys)
}

// ParseTemplates builds a TemplateSet from fsys, which must contain base.html,
// error.html and the core/*.html page of every route.
func ParseTemplates(fsys fs.FS) (*TemplateSet, error) {
	layout, err := template.New(layoutTemplate).Funcs(templateFuncs()).ParseFS(fsys, layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names := []string{errorTemplate}
	for _, r := range routes.All() {
		names = append(names, r.Template)
	}

	ts := &TemplateSet{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(fsys, name); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		ts.pages[name] = t
	}
	return ts, nil
}

// Execute renders the named page inside the layout.
func (ts *TemplateSet) Execute(name string, data any) ([]byte, error) {
	t, ok := ts.pages[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Has reports whether name was parsed.
func (ts *TemplateSet) Has(name string) bool {
	_, ok := ts.pages[name]
	return ok
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"url": routes.Reverse,
		"static": func(p string) string {
			return path.Join("/static", p)
		},
	}
}
