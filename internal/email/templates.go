package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttpl "text/template"
)

//go:embed templates/*
var templateFS embed.FS

const (
	TemplateVerify = "verify_email"
	TemplateReset  = "reset_password"
)

type Vars struct {
	UserEmail string
	Link      string
	TTL       string
	App       string
}

type Templates struct {
	html map[string]*template.Template
	text map[string]*texttpl.Template
}

// LoadTemplates parsea los templates embebidos (html + txt por nombre).
func LoadTemplates() (*Templates, error) {
	t := &Templates{html: map[string]*template.Template{}, text: map[string]*texttpl.Template{}}
	for _, name := range []string{TemplateVerify, TemplateReset} {
		h, err := template.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("template %s.html: %w", name, err)
		}
		x, err := texttpl.ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("template %s.txt: %w", name, err)
		}
		t.html[name] = h
		t.text[name] = x
	}
	return t, nil
}

// Render devuelve (html, text) para el template pedido.
func (t *Templates) Render(name string, v Vars) (string, string, error) {
	h, ok := t.html[name]
	if !ok {
		return "", "", fmt.Errorf("template desconocido: %s", name)
	}
	var hb, tb bytes.Buffer
	if err := h.Execute(&hb, v); err != nil {
		return "", "", err
	}
	if err := t.text[name].Execute(&tb, v); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
