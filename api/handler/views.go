package handler

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/Pilar-d/pendientes/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views holds the parsed page templates.
type Views struct {
	tmpl *template.Template
}

func NewViews() (*Views, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format(domain.DateLayout) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Views{tmpl: tmpl}, nil
}

// MustViews panics when the embedded templates do not parse.
func MustViews() *Views {
	v, err := NewViews()
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Views) Render(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type page struct {
	Title    string
	Username string
	Notices  []Notice
}

type authPage struct {
	page
	Action   string
	Alt      string
	AltLabel string
	Submit   string
	Login    string
}

type sortOption struct {
	Value    domain.SortOrder
	Label    string
	Selected bool
}

type taskRow struct {
	domain.Task
	Overdue bool
}

type indexPage struct {
	page
	Query string
	Sorts []sortOption
	Tasks []taskRow
	Today string
}

type editPage struct {
	page
	Task *domain.Task
}

func sortOptions(selected domain.SortOrder) []sortOption {
	options := []sortOption{
		{Value: domain.SortRecent, Label: "Más recientes"},
		{Value: domain.SortOldest, Label: "Más antiguas"},
		{Value: domain.SortTitle, Label: "Título (A-Z)"},
	}
	for i := range options {
		options[i].Selected = options[i].Value == selected
	}
	return options
}
