package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/jonathan/resume-layout/internal/blocks"
)

//go:embed resume.html.tmpl
var htmlTemplate string

var (
	tmplOnce sync.Once
	tmpl     *template.Template
	tmplErr  error
)

// HTMLPage is one page of the paged HTML. A non-zero Shrink scales the
// page content down uniformly.
type HTMLPage struct {
	Blocks []blocks.Block
	Shrink float64
}

// htmlData is passed to the HTML template
type htmlData struct {
	Style     cssStyle
	FontFaces template.CSS
	Measure   bool
	Pages     []HTMLPage
}

// cssStyle is Style expressed in CSS units
type cssStyle struct {
	PageWidth     string
	PageHeight    string
	PaddingX      string
	PaddingTop    string
	PaddingBottom string
	FontSize      string
	LineHeight    string
	SectionGap    string
	HeaderGap     string
	SkillColumns  int
}

func toCSS(st Style) cssStyle {
	mm := func(v float64) string { return fmt.Sprintf("%.3fmm", v) }
	return cssStyle{
		PageWidth:     mm(st.PageWidth),
		PageHeight:    mm(st.PageHeight),
		PaddingX:      mm(st.PaddingX),
		PaddingTop:    mm(st.PaddingTop),
		PaddingBottom: mm(st.PaddingBottom),
		FontSize:      mm(st.FontSize),
		LineHeight:    fmt.Sprintf("%.3f", st.LineHeight),
		SectionGap:    mm(st.SectionGap),
		HeaderGap:     mm(st.HeaderGap),
		SkillColumns:  st.SkillColumns,
	}
}

func loadTemplate() (*template.Template, error) {
	tmplOnce.Do(func() {
		tmpl, tmplErr = template.New("resume").Funcs(template.FuncMap{
			"upper":    strings.ToUpper,
			"contacts": func(h *blocks.Header) []string { return h.ContactItems() },
		}).Parse(htmlTemplate)
	})
	if tmplErr != nil {
		return nil, &TemplateError{Message: "failed to parse template", Cause: tmplErr}
	}
	return tmpl, nil
}

// MeasureHTML renders the whole block sequence as one unpaginated flow with
// unconstrained height and hidden visibility. Each block carries a
// data-index attribute matching its position.
func MeasureHTML(bs []blocks.Block, st Style) (string, error) {
	return execute(htmlData{Style: toCSS(st), Measure: true, Pages: []HTMLPage{{Blocks: bs}}})
}

// PagedHTML renders one fixed-size .page element per page.
func PagedHTML(pages []HTMLPage, st Style) (string, error) {
	return execute(htmlData{Style: toCSS(st), Pages: pages})
}

func execute(data htmlData) (string, error) {
	t, err := loadTemplate()
	if err != nil {
		return "", err
	}
	data.FontFaces = FontFaceCSS()
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return sb.String(), nil
}
