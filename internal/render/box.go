package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/resume-layout/internal/blocks"
)

// Align is the horizontal alignment of a text item
type Align int

// Alignments
const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// ItemKind distinguishes text from rules
type ItemKind int

// Item kinds
const (
	ItemText ItemKind = iota
	ItemRule
)

// Colors used by the resume template
const (
	ColorText    = "#000000"
	ColorMuted   = "#4b5563"
	ColorContact = "#374151"
	ColorStack   = "#555555"
	ColorLink    = "#2563eb"
	ColorHeader  = "#333333"
	ColorRule    = "#9ca3af"
)

// Item is one drawable element of a box, positioned relative to the box's
// top-left corner. For text, X is the anchor for Align and Baseline is the
// distance from the box top to the text baseline.
type Item struct {
	Kind     ItemKind
	X        float64
	Y        float64
	Width    float64
	Baseline float64
	Text     string
	Role     FontRole
	Size     float64
	Color    string
	Align    Align
	Stroke   float64
}

// Box is a block laid out at a fixed width with unconstrained height.
type Box struct {
	Block        blocks.Block
	Width        float64
	Height       float64
	MarginTop    float64
	MarginBottom float64
	Items        []Item
}

// Layout lays out a block at the style's content width.
func Layout(b blocks.Block, st Style, ts Typesetter) (Box, error) {
	l := &boxLayout{st: st, ts: ts, width: st.ContentWidth()}
	box := Box{Block: b, Width: l.width}

	switch b.Kind {
	case blocks.KindHeader:
		if b.Header == nil {
			return box, fmt.Errorf("header block without header data")
		}
		l.header(b.Header)
		box.MarginBottom = st.HeaderGap
	case blocks.KindSectionTitle:
		l.text(strings.ToUpper(b.Text), Bold, st.TitleSize, ColorText, AlignLeft, 0, l.width)
		l.rule(st.TitleRule, ColorRule)
		box.MarginBottom = st.TitleGap
	case blocks.KindParagraph:
		l.text(b.Text, Regular, st.FontSize, ColorText, AlignLeft, 0, l.width)
	case blocks.KindEducation:
		if b.Education == nil {
			return box, fmt.Errorf("education block without entry")
		}
		e := b.Education
		l.split(e.Institution, e.Year)
		degree := e.Degree
		if strings.TrimSpace(e.Grade) != "" {
			grade := e.Grade
			if gt := strings.TrimSpace(e.GradeType); gt != "" {
				grade = gt + ": " + grade
			}
			if degree != "" {
				degree += " (" + grade + ")"
			} else {
				degree = grade
			}
		}
		l.text(degree, Regular, st.FontSize, ColorText, AlignLeft, 0, l.width)
		box.MarginBottom = st.EducationGap
	case blocks.KindExperience:
		if b.Experience == nil {
			return box, fmt.Errorf("experience block without entry")
		}
		e := b.Experience
		l.split(e.Company, e.Duration)
		if l.text(e.Role, Italic, st.FontSize, ColorText, AlignLeft, 0, l.width) > 0 {
			l.y += st.RoleGap
		}
		l.text(e.Details, Regular, st.FontSize, ColorText, AlignLeft, 0, l.width)
		box.MarginBottom = st.EntryGap
	case blocks.KindProject:
		if b.Project == nil {
			return box, fmt.Errorf("project block without entry")
		}
		p := b.Project
		title := p.Title
		if strings.TrimSpace(p.Link) != "" {
			title += " [Link]"
		}
		l.text(title, Bold, st.FontSize, ColorText, AlignLeft, 0, l.width)
		if strings.TrimSpace(p.Technologies) != "" {
			l.text("Stack: "+p.Technologies, Italic, st.StackSize, ColorStack, AlignLeft, 0, l.width)
		}
		l.text(p.Description, Regular, st.FontSize, ColorText, AlignLeft, 0, l.width)
		box.MarginBottom = st.EntryGap
	case blocks.KindSkills:
		l.skills(b.Skills)
	case blocks.KindCertification:
		if b.Certification == nil {
			return box, fmt.Errorf("certification block without entry")
		}
		c := b.Certification
		text := "• " + c.Name
		if strings.TrimSpace(c.Details) != "" {
			text += " - " + c.Details
		}
		l.text(text, Regular, st.FontSize, ColorText, AlignLeft, 0, l.width)
	default:
		return box, fmt.Errorf("unknown block kind %q", b.Kind)
	}

	if b.SectionEnd {
		box.MarginBottom = math.Max(box.MarginBottom, st.SectionGap)
	}
	box.Height = l.y
	box.Items = l.items
	return box, nil
}

// Scaled returns a copy of the box shrunk or grown by f about its top-left
// corner.
func (b Box) Scaled(f float64) Box {
	out := b
	out.Width *= f
	out.Height *= f
	out.MarginTop *= f
	out.MarginBottom *= f
	out.Items = make([]Item, len(b.Items))
	for i, it := range b.Items {
		it.X *= f
		it.Y *= f
		it.Width *= f
		it.Baseline *= f
		it.Size *= f
		it.Stroke *= f
		out.Items[i] = it
	}
	return out
}

type boxLayout struct {
	st    Style
	ts    Typesetter
	width float64
	y     float64
	items []Item
}

// text wraps s into [x, x+w) starting at the current y and returns the
// number of lines produced.
func (l *boxLayout) text(s string, role FontRole, size float64, color string, align Align, x, w float64) int {
	lines := Wrap(s, w, func(t string) float64 { return l.ts.TextWidth(role, size, t) })
	lineBox := l.st.line(size)
	asc, desc := l.ts.Metrics(role, size)
	baseline := (lineBox-(asc+desc))/2 + asc

	anchor := x
	switch align {
	case AlignCenter:
		anchor = x + w/2
	case AlignRight:
		anchor = x + w
	}
	for _, line := range lines {
		l.items = append(l.items, Item{
			Kind:     ItemText,
			X:        anchor,
			Y:        l.y,
			Width:    w,
			Baseline: l.y + baseline,
			Text:     line,
			Role:     role,
			Size:     size,
			Color:    color,
			Align:    align,
		})
		l.y += lineBox
	}
	return len(lines)
}

// split draws a bold row with left and right aligned parts. When the parts do
// not fit side by side the right part wraps below.
func (l *boxLayout) split(left, right string) {
	size := l.st.FontSize
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if right == "" {
		l.text(left, Bold, size, ColorText, AlignLeft, 0, l.width)
		return
	}
	rw := l.ts.TextWidth(Bold, size, right)
	if left == "" || rw >= l.width/2 {
		l.text(left, Bold, size, ColorText, AlignLeft, 0, l.width)
		l.text(right, Bold, size, ColorText, AlignRight, 0, l.width)
		return
	}
	top := l.y
	l.text(right, Bold, size, ColorText, AlignRight, 0, l.width)
	l.y = top
	l.text(left, Bold, size, ColorText, AlignLeft, 0, l.width-rw-Rem(1))
	l.y = math.Max(l.y, top+l.st.line(size))
}

func (l *boxLayout) rule(stroke float64, color string) {
	l.items = append(l.items, Item{Kind: ItemRule, X: 0, Y: l.y + stroke/2, Width: l.width, Stroke: stroke, Color: color})
	l.y += stroke
}

func (l *boxLayout) header(h *blocks.Header) {
	st := l.st
	l.text(strings.ToUpper(h.FullName), Bold, st.NameSize, ColorText, AlignCenter, 0, l.width)
	l.y += Rem(0.1)
	if h.Role != "" {
		l.text(h.Role, Regular, st.RoleSize, ColorMuted, AlignCenter, 0, l.width)
		l.y += Rem(0.25)
	}
	if items := h.ContactItems(); len(items) > 0 {
		l.text(strings.Join(items, "  |  "), Regular, st.FontSize, ColorContact, AlignCenter, 0, l.width)
	}
	l.y += st.HeaderPadding
	l.rule(st.HeaderRule, ColorHeader)
}

func (l *boxLayout) skills(skills []string) {
	st := l.st
	cols := st.SkillColumns
	if cols <= 1 {
		for _, s := range skills {
			l.text("• "+s, Regular, st.FontSize, ColorText, AlignLeft, 0, l.width)
		}
		return
	}
	colWidth := (l.width - float64(cols-1)*st.ColumnGap) / float64(cols)
	for row := 0; row*cols < len(skills); row++ {
		top := l.y
		bottom := top
		for c := 0; c < cols && row*cols+c < len(skills); c++ {
			l.y = top
			x := float64(c) * (colWidth + st.ColumnGap)
			l.text("• "+skills[row*cols+c], Regular, st.FontSize, ColorText, AlignLeft, x, colWidth)
			bottom = math.Max(bottom, l.y)
		}
		l.y = bottom
	}
}
