// Package render lays out content blocks as boxes with intrinsic sizes and
// draws them. The same boxes back both measurement and the exported pages.
package render

import "github.com/jonathan/resume-layout/internal/types"

// A4 page geometry
const (
	PageWidth  = 210.0
	PageHeight = 297.0
)

// Style holds the spacing and typography constants of one layout mode.
type Style struct {
	Mode types.LayoutMode

	PageWidth     float64
	PageHeight    float64
	PaddingX      float64
	PaddingTop    float64
	PaddingBottom float64

	FontSize   float64 // body text size
	LineHeight float64 // unitless multiplier, as in CSS
	NameSize   float64
	RoleSize   float64
	TitleSize  float64
	StackSize  float64

	HeaderPadding float64 // space between the contact line and the header rule
	HeaderGap     float64 // margin below the header rule
	HeaderRule    float64
	TitleRule     float64
	SectionGap    float64
	TitleGap      float64
	EducationGap  float64
	EntryGap      float64
	RoleGap       float64

	SkillColumns int
	ColumnGap    float64
}

// StyleFor returns the style for a layout mode.
func StyleFor(mode types.LayoutMode) Style {
	s := Style{
		Mode:          types.LayoutStandard,
		PageWidth:     PageWidth,
		PageHeight:    PageHeight,
		PaddingX:      Rem(2),
		PaddingTop:    Rem(1.5),
		PaddingBottom: Rem(2),
		FontSize:      Rem(0.875),
		LineHeight:    1.625,
		NameSize:      Rem(1.875),
		RoleSize:      Rem(1.25),
		TitleSize:     Rem(1.125),
		HeaderPadding: Rem(1),
		HeaderGap:     Rem(1),
		HeaderRule:    Px(2),
		TitleRule:     Px(1),
		SectionGap:    Rem(1.5),
		TitleGap:      Rem(0.5),
		EducationGap:  Rem(0.5),
		EntryGap:      Rem(1),
		RoleGap:       Rem(0.25),
		SkillColumns:  1,
		ColumnGap:     Rem(1),
	}
	if mode == types.LayoutCompact {
		s.Mode = types.LayoutCompact
		s.PaddingX = Rem(1.5)
		s.PaddingTop = Rem(1)
		s.PaddingBottom = Rem(1.5)
		s.FontSize = Rem(0.8)
		s.LineHeight = 1.4
		s.HeaderPadding = Rem(0.5)
		s.HeaderGap = Rem(0.5)
		s.SectionGap = Rem(0.5)
		s.SkillColumns = 3
	}
	s.StackSize = s.FontSize * 0.9 / 0.875
	return s
}

// ContentWidth is the usable width inside the horizontal padding.
func (s Style) ContentWidth() float64 {
	return s.PageWidth - 2*s.PaddingX
}

// ContentHeight is the per-page content budget: page height minus vertical padding.
func (s Style) ContentHeight() float64 {
	return s.PageHeight - s.PaddingTop - s.PaddingBottom
}

// line returns the CSS line box height for a font size.
func (s Style) line(size float64) float64 {
	return size * s.LineHeight
}
