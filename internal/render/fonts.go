package render

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/tdewolff/canvas"
)

// FontRole selects a face within the serif family
type FontRole int

// Font roles
const (
	Regular FontRole = iota
	Bold
	Italic
	BoldItalic
)

func (r FontRole) style() canvas.FontStyle {
	switch r {
	case Bold:
		return canvas.FontBold
	case Italic:
		return canvas.FontItalic
	case BoldItalic:
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}

// Typesetter supplies the font metrics layout needs. Sizes are in mm.
type Typesetter interface {
	TextWidth(role FontRole, size float64, text string) float64
	// Metrics returns the ascent and descent of a face, both positive.
	Metrics(role FontRole, size float64) (ascent, descent float64)
}

// Fonts is the embedded serif family plus a cache of sized faces. It is safe
// for use by one layout pass at a time.
type Fonts struct {
	family *canvas.FontFamily

	mu    sync.Mutex
	faces map[faceKey]*canvas.FontFace
}

type faceKey struct {
	role  FontRole
	size  float64
	color color.RGBA
}

var _ Typesetter = (*Fonts)(nil)

// FamilyName is the CSS family the HTML template sets its text in.
const FamilyName = "Latin Modern Roman"

var fontSources = []struct {
	role   FontRole
	weight int
	style  string
	data   []byte
}{
	{Regular, 400, "normal", lmroman10regular.TTF},
	{Bold, 700, "normal", lmroman10bold.TTF},
	{Italic, 400, "italic", lmroman10italic.TTF},
	{BoldItalic, 700, "italic", lmroman10bolditalic.TTF},
}

// FontFaceCSS declares the embedded family as data-URI @font-face rules, so
// a browser sets the HTML with the same metrics the PDF exporter uses.
var FontFaceCSS = sync.OnceValue(func() template.CSS {
	var sb strings.Builder
	for _, src := range fontSources {
		fmt.Fprintf(&sb, "@font-face { font-family: '%s'; font-weight: %d; font-style: %s; src: url(data:font/ttf;base64,%s) format('truetype'); }\n",
			FamilyName, src.weight, src.style, base64.StdEncoding.EncodeToString(src.data))
	}
	return template.CSS(sb.String())
})

// LoadFonts loads the Latin Modern Roman family.
func LoadFonts() (*Fonts, error) {
	family := canvas.NewFontFamily("resume-serif")
	for _, src := range fontSources {
		if err := family.LoadFont(src.data, 0, src.role.style()); err != nil {
			return nil, fmt.Errorf("failed to load font style %d: %w", src.role, err)
		}
	}
	return &Fonts{family: family, faces: make(map[faceKey]*canvas.FontFace)}, nil
}

// Face returns a face for the role at size mm in the given color.
func (f *Fonts) Face(role FontRole, size float64, col color.RGBA) *canvas.FontFace {
	key := faceKey{role: role, size: size, color: col}
	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[key]; ok {
		return face
	}
	face := f.family.Face(size*MmToPt, col, role.style(), canvas.FontNormal)
	f.faces[key] = face
	return face
}

// TextWidth implements Typesetter.
func (f *Fonts) TextWidth(role FontRole, size float64, text string) float64 {
	return f.Face(role, size, canvas.Black).TextWidth(text)
}

// Metrics implements Typesetter.
func (f *Fonts) Metrics(role FontRole, size float64) (float64, float64) {
	m := f.Face(role, size, canvas.Black).Metrics()
	return math.Abs(m.Ascent), math.Abs(m.Descent)
}
