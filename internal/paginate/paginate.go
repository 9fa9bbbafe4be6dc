// Package paginate partitions measured blocks into fixed-height pages using
// a single forward pass with CSS-style margin collapsing.
package paginate

import (
	"errors"
	"fmt"

	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/measure"
	"github.com/jonathan/resume-layout/internal/render"
	"github.com/jonathan/resume-layout/internal/types"
)

// ErrMetricsMismatch is returned when metrics were not computed for exactly
// the block sequence being paginated. It is a caller bug, never coerced.
var ErrMetricsMismatch = errors.New("metrics do not match block sequence")

// MismatchError reports the lengths involved in a metrics mismatch.
type MismatchError struct {
	Blocks  int
	Metrics int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: %d blocks, %d metrics", ErrMetricsMismatch, e.Blocks, e.Metrics)
}

func (e *MismatchError) Unwrap() error {
	return ErrMetricsMismatch
}

// Page is one fixed-height page. Offsets[i] is the distance from the top of
// the content area to the border box of Blocks[i].
type Page struct {
	Index    int               `json:"index"`
	Blocks   []blocks.Block    `json:"blocks"`
	Metrics  []measure.Metrics `json:"-"`
	Offsets  []float64         `json:"offsets"`
	Height   float64           `json:"height"`
	Overflow bool              `json:"overflow,omitempty"`
}

// Budget returns the content-height budget of a layout mode.
func Budget(mode types.LayoutMode) float64 {
	return render.StyleFor(mode).ContentHeight()
}

// Collapse combines two adjoining vertical margins the way CSS does: the
// larger positive margin wins, two negatives give the most negative, and
// mixed signs are summed.
func Collapse(a, b float64) float64 {
	switch {
	case a >= 0 && b >= 0:
		return max(a, b)
	case a < 0 && b < 0:
		return min(a, b)
	default:
		return a + b
	}
}

// PaginateBlocks checks that metrics belong to bs before paginating.
func PaginateBlocks(bs []blocks.Block, metrics []measure.Metrics, budget float64) ([]Page, error) {
	if len(bs) != len(metrics) {
		return nil, &MismatchError{Blocks: len(bs), Metrics: len(metrics)}
	}
	return Paginate(metrics, budget)
}

// Paginate assigns every measured block to a page in order. A block that does
// not fit below the previous one starts a new page; a block taller than the
// budget is placed alone on its own page and flagged as overflow. Blocks are
// never split, dropped, duplicated or reordered.
func Paginate(metrics []measure.Metrics, budget float64) ([]Page, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("page budget must be positive, got %v", budget)
	}
	if len(metrics) == 0 {
		return nil, nil
	}

	var (
		pages            []Page
		current          Page
		currentHeight    float64
		prevMarginBottom float64
	)

	flush := func() {
		current.Index = len(pages)
		current.Height = currentHeight
		pages = append(pages, current)
		current = Page{}
		currentHeight = 0
		prevMarginBottom = 0
	}

	place := func(m measure.Metrics, spaceAbove float64) {
		current.Blocks = append(current.Blocks, m.Block)
		current.Metrics = append(current.Metrics, m)
		current.Offsets = append(current.Offsets, currentHeight+spaceAbove)
		currentHeight += spaceAbove + m.Height
		prevMarginBottom = m.MarginBottom
	}

	for _, m := range metrics {
		empty := len(current.Blocks) == 0

		spaceAbove := m.MarginTop
		if !empty {
			spaceAbove = Collapse(prevMarginBottom, m.MarginTop)
		}
		projectedBottom := currentHeight + spaceAbove + m.Height

		if !empty && projectedBottom+m.MarginBottom > budget {
			flush()
			spaceAbove = m.MarginTop
		}

		place(m, spaceAbove)
		if currentHeight > budget {
			current.Overflow = true
		}
	}
	if len(current.Blocks) > 0 {
		flush()
	}
	return pages, nil
}

// Flatten concatenates the blocks of all pages in order.
func Flatten(pages []Page) []blocks.Block {
	var out []blocks.Block
	for _, p := range pages {
		out = append(out, p.Blocks...)
	}
	return out
}

// FitScale returns the factor that shrinks an overflow page to the budget,
// or 1 for a page that fits.
func FitScale(p Page, budget float64) float64 {
	if !p.Overflow || p.Height <= budget || p.Height <= 0 {
		return 1
	}
	return budget / p.Height
}

// HTMLPages returns each page's blocks for the paged HTML, with overflow
// pages shrunk to fit.
func HTMLPages(pages []Page, budget float64) []render.HTMLPage {
	out := make([]render.HTMLPage, len(pages))
	for i, p := range pages {
		out[i] = render.HTMLPage{Blocks: p.Blocks}
		if f := FitScale(p, budget); f < 1 {
			out[i].Shrink = f
		}
	}
	return out
}
