package measure

import (
	"context"
	"fmt"
	"log"

	"github.com/chromedp/chromedp"
	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/browser"
	"github.com/jonathan/resume-layout/internal/render"
	"github.com/jonathan/resume-layout/internal/types"
)

// settleScript resolves once fonts are loaded and two animation frames have
// passed, then reads every block's border box and vertical margins in CSS px.
const settleScript = `new Promise(resolve => {
  document.fonts.ready.then(() => requestAnimationFrame(() => requestAnimationFrame(() => {
    const out = [];
    document.querySelectorAll('[data-index]').forEach(el => {
      const cs = getComputedStyle(el);
      out[Number(el.dataset.index)] = {
        height: el.getBoundingClientRect().height,
        marginTop: parseFloat(cs.marginTop) || 0,
        marginBottom: parseFloat(cs.marginBottom) || 0,
      };
    });
    resolve(out);
  })));
})`

type browserBox struct {
	Height       float64 `json:"height"`
	MarginTop    float64 `json:"marginTop"`
	MarginBottom float64 `json:"marginBottom"`
}

// BrowserMeasurer measures blocks by rendering them hidden in headless Chrome
// and reading the boxes back after layout settles.
type BrowserMeasurer struct {
	browser *browser.Browser
	verbose bool
}

var _ Measurer = (*BrowserMeasurer)(nil)

// NewBrowserMeasurer returns a measurer backed by b.
func NewBrowserMeasurer(b *browser.Browser, verbose bool) *BrowserMeasurer {
	return &BrowserMeasurer{browser: b, verbose: verbose}
}

// Measure implements Measurer.
func (m *BrowserMeasurer) Measure(ctx context.Context, bs []blocks.Block, mode types.LayoutMode) ([]Metrics, error) {
	if len(bs) == 0 {
		return []Metrics{}, nil
	}
	if m.browser == nil {
		return nil, ErrNotReady
	}
	html, err := render.MeasureHTML(bs, render.StyleFor(mode))
	if err != nil {
		return nil, err
	}

	if m.verbose {
		log.Printf("[BROWSER] measuring %d blocks (%s)", len(bs), mode)
	}

	var boxes []browserBox
	if err := m.browser.RunHTML(ctx, html, chromedp.Evaluate(settleScript, &boxes, browser.AwaitPromise)); err != nil {
		return nil, fmt.Errorf("browser measurement failed: %w", err)
	}
	return fromBrowserBoxes(bs, boxes)
}

func fromBrowserBoxes(bs []blocks.Block, boxes []browserBox) ([]Metrics, error) {
	if len(boxes) != len(bs) {
		return nil, fmt.Errorf("browser measured %d of %d blocks", len(boxes), len(bs))
	}
	out := make([]Metrics, len(bs))
	for i, b := range bs {
		out[i] = Metrics{
			Block:        b,
			Height:       render.Px(boxes[i].Height),
			MarginTop:    render.Px(boxes[i].MarginTop),
			MarginBottom: render.Px(boxes[i].MarginBottom),
		}
	}
	return out, nil
}
