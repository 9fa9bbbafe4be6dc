// Package measure produces the box metrics of every content block from an
// unconstrained layout pass.
package measure

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/render"
	"github.com/jonathan/resume-layout/internal/types"
)

// ErrNotReady means the measurement surface is not available yet. Callers
// treat it as a transient "generating" state, not a failure.
var ErrNotReady = errors.New("measurement surface not ready")

// Metrics is the measured box of one block, in millimetres.
type Metrics struct {
	Block        blocks.Block `json:"block"`
	Height       float64      `json:"height"`
	MarginTop    float64      `json:"marginTop"`
	MarginBottom float64      `json:"marginBottom"`
}

// Measurer measures a block sequence for a layout mode. The result has the
// same length and order as the input.
type Measurer interface {
	Measure(ctx context.Context, bs []blocks.Block, mode types.LayoutMode) ([]Metrics, error)
}

// Engine measures blocks analytically from font metrics. Its surface (the
// loaded font family and face cache) is mounted once and reused by every
// pass; only one pass uses it at a time.
type Engine struct {
	mu      sync.Mutex
	surface render.Typesetter
	verbose bool
}

var _ Measurer = (*Engine)(nil)

// NewEngine returns an engine with no surface mounted.
func NewEngine(verbose bool) *Engine {
	return &Engine{verbose: verbose}
}

// NewMountedEngine returns an engine with the embedded fonts mounted.
func NewMountedEngine(verbose bool) (*Engine, error) {
	e := NewEngine(verbose)
	fonts, err := render.LoadFonts()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}
	e.Mount(fonts)
	return e, nil
}

// Mount installs the measurement surface.
func (e *Engine) Mount(ts render.Typesetter) {
	e.mu.Lock()
	e.surface = ts
	e.mu.Unlock()
}

// Unmount removes the surface; later passes report ErrNotReady.
func (e *Engine) Unmount() {
	e.mu.Lock()
	e.surface = nil
	e.mu.Unlock()
}

// Surface returns the mounted typesetter, or nil.
func (e *Engine) Surface() render.Typesetter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

// Measure lays out every block at the content width with unconstrained
// height and reads back its box.
func (e *Engine) Measure(ctx context.Context, bs []blocks.Block, mode types.LayoutMode) ([]Metrics, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil {
		return nil, ErrNotReady
	}

	st := render.StyleFor(mode)
	out := make([]Metrics, len(bs))
	for i, b := range bs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		box, err := render.Layout(b, st, e.surface)
		if err != nil {
			return nil, fmt.Errorf("failed to measure block %d (%s): %w", i, b.Kind, err)
		}
		out[i] = Metrics{
			Block:        b,
			Height:       box.Height,
			MarginTop:    box.MarginTop,
			MarginBottom: box.MarginBottom,
		}
	}

	if e.verbose {
		log.Printf("[measure] measured %d blocks (%s)", len(out), mode)
	}
	return out, nil
}
