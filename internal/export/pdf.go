package export

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"runtime"

	"github.com/jonathan/resume-layout/internal/paginate"
	"github.com/jonathan/resume-layout/internal/render"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/sync/errgroup"
)

// PDFExporter draws pages with the embedded fonts and writes them as a PDF.
// Page canvases are built concurrently, each worker with its own fonts, and
// written in page order.
type PDFExporter struct {
	Workers int
	Verbose bool
}

var _ Exporter = (*PDFExporter)(nil)

// NewPDFExporter returns a canvas-based exporter.
func NewPDFExporter(verbose bool) *PDFExporter {
	return &PDFExporter{Workers: runtime.GOMAXPROCS(0), Verbose: verbose}
}

// Export implements Exporter.
func (e *PDFExporter) Export(ctx context.Context, doc Document) ([]byte, error) {
	if len(doc.Pages) == 0 {
		return nil, ErrNothingToExport
	}
	st := doc.Style

	canvases := make([]*canvas.Canvas, len(doc.Pages))
	g, gctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for i, p := range doc.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := drawPage(p, st)
			if err != nil {
				return err
			}
			canvases[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stageError(StageDraw, err)
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, st.PageWidth, st.PageHeight, nil)
	writer.SetInfo(doc.Title, "", "", doc.Author, "resume-layout")
	for i, c := range canvases {
		if i > 0 {
			writer.NewPage(st.PageWidth, st.PageHeight)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, stageError(StageEncode, fmt.Errorf("failed to write pdf: %w", err))
	}

	if e.Verbose {
		log.Printf("[export] wrote %d pages (%d bytes)", len(canvases), buf.Len())
	}
	return buf.Bytes(), nil
}

func drawPage(p paginate.Page, st render.Style) (*canvas.Canvas, error) {
	if len(p.Offsets) != len(p.Blocks) {
		return nil, stageError(StageLayout, fmt.Errorf("page %d has %d offsets for %d blocks", p.Index, len(p.Offsets), len(p.Blocks)))
	}
	fonts, err := render.LoadFonts()
	if err != nil {
		return nil, stageError(StageLayout, err)
	}

	c := canvas.New(st.PageWidth, st.PageHeight)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	pl := placePage(p, st)
	for i, b := range p.Blocks {
		box, err := render.Layout(b, st, fonts)
		if err != nil {
			return nil, stageError(StageLayout, fmt.Errorf("page %d block %d: %w", p.Index, i, err))
		}
		if pl.scale < 1 {
			box = box.Scaled(pl.scale)
		}
		render.DrawBox(ctx, fonts, pl.x, pl.y[i], box)
	}
	return c, nil
}

// placement is where a page's blocks land on paper. An overflow page is
// shrunk about the top center of the content area so it stays on the sheet.
type placement struct {
	scale float64
	x     float64
	y     []float64
}

func placePage(p paginate.Page, st render.Style) placement {
	f := paginate.FitScale(p, st.ContentHeight())
	pl := placement{
		scale: f,
		x:     st.PaddingX + st.ContentWidth()*(1-f)/2,
		y:     make([]float64, len(p.Offsets)),
	}
	for i, off := range p.Offsets {
		pl.y[i] = st.PaddingTop + off*f
	}
	return pl
}
