package export

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jonathan/resume-layout/internal/browser"
	"github.com/jonathan/resume-layout/internal/paginate"
	"github.com/jonathan/resume-layout/internal/render"
)

// A4 in inches, for Chrome's paper size.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

// ChromeExporter prints the paged HTML with headless Chrome.
type ChromeExporter struct {
	Browser  *browser.Browser
	Attempts int
	Backoff  time.Duration
	Verbose  bool
}

var _ Exporter = (*ChromeExporter)(nil)

// NewChromeExporter returns an exporter printing through b.
func NewChromeExporter(b *browser.Browser, verbose bool) *ChromeExporter {
	return &ChromeExporter{Browser: b, Attempts: 3, Backoff: time.Second, Verbose: verbose}
}

// Export implements Exporter.
func (e *ChromeExporter) Export(ctx context.Context, doc Document) ([]byte, error) {
	if len(doc.Pages) == 0 {
		return nil, ErrNothingToExport
	}
	if e.Browser == nil {
		return nil, stageError(StagePrint, fmt.Errorf("no browser configured"))
	}

	html, err := render.PagedHTML(paginate.HTMLPages(doc.Pages, doc.Style.ContentHeight()), doc.Style)
	if err != nil {
		return nil, stageError(StageLayout, err)
	}
	if err := verifyPageCount(html, len(doc.Pages)); err != nil {
		return nil, stageError(StageVerify, err)
	}

	attempts := max(e.Attempts, 1)
	var printErr error
	for i := 0; i < attempts; i++ {
		var out []byte
		out, printErr = e.print(ctx, html)
		if printErr == nil {
			if bytes.HasPrefix(out, []byte("%PDF")) {
				if e.Verbose {
					log.Printf("[export] printed %d pages (%d bytes)", len(doc.Pages), len(out))
				}
				return out, nil
			}
			printErr = fmt.Errorf("invalid PDF output (len=%d)", len(out))
		}
		log.Printf("[export] print attempt %d failed: %v", i+1, printErr)

		if i < attempts-1 {
			backoff := time.Duration(1<<i) * e.Backoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, stageError(StagePrint, ctx.Err())
			}
		}
	}
	return nil, stageError(StagePrint, fmt.Errorf("failed after %d attempts: %w", attempts, printErr))
}

func (e *ChromeExporter) print(ctx context.Context, html string) ([]byte, error) {
	var (
		out   []byte
		ready bool
	)
	err := e.Browser.RunHTML(ctx, html,
		chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &ready, browser.AwaitPromise),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			out, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	return out, err
}

// verifyPageCount checks that the HTML has one .page element per logical page.
func verifyPageCount(html string, want int) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse paged html: %w", err)
	}
	if got := doc.Find(".page").Length(); got != want {
		return fmt.Errorf("paged html has %d pages, want %d", got, want)
	}
	return nil
}
