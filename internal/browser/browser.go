// Package browser runs headless Chrome for the HTML-based measurer and exporter.
package browser

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a single browser task.
const DefaultTimeout = 60 * time.Second

// AllocatorOptions returns the headless Chrome flags. CHROME_PATH overrides
// the Chrome binary.
func AllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if path := os.Getenv("CHROME_PATH"); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	return opts
}

// Browser is a lazily started Chrome instance shared by several tasks. Each
// task runs in its own tab.
type Browser struct {
	Timeout time.Duration
	Verbose bool

	mu          sync.Mutex
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// New returns a Browser; Chrome is not launched until the first task.
func New(timeout time.Duration, verbose bool) *Browser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Browser{Timeout: timeout, Verbose: verbose}
}

func (b *Browser) root() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), AllocatorOptions()...)
		b.ctx, b.cancelCtx = chromedp.NewContext(allocCtx)
		b.cancelAlloc = cancelAlloc
		if b.Verbose {
			log.Printf("[BROWSER] starting headless browser")
		}
	}
	return b.ctx
}

// RunHTML loads html from a temporary file in a new tab, waits for the body,
// then runs the given actions. The task is cancelled when ctx is.
func (b *Browser) RunHTML(ctx context.Context, html string, actions ...chromedp.Action) error {
	dir, err := os.MkdirTemp("", "resume-layout-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(b.root())
	defer cancelTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, b.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	tasks := chromedp.Tasks{
		chromedp.Navigate("file://" + path),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	tasks = append(tasks, actions...)
	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return fmt.Errorf("browser task failed: %w", err)
	}
	return nil
}

// AwaitPromise makes chromedp.Evaluate wait for a returned promise.
func AwaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// Close shuts Chrome down. The Browser may be reused afterwards.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelCtx != nil {
		b.cancelCtx()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
	b.ctx, b.cancelCtx, b.cancelAlloc = nil, nil, nil
}
