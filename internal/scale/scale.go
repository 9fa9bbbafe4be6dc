// Package scale computes the view-only zoom factor that fits a fixed-width
// page into a container. It never affects pagination.
package scale

import (
	"context"
	"math"
	"sync"

	"github.com/jonathan/resume-layout/internal/render"
)

// Defaults, in CSS pixels.
const (
	DefaultBuffer   = 48.0
	DefaultMinScale = 0.3
	MaxScale        = 1.0
)

// DefaultPageWidth is the nominal page width in CSS pixels (210mm).
var DefaultPageWidth = render.PageWidth * render.MmToPx

// Options tune Compute. Zero fields take the defaults.
type Options struct {
	Buffer    float64
	PageWidth float64
	MinScale  float64
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = DefaultBuffer
	}
	if o.PageWidth <= 0 {
		o.PageWidth = DefaultPageWidth
	}
	if o.MinScale <= 0 || o.MinScale > MaxScale {
		o.MinScale = DefaultMinScale
	}
	return o
}

// Compute returns clamp((containerWidth - buffer) / pageWidth, minScale, 1).
// Unusable widths give the minimum scale.
func Compute(containerWidth float64, opts Options) float64 {
	opts = opts.withDefaults()
	if math.IsNaN(containerWidth) || containerWidth <= 0 {
		return opts.MinScale
	}
	s := (containerWidth - opts.Buffer) / opts.PageWidth
	return math.Min(MaxScale, math.Max(opts.MinScale, s))
}

// Controller coalesces a burst of width observations into the latest value.
// Observe never blocks; a value not yet delivered is replaced by a newer one.
type Controller struct {
	opts Options

	mu      sync.Mutex
	latest  float64
	pending bool
	notify  chan struct{}
}

// NewController returns a controller whose initial scale is 1.
func NewController(opts Options) *Controller {
	return &Controller{
		opts:   opts,
		latest: MaxScale,
		notify: make(chan struct{}, 1),
	}
}

// Observe records a new container width and returns the resulting scale.
func (c *Controller) Observe(width float64) float64 {
	s := Compute(width, c.opts)

	c.mu.Lock()
	c.latest = s
	c.pending = true
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return s
}

// Latest returns the most recently computed scale.
func (c *Controller) Latest() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Run delivers settled scale values to fn until ctx is done. Values observed
// while fn is running are coalesced and only the newest is delivered next.
func (c *Controller) Run(ctx context.Context, fn func(scale float64)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.notify:
		}

		c.mu.Lock()
		s, ok := c.latest, c.pending
		c.pending = false
		c.mu.Unlock()

		if ok {
			fn(s)
		}
	}
}
