// Package session owns the layout state of one open résumé: the committed
// page list, its version, the layout mode and the view scale.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/measure"
	"github.com/jonathan/resume-layout/internal/paginate"
	"github.com/jonathan/resume-layout/internal/render"
	"github.com/jonathan/resume-layout/internal/scale"
	"github.com/jonathan/resume-layout/internal/types"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrSuperseded is returned by a pass whose input was replaced before it
	// finished. Its result was discarded.
	ErrSuperseded = errors.New("layout pass superseded by newer input")
	// ErrClosed is returned by a closed session.
	ErrClosed = errors.New("session closed")
	// ErrNoResume is returned when a pass is requested before any content.
	ErrNoResume = errors.New("no resume loaded")
)

// Status of the latest layout input
type Status string

// Layout statuses
const (
	StatusNotReady Status = "notReady"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// State is an immutable snapshot of a session. Pages always come from the
// last successful pass (PagesVersion); Status and Err describe Version.
type State struct {
	Version      uint64
	PagesVersion uint64
	Status       Status
	Mode         types.LayoutMode
	PagesMode    types.LayoutMode
	FullName     string
	Pages        []paginate.Page
	Scale        float64
	Err          error
}

// DefaultExportTimeout bounds one shared export run.
const DefaultExportTimeout = 2 * time.Minute

// Options configure a session.
type Options struct {
	Mode  types.LayoutMode
	Scale scale.Options
	// OnScale, if set, receives settled view scales from a background
	// goroutine. A burst of Resize calls delivers only the newest value.
	OnScale       func(scale float64)
	ExportTimeout time.Duration
	Verbose       bool
}

// Session runs layout passes for one résumé. Every Update bumps the version;
// a pass commits only if its version is still current.
type Session struct {
	measurer measure.Measurer
	opts     Options
	scale    *scale.Controller
	exports  singleflight.Group
	stop     context.CancelFunc

	mu      sync.Mutex
	version uint64
	resume  *types.Resume
	mode    types.LayoutMode
	state   State
	closed  bool
}

// New returns an empty session. Its status is notReady until the first
// successful pass.
func New(m measure.Measurer, opts Options) *Session {
	mode := opts.Mode
	if mode == "" {
		mode = types.LayoutStandard
	}
	if opts.ExportTimeout <= 0 {
		opts.ExportTimeout = DefaultExportTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		measurer: m,
		opts:     opts,
		scale:    scale.NewController(opts.Scale),
		stop:     cancel,
		mode:     mode,
		state:    State{Status: StatusNotReady, Mode: mode},
	}
	if opts.OnScale != nil {
		go func() { _ = s.scale.Run(ctx, opts.OnScale) }()
	}
	return s
}

// Update replaces the résumé and re-derives blocks, metrics and pages from
// scratch. A resume carrying its own layout mode switches the session to it.
func (s *Session) Update(ctx context.Context, r *types.Resume) (State, error) {
	if r == nil {
		return s.Snapshot(), ErrNoResume
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrClosed
	}
	s.resume = r.Clone()
	if r.Layout != "" {
		s.mode = r.Layout
	}
	s.mu.Unlock()
	return s.pass(ctx)
}

// SetMode switches the layout mode and re-paginates the current résumé.
func (s *Session) SetMode(ctx context.Context, mode types.LayoutMode) (State, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State{}, ErrClosed
	}
	s.mode = mode
	loaded := s.resume != nil
	if !loaded {
		s.state.Mode = mode
	}
	s.mu.Unlock()

	if !loaded {
		return s.Snapshot(), nil
	}
	return s.pass(ctx)
}

// Resize records a new container width. It changes the view scale only.
func (s *Session) Resize(width float64) float64 {
	return s.scale.Observe(width)
}

// Snapshot returns the committed state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	st.Scale = s.scale.Latest()
	return st
}

func (s *Session) pass(ctx context.Context) (State, error) {
	s.mu.Lock()
	s.version++
	v := s.version
	r := s.resume
	mode := s.mode
	s.state.Version = v
	s.mu.Unlock()

	bs := blocks.Build(r)
	pages, err := s.layout(ctx, bs, mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrClosed
	}
	if v != s.version {
		if s.opts.Verbose {
			log.Printf("[session] discarding pass %d, current is %d", v, s.version)
		}
		return s.snapshotLocked(), ErrSuperseded
	}

	next := s.state
	next.Version = v
	next.Mode = mode
	switch {
	case errors.Is(err, measure.ErrNotReady):
		next.Status = StatusNotReady
		next.Err = nil
	case err != nil:
		next.Status = StatusFailed
		next.Err = err
	default:
		next.Status = StatusReady
		next.Err = nil
		next.Pages = pages
		next.PagesVersion = v
		next.PagesMode = mode
		next.FullName = r.PersonalDetails.FullName
	}
	s.state = next

	if s.opts.Verbose {
		log.Printf("[session] pass %d (%s): %s, %d pages", v, mode, next.Status, len(next.Pages))
	}
	if next.Status == StatusNotReady {
		return s.snapshotLocked(), nil
	}
	return s.snapshotLocked(), err
}

func (s *Session) layout(ctx context.Context, bs []blocks.Block, mode types.LayoutMode) ([]paginate.Page, error) {
	if s.measurer == nil {
		return nil, measure.ErrNotReady
	}
	metrics, err := s.measurer.Measure(ctx, bs, mode)
	if err != nil {
		return nil, err
	}
	return paginate.PaginateBlocks(bs, metrics, paginate.Budget(mode))
}

func (s *Session) snapshotLocked() State {
	st := s.state
	st.Scale = s.scale.Latest()
	return st
}

// Export renders the committed pages through e at true size. Concurrent
// exports of the same version share one run, which outlives any single
// caller's ctx up to the export timeout; each caller still returns when its
// own ctx is done. Failures never touch the committed pages.
func (s *Session) Export(ctx context.Context, e export.Exporter) ([]byte, error) {
	st := s.Snapshot()
	if st.PagesVersion == 0 {
		return nil, measure.ErrNotReady
	}

	key := fmt.Sprintf("%d/%T", st.PagesVersion, e)
	ch := s.exports.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ExportTimeout)
		defer cancel()
		return e.Export(runCtx, export.Document{
			Title:  st.FullName,
			Author: st.FullName,
			Style:  render.StyleFor(st.PagesMode),
			Pages:  st.Pages,
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if s.opts.Verbose && res.Shared {
			log.Printf("[session] export of version %d shared", st.PagesVersion)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Close releases the session. Later calls return ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.resume = nil
	s.stop()
}
