package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/resume-layout/internal/browser"
	"github.com/jonathan/resume-layout/internal/config"
	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/measure"
	"github.com/jonathan/resume-layout/internal/schemas"
	"github.com/jonathan/resume-layout/internal/session"
	"github.com/jonathan/resume-layout/internal/types"
)

// readResume loads a résumé JSON file after checking it against the
// embedded schema.
func readResume(path string) (*types.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume file: %w", err)
	}
	if err := schemas.ValidateResumeJSON(data); err != nil {
		return nil, err
	}
	var r types.Resume
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume JSON: %w", err)
	}
	return &r, nil
}

// backend is the measurer and exporter a run uses. The Chrome exporter
// measures in the browser it prints with, so pages match what it prints.
type backend struct {
	measurer measure.Measurer
	exporter export.Exporter
	close    func()
}

func newBackend(cfg config.Config) (*backend, error) {
	if cfg.Exporter == config.ExporterChrome {
		b := browser.New(browser.DefaultTimeout, cfg.Verbose)
		return &backend{
			measurer: measure.NewBrowserMeasurer(b, cfg.Verbose),
			exporter: export.NewChromeExporter(b, cfg.Verbose),
			close:    b.Close,
		}, nil
	}
	engine, err := measure.NewMountedEngine(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to mount measurement engine: %w", err)
	}
	return &backend{
		measurer: engine,
		exporter: export.NewPDFExporter(cfg.Verbose),
		close:    func() {},
	}, nil
}

// layoutRun is one résumé laid out through a session.
type layoutRun struct {
	session *session.Session
	state   session.State
}

// layout paginates r. A non-empty mode overrides the résumé's own.
func layout(ctx context.Context, cfg config.Config, be *backend, r *types.Resume) (*layoutRun, error) {
	if cfg.Mode != "" {
		r.Layout = types.LayoutMode(cfg.Mode)
	}

	sess := session.New(be.measurer, session.Options{Verbose: cfg.Verbose})
	st, err := sess.Update(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to paginate: %w", err)
	}
	if cfg.Width > 0 {
		st.Scale = sess.Resize(cfg.Width)
	}
	return &layoutRun{session: sess, state: st}, nil
}
