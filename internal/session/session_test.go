package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/measure"
	"github.com/jonathan/resume-layout/internal/paginate"
	"github.com/jonathan/resume-layout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMeasurer gives every block a fixed height per mode. When gate is set,
// the first call waits on it.
type fakeMeasurer struct {
	mu      sync.Mutex
	err     error
	drop    bool
	calls   int
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeMeasurer) Measure(ctx context.Context, bs []blocks.Block, mode types.LayoutMode) ([]measure.Metrics, error) {
	f.mu.Lock()
	f.calls++
	call, gate, err, drop := f.calls, f.gate, f.err, f.drop
	f.mu.Unlock()

	if call == 1 && gate != nil {
		close(f.started)
		<-gate
	}
	if err != nil {
		return nil, err
	}
	h := 20.0
	if mode == types.LayoutCompact {
		h = 10
	}
	out := make([]measure.Metrics, len(bs))
	for i, b := range bs {
		out[i] = measure.Metrics{Block: b, Height: h}
	}
	if drop && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeMeasurer) set(err error, drop bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err, f.drop = err, drop
}

func resume(name string, entries int) *types.Resume {
	r := &types.Resume{PersonalDetails: types.PersonalDetails{FullName: name, Role: "Engineer"}}
	for i := 0; i < entries; i++ {
		r.Experience = append(r.Experience, types.Experience{Company: fmt.Sprintf("Company %d", i), Role: "Engineer"})
	}
	return r
}

type fakeExporter struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (e *fakeExporter) Export(ctx context.Context, doc export.Document) ([]byte, error) {
	e.calls.Add(1)
	if e.started != nil {
		e.once.Do(func() { close(e.started) })
	}
	if e.release != nil {
		<-e.release
	}
	if e.err != nil {
		return nil, &export.ExportError{Stage: export.StagePrint, Cause: e.err}
	}
	return []byte(fmt.Sprintf("%%PDF pages=%d", len(doc.Pages))), nil
}

func TestSession_NotReadyBeforeFirstPass(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	st := s.Snapshot()
	assert.Equal(t, StatusNotReady, st.Status)
	assert.Equal(t, types.LayoutStandard, st.Mode)
	assert.Empty(t, st.Pages)

	_, err := s.Export(context.Background(), &fakeExporter{})
	assert.ErrorIs(t, err, measure.ErrNotReady)
}

func TestSession_UpdatePaginates(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	r := resume("Asha Rao", 30)

	st, err := s.Update(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st.Status)
	assert.Equal(t, uint64(1), st.Version)
	assert.Equal(t, uint64(1), st.PagesVersion)
	assert.Equal(t, "Asha Rao", st.FullName)
	assert.Len(t, st.Pages, 3)
	assert.Equal(t, blocks.Build(r), paginate.Flatten(st.Pages))
}

func TestSession_UpdateDoesNotRetainCallerResume(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	r := resume("Asha Rao", 2)
	_, err := s.Update(context.Background(), r)
	require.NoError(t, err)

	r.PersonalDetails.FullName = "Changed"
	st, err := s.SetMode(context.Background(), types.LayoutCompact)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", st.FullName)
}

func TestSession_NotReadyKeepsPreviousPages(t *testing.T) {
	m := &fakeMeasurer{}
	s := New(m, Options{})
	first, err := s.Update(context.Background(), resume("Asha Rao", 30))
	require.NoError(t, err)

	m.set(measure.ErrNotReady, false)
	st, err := s.Update(context.Background(), resume("Asha Rao", 5))
	require.NoError(t, err)
	assert.Equal(t, StatusNotReady, st.Status)
	assert.Equal(t, uint64(2), st.Version)
	assert.Equal(t, uint64(1), st.PagesVersion)
	assert.Equal(t, first.Pages, st.Pages)
}

func TestSession_MismatchFailsWithoutTouchingPages(t *testing.T) {
	m := &fakeMeasurer{}
	s := New(m, Options{})
	first, err := s.Update(context.Background(), resume("Asha Rao", 3))
	require.NoError(t, err)

	m.set(nil, true)
	st, err := s.Update(context.Background(), resume("Asha Rao", 4))
	assert.ErrorIs(t, err, paginate.ErrMetricsMismatch)
	assert.Equal(t, StatusFailed, st.Status)
	assert.ErrorIs(t, st.Err, paginate.ErrMetricsMismatch)
	assert.Equal(t, first.Pages, st.Pages)

	m.set(nil, false)
	st, err = s.Update(context.Background(), resume("Asha Rao", 4))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st.Status)
	assert.NoError(t, st.Err)
}

func TestSession_StalePassIsDiscarded(t *testing.T) {
	m := &fakeMeasurer{gate: make(chan struct{}), started: make(chan struct{})}
	s := New(m, Options{})

	errc := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), resume("Old Name", 1))
		errc <- err
	}()
	<-m.started

	st, err := s.Update(context.Background(), resume("New Name", 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), st.Version)

	close(m.gate)
	assert.ErrorIs(t, <-errc, ErrSuperseded)

	st = s.Snapshot()
	assert.Equal(t, "New Name", st.FullName)
	assert.Equal(t, uint64(2), st.PagesVersion)
	assert.Equal(t, StatusReady, st.Status)
}

func TestSession_SetModeRepaginates(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	std, err := s.Update(context.Background(), resume("Asha Rao", 30))
	require.NoError(t, err)

	cmp, err := s.SetMode(context.Background(), types.LayoutCompact)
	require.NoError(t, err)
	assert.Equal(t, types.LayoutCompact, cmp.Mode)
	assert.Equal(t, types.LayoutCompact, cmp.PagesMode)
	assert.Less(t, len(cmp.Pages), len(std.Pages))
	assert.Equal(t, paginate.Flatten(std.Pages), paginate.Flatten(cmp.Pages))
}

func TestSession_ResumeLayoutSelectsMode(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	r := resume("Asha Rao", 1)
	r.Layout = types.LayoutCompact
	st, err := s.Update(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, types.LayoutCompact, st.Mode)
}

func TestSession_ResizeOnlyChangesScale(t *testing.T) {
	m := &fakeMeasurer{}
	s := New(m, Options{})
	before, err := s.Update(context.Background(), resume("Asha Rao", 30))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, before.Scale, 1e-9)

	s.Resize(400)
	after := s.Snapshot()
	assert.Less(t, after.Scale, 1.0)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Pages, after.Pages)

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, 1, m.calls)
}

func TestSession_ExportUsesCommittedPages(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	st, err := s.Update(context.Background(), resume("Asha Rao", 30))
	require.NoError(t, err)

	out, err := s.Export(context.Background(), &fakeExporter{})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%%PDF pages=%d", len(st.Pages)), string(out))
}

func TestSession_ExportFailureLeavesStateIntact(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	before, err := s.Update(context.Background(), resume("Asha Rao", 30))
	require.NoError(t, err)

	_, err = s.Export(context.Background(), &fakeExporter{err: errors.New("chrome crashed")})
	var ee *export.ExportError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, export.StagePrint, ee.Stage)

	after := s.Snapshot()
	assert.Equal(t, StatusReady, after.Status)
	assert.Equal(t, before.Pages, after.Pages)
	assert.Equal(t, before.Version, after.Version)
}

func TestSession_ConcurrentExportsShareOneRun(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	_, err := s.Update(context.Background(), resume("Asha Rao", 3))
	require.NoError(t, err)

	e := &fakeExporter{release: make(chan struct{}), started: make(chan struct{})}
	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = s.Export(context.Background(), e)
		}()
		if i == 0 {
			<-e.started
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(e.release)
	wg.Wait()

	assert.Equal(t, int32(1), e.calls.Load())
	assert.Equal(t, results[0], results[1])
}

func TestSession_ExportOutlivesCancelledCaller(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	_, err := s.Update(context.Background(), resume("Asha Rao", 3))
	require.NoError(t, err)

	e := &fakeExporter{release: make(chan struct{}), started: make(chan struct{})}
	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Export(first, e)
		firstErr <- err
	}()
	<-e.started

	type result struct {
		out []byte
		err error
	}
	second := make(chan result, 1)
	go func() {
		out, err := s.Export(context.Background(), e)
		second <- result{out, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(e.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Contains(t, string(res.out), "%PDF")
	assert.Equal(t, int32(1), e.calls.Load())
}

func TestSession_ExportTimeout(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{ExportTimeout: 10 * time.Millisecond})
	_, err := s.Update(context.Background(), resume("Asha Rao", 1))
	require.NoError(t, err)

	_, err = s.Export(context.Background(), blockingExporter{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// blockingExporter waits for its context.
type blockingExporter struct{}

func (blockingExporter) Export(ctx context.Context, _ export.Document) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSession_OnScaleGetsNewestScale(t *testing.T) {
	var (
		mu  sync.Mutex
		got []float64
	)
	s := New(&fakeMeasurer{}, Options{OnScale: func(v float64) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	}})
	defer s.Close()

	s.Resize(300)
	s.Resize(500)
	want := s.Resize(700)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1] == want
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, len(got), 3)
}

func TestSession_Closed(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	s.Close()
	_, err := s.Update(context.Background(), resume("Asha Rao", 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.SetMode(context.Background(), types.LayoutCompact)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSession_NilResume(t *testing.T) {
	s := New(&fakeMeasurer{}, Options{})
	_, err := s.Update(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoResume)
}

func TestManager(t *testing.T) {
	m := NewManager(&fakeMeasurer{}, Options{})

	a := m.Open("a")
	assert.Same(t, a, m.Open("a"))
	b := m.Open("b")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, m.Len())

	_, err := a.Update(context.Background(), resume("Asha Rao", 1))
	require.NoError(t, err)
	assert.Equal(t, StatusNotReady, b.Snapshot().Status)

	m.Close("a")
	_, ok := m.Get("a")
	assert.False(t, ok)
	_, err = a.Update(context.Background(), resume("Asha Rao", 1))
	assert.ErrorIs(t, err, ErrClosed)

	m.CloseAll()
	assert.Equal(t, 0, m.Len())
	_, err = b.Update(context.Background(), resume("Asha Rao", 1))
	assert.ErrorIs(t, err, ErrClosed)
}
