package browser

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(0, false).Timeout)
	assert.Equal(t, 5*time.Second, New(5*time.Second, false).Timeout)
}

func TestAllocatorOptions_ChromePath(t *testing.T) {
	t.Setenv("CHROME_PATH", "")
	base := len(AllocatorOptions())

	t.Setenv("CHROME_PATH", "/opt/chrome/chrome")
	assert.Len(t, AllocatorOptions(), base+1)
}

func TestAwaitPromise(t *testing.T) {
	p := AwaitPromise(runtime.Evaluate("1"))
	assert.True(t, p.AwaitPromise)
}

func TestClose_BeforeStart(t *testing.T) {
	b := New(0, false)
	b.Close()
	b.Close()
}

func TestRunHTML(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("Chrome not installed")
	}

	b := New(30*time.Second, false)
	defer b.Close()

	var title string
	err := b.RunHTML(context.Background(), "<html><head><title>resume</title></head><body></body></html>",
		chromedp.Title(&title))
	require.NoError(t, err)
	assert.Equal(t, "resume", title)
}
