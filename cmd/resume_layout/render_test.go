package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/scale"
	"github.com/jonathan/resume-layout/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paginate(t *testing.T, args ...string) server.LayoutResponse {
	t.Helper()
	out, err := execute(t, append([]string{"paginate"}, args...)...)
	require.NoError(t, err, out)
	var resp server.LayoutResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestPaginateCmd(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(4))

	resp := paginate(t, "--in", in, "--width", "400")

	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "standard", resp.Mode)
	assert.InDelta(t, scale.Compute(400, scale.Options{}), resp.Scale, 1e-9)
	require.NotEmpty(t, resp.Pages)
	assert.Equal(t, len(resp.Pages), resp.PageCount)
	assert.Equal(t, blocks.KindHeader, resp.Pages[0].Blocks[0])
}

func TestPaginateCmd_Mode(t *testing.T) {
	r := sampleResume(2)
	r.Layout = "compact"
	in := writeJSON(t, "resume.json", r)

	assert.Equal(t, "compact", paginate(t, "--in", in).Mode)
	assert.Equal(t, "standard", paginate(t, "--in", in, "--mode", "standard").Mode)
}

func TestPaginateCmd_ConfigFile(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(2))
	cfg := writeJSON(t, "config.json", map[string]any{"mode": "compact", "width": 600})

	resp := paginate(t, "--config", cfg, "--in", in)

	assert.Equal(t, "compact", resp.Mode)
	assert.InDelta(t, scale.Compute(600, scale.Options{}), resp.Scale, 1e-9)
}

func TestPaginateCmd_LongResumeSpansPages(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(40))

	resp := paginate(t, "--in", in)

	require.Greater(t, resp.PageCount, 1)
	var total int
	for _, p := range resp.Pages {
		assert.NotEmpty(t, p.Blocks)
		total += len(p.Blocks)
	}
	// header, summary, education, 40 experience entries, skills
	assert.Equal(t, 1+2+2+41+2, total)
}

func TestPaginateCmd_Errors(t *testing.T) {
	valid := writeJSON(t, "resume.json", sampleResume(1))
	invalid := writeJSON(t, "bad.json", map[string]any{"personalDetails": map[string]any{}, "layout": "dense"})

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing --in", args: []string{}},
		{name: "missing file", args: []string{"--in", filepath.Join(t.TempDir(), "nope.json")}},
		{name: "schema violation", args: []string{"--in", invalid}},
		{name: "bad mode flag", args: []string{"--in", valid, "--mode", "dense"}},
		{name: "negative width", args: []string{"--in", valid, "--width", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"paginate"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestRenderCmd(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(30))
	out := filepath.Join(t.TempDir(), "Asha_Rao_Resume.pdf")

	stdout, err := execute(t, "render", "--in", in, "--out", out, "--verify")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Wrote "+out)

	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Equal(t, paginate(t, "--in", in).PageCount, export.CountPages(pdf))
}

func TestRenderCmd_Errors(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(1))
	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing flags", args: []string{}},
		{name: "missing --out", args: []string{"--in", in}},
		{name: "bad exporter", args: []string{"--in", in, "--out", out, "--exporter", "latex"}},
		{name: "unwritable output", args: []string{"--in", in, "--out", filepath.Join(dir, "missing", "out.pdf")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"render"}, tt.args...)...)
			assert.Error(t, err)
		})
	}

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderCmd_WriteFailureIsExportError(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(1))

	_, err := execute(t, "render", "--in", in, "--out", filepath.Join(t.TempDir(), "missing", "out.pdf"))

	var ee *export.ExportError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, export.StageWrite, ee.Stage)
}

func TestPaginateCmd_TextFormat(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(2))

	out, err := execute(t, "paginate", "--in", in, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "LAYOUT")
	assert.Contains(t, out, "header")

	_, err = execute(t, "paginate", "--in", in, "--format", "yaml")
	assert.Error(t, err)
}

func TestRenderCmd_Verbose(t *testing.T) {
	in := writeJSON(t, "resume.json", sampleResume(2))
	out := filepath.Join(t.TempDir(), "out.pdf")

	stdout, err := execute(t, "render", "--in", in, "--out", out, "-v")
	require.NoError(t, err)
	assert.Contains(t, stdout, "LAYOUT")
	assert.Contains(t, stdout, "EXPORT")
}
