// Package export turns a finished page list into a multi-page PDF with one
// physical page per logical page. Exporters never re-paginate.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/resume-layout/internal/paginate"
	"github.com/jonathan/resume-layout/internal/render"
)

// ErrNothingToExport is returned for a document without pages.
var ErrNothingToExport = errors.New("nothing to export")

// Export stages reported in ExportError.
const (
	StageLayout = "layout"
	StageDraw   = "draw"
	StageEncode = "encode"
	StagePrint  = "print"
	StageVerify = "verify"
	StageWrite  = "write"
)

// ExportError is an output-stage failure. It is never a pagination error and
// carries no partial output.
type ExportError struct {
	Stage string
	Cause error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed at %s: %v", e.Stage, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

func stageError(stage string, err error) error {
	var ee *ExportError
	if errors.As(err, &ee) {
		return err
	}
	return &ExportError{Stage: stage, Cause: err}
}

// Document is the unscaled page set to export. It has no view scale.
type Document struct {
	Title  string
	Author string
	Style  render.Style
	Pages  []paginate.Page
}

// Exporter produces PDF bytes for a document. Bytes are returned only when
// the whole document was produced.
type Exporter interface {
	Export(ctx context.Context, doc Document) ([]byte, error)
}

// FileName returns the download name for a candidate, e.g. "Asha_Rao_Resume.pdf".
func FileName(fullName string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(fullName) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			if space && b.Len() > 0 {
				b.WriteByte('_')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_':
			space = true
		}
	}
	if b.Len() == 0 {
		return "Resume.pdf"
	}
	return b.String() + "_Resume.pdf"
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partial PDF.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return stageError(StageWrite, fmt.Errorf("failed to create temp file: %w", err))
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return stageError(StageWrite, fmt.Errorf("failed to write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return stageError(StageWrite, fmt.Errorf("failed to close temp file: %w", err))
	}
	if err := os.Chmod(name, 0o644); err != nil {
		return stageError(StageWrite, fmt.Errorf("failed to chmod temp file: %w", err))
	}
	if err := os.Rename(name, path); err != nil {
		return stageError(StageWrite, fmt.Errorf("failed to rename %s: %w", name, err))
	}
	return nil
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// CountPages counts the page objects of an uncompressed-xref PDF.
func CountPages(pdf []byte) int {
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return 0
	}
	return len(pageObject.FindAll(pdf, -1))
}
