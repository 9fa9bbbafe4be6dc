// Package upload stores user-supplied marksheets and certificates on disk.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// FieldName is the multipart field carrying the file.
const FieldName = "file"

// MaxSize is the largest accepted upload, in bytes.
const MaxSize = 5 << 20

var (
	// ErrNoFile is returned when the request carries no file.
	ErrNoFile = errors.New("no file uploaded")
	// ErrTooLarge is returned for files over MaxSize.
	ErrTooLarge = errors.New("file exceeds 5MB limit")
	// ErrUnsupportedType is returned unless both the extension and the
	// sniffed content are an image or a PDF.
	ErrUnsupportedType = errors.New("only images and PDFs are allowed")
)

// allowed maps accepted extensions to the MIME types their content may have
var allowed = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".pdf":  {"application/pdf"},
}

// Store saves uploads under Dir with generated names.
type Store struct {
	Dir string

	now   func() time.Time
	suffx func() int64
}

// NewStore creates dir if needed and returns a store writing into it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{
		Dir:   dir,
		now:   time.Now,
		suffx: func() int64 { return rand.Int64N(1e9) },
	}, nil
}

// Save validates and writes the content of an uploaded file named
// originalName. It returns the generated file name.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	mimes, ok := allowed[ext]
	if !ok {
		return "", ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrNoFile
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	if detected := mimetype.Detect(data); !mimetype.EqualsAny(detected.String(), mimes...) {
		return "", ErrUnsupportedType
	}

	name := fmt.Sprintf("%s-%d-%d%s", FieldName, s.now().UnixMilli(), s.suffx(), ext)
	if err := writeFile(filepath.Join(s.Dir, name), data); err != nil {
		return "", err
	}
	return name, nil
}

// Path resolves a stored file name. Names containing path separators or
// not produced by Save are rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasPrefix(name, FieldName+"-") {
		return "", os.ErrNotExist
	}
	return filepath.Join(s.Dir, name), nil
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write upload: %w", err)
	}
	return f.Close()
}
