package upload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
)

func newTestStore(t *testing.T) *Store {
	s, err := NewStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	s.suffx = func() int64 { return 42 }
	return s
}

func TestStore_Save(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Save("Marksheet.PNG", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "file-1700000000000-42.png", name)

	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestStore_SaveRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     error
	}{
		{"disallowed extension", "notes.txt", []byte("hello"), ErrUnsupportedType},
		{"content does not match extension", "photo.png", pdfHeader, ErrUnsupportedType},
		{"script renamed to pdf", "cert.pdf", []byte("#!/bin/sh\necho hi\n"), ErrUnsupportedType},
		{"empty file", "cert.pdf", nil, ErrNoFile},
		{"too large", "cert.pdf", append(append([]byte{}, pdfHeader...), bytes.Repeat([]byte("0"), MaxSize)...), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			_, err := s.Save(tt.filename, bytes.NewReader(tt.content))
			assert.ErrorIs(t, err, tt.want)

			entries, err := os.ReadDir(s.Dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestStore_Path(t *testing.T) {
	s := newTestStore(t)

	p, err := s.Path("file-1-2.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, s.Dir))

	for _, bad := range []string{"", "../secret", "sub/file-1-2.pdf", "other.pdf"} {
		_, err := s.Path(bad)
		assert.ErrorIs(t, err, os.ErrNotExist, bad)
	}
}
