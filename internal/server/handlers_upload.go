package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/jonathan/resume-layout/internal/upload"
)

// multipart overhead allowed on top of upload.MaxSize
const formOverhead = 1 << 20

// handleUpload handles POST /api/upload (multipart field "file") and
// returns the public URL of the stored file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		errorResponse(w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxSize+formOverhead)
	file, header, err := r.FormFile(upload.FieldName)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, upload.ErrTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			errorResponse(w, http.StatusBadRequest, "No file uploaded")
		default:
			errorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		}
		return
	}
	defer file.Close()

	name, err := s.uploads.Save(header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUnsupportedType):
			errorResponse(w, http.StatusBadRequest, "Only images and PDFs are allowed!")
		case errors.Is(err, upload.ErrNoFile):
			errorResponse(w, http.StatusBadRequest, "No file uploaded")
		default:
			log.Printf("[upload] %v", err)
			writeError(w, err)
		}
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"url": publicURL(r, "/uploads/"+name)})
}

// handleServeUpload handles GET /uploads/{name}
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		http.NotFound(w, r)
		return
	}
	path, err := s.uploads.Path(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, path)
}

func publicURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host + path
}
