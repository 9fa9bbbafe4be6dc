package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/session"
	"github.com/jonathan/resume-layout/internal/types"
)

// LayoutResponse is the committed page partition of a resume.
type LayoutResponse struct {
	Version   uint64     `json:"version"`
	Status    string     `json:"status"`
	Mode      string     `json:"mode"`
	PageCount int        `json:"pageCount"`
	Scale     float64    `json:"scale"`
	Pages     []PageView `json:"pages"`
}

// PageView summarises one page.
type PageView struct {
	Index    int           `json:"index"`
	Height   float64       `json:"height"`
	Overflow bool          `json:"overflow"`
	Blocks   []blocks.Kind `json:"blocks"`
}

// NewLayoutResponse summarises the committed pages of a session state.
func NewLayoutResponse(st session.State) LayoutResponse {
	resp := LayoutResponse{
		Version:   st.Version,
		Status:    string(st.Status),
		Mode:      string(st.PagesMode),
		PageCount: len(st.Pages),
		Scale:     st.Scale,
		Pages:     make([]PageView, 0, len(st.Pages)),
	}
	for _, p := range st.Pages {
		resp.Pages = append(resp.Pages, PageView{
			Index:    p.Index,
			Height:   p.Height,
			Overflow: p.Overflow,
			Blocks:   blocks.Kinds(p.Blocks),
		})
	}
	return resp
}

// layoutPass runs a fresh layout pass for the resume named in the path,
// honouring an optional ?mode= override.
func (s *Server) layoutPass(r *http.Request) (*session.Session, session.State, error) {
	res, err := s.ownedResume(r, r.PathValue("id"))
	if err != nil {
		return nil, session.State{}, err
	}
	if m := r.URL.Query().Get("mode"); m != "" {
		mode := types.LayoutMode(m)
		if mode != types.LayoutStandard && mode != types.LayoutCompact {
			return nil, session.State{}, &ErrValidation{Field: "mode", Message: "must be standard or compact"}
		}
		res.Layout = mode
	}

	sess := s.sessions.Open(res.ID.String())
	st, err := sess.Update(r.Context(), res)
	return sess, st, err
}

// handleLayout handles GET /api/resume/{id}/layout. While the measurement
// surface is not ready it answers 202 with status "generating".
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var width float64
	if v := r.URL.Query().Get("width"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			errorResponse(w, http.StatusBadRequest, "width must be a non-negative number")
			return
		}
		width = f
	}

	sess, st, err := s.layoutPass(r)
	switch {
	case errors.Is(err, session.ErrSuperseded):
		jsonResponse(w, http.StatusAccepted, map[string]any{"status": "generating", "version": st.Version})
		return
	case err != nil:
		writeError(w, err)
		return
	}
	if width > 0 {
		st.Scale = sess.Resize(width)
	}
	if st.Status == session.StatusNotReady {
		jsonResponse(w, http.StatusAccepted, map[string]any{"status": "generating", "version": st.Version})
		return
	}
	jsonResponse(w, http.StatusOK, NewLayoutResponse(st))
}

// handleExport handles GET /api/resume/{id}/export and streams the PDF as
// an attachment. Output failures answer 502 with the failing stage.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, st, err := s.layoutPass(r)
	if err != nil && !errors.Is(err, session.ErrSuperseded) {
		writeError(w, err)
		return
	}

	pdf, err := sess.Export(r.Context(), s.exporter)
	if err != nil {
		var ee *export.ExportError
		if errors.As(err, &ee) {
			log.Printf("[export] resume %s: %v", r.PathValue("id"), err)
			jsonResponse(w, http.StatusBadGateway, map[string]string{"error": ee.Error(), "stage": ee.Stage})
			return
		}
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(st.FullName)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("[export] failed to write response: %v", err)
	}
}
