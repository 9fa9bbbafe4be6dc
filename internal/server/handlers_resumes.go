package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/resume-layout/internal/llm"
	"github.com/jonathan/resume-layout/internal/schemas"
	"github.com/jonathan/resume-layout/internal/server/middleware"
	"github.com/jonathan/resume-layout/internal/types"
)

var validate = validator.New()

// ownedResume loads the resume named by id and checks that the
// authenticated user owns it. Malformed IDs are reported as not found.
func (s *Server) ownedResume(r *http.Request, rawID string) (*types.Resume, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return nil, &ErrNotOwner{}
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, &ErrResumeNotFound{}
	}
	res, err := s.db.GetResume(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	if res == nil {
		return nil, &ErrResumeNotFound{ResumeID: id}
	}
	if res.UserID != userID {
		return nil, &ErrNotOwner{ResumeID: id}
	}
	return res, nil
}

// handleCreateResume handles POST /api/resume
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.CreateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	res, err := s.db.CreateResume(r.Context(), userID, req.Title, req.ResumeType)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// handleListResumes handles GET /api/resume, newest first
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	list, err := s.db.ListResumes(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// handleGetResume handles GET /api/resume/{id}
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	res, err := s.ownedResume(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// handleUpdateResume handles PUT /api/resume/{id}. The body holds the
// top-level fields to replace; the merged document must still be a valid
// resume.
func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	res, err := s.ownedResume(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch == nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	merged := res.Clone()
	if err := merged.ApplyPatch(patch); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := json.Marshal(merged)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := schemas.ValidateResumeJSON(doc); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			errorResponse(w, http.StatusBadRequest, ve.Error())
			return
		}
		writeError(w, err)
		return
	}

	updated, err := s.db.UpdateResume(r.Context(), res.ID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if updated == nil {
		writeError(w, &ErrResumeNotFound{ResumeID: res.ID})
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteResume handles DELETE /api/resume/{id} and disposes its
// layout session.
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	res, err := s.ownedResume(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.db.DeleteResume(r.Context(), res.ID); err != nil {
		writeError(w, err)
		return
	}
	s.sessions.Close(res.ID.String())
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Resume removed"})
}

// handleAnalyze handles POST /api/resume/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		errorResponse(w, http.StatusServiceUnavailable, "AI assistant is not configured")
		return
	}

	var req types.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentData == nil {
		errorResponse(w, http.StatusBadRequest, "Missing resume data")
		return
	}

	result, err := s.assistant.Analyze(r.Context(), req.CurrentData)
	if err != nil {
		log.Printf("[server] analysis failed: %v", err)
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

type generateResponse struct {
	*types.GenerationResult
	Resume *types.Resume `json:"resume,omitempty"`
}

// handleGenerate handles POST /api/resume/generate. The stored resume
// supplies type and personal details; currentData, when given, supplies
// the experience to rewrite.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		errorResponse(w, http.StatusServiceUnavailable, "AI assistant is not configured")
		return
	}

	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	stored, err := s.ownedResume(r, req.ResumeID)
	if err != nil {
		writeError(w, err)
		return
	}
	current := req.CurrentData
	if current == nil {
		current = stored
	}

	result, err := s.assistant.Generate(r.Context(), stored.ResumeType, stored.PersonalDetails, current)
	if err != nil {
		log.Printf("[server] generation failed: %v", err)
		writeError(w, err)
		return
	}

	resp := generateResponse{GenerationResult: result}
	if req.Apply {
		merged := llm.MergeGenerated(stored, result)
		ai, err := json.Marshal(merged.AIGenerated)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Resume, err = s.db.UpdateResume(r.Context(), stored.ID, map[string]json.RawMessage{"aiGenerated": ai})
		if err != nil {
			writeError(w, err)
			return
		}
	}
	jsonResponse(w, http.StatusOK, resp)
}
