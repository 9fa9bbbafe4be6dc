package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/llm"
	"github.com/jonathan/resume-layout/internal/measure"
	"github.com/jonathan/resume-layout/internal/upload"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrResumeNotFound indicates the resume does not exist
type ErrResumeNotFound struct {
	ResumeID uuid.UUID
}

func (e *ErrResumeNotFound) Error() string {
	return "resume not found"
}

// ErrNotOwner indicates the resume belongs to another user
type ErrNotOwner struct {
	ResumeID uuid.UUID
}

func (e *ErrNotOwner) Error() string {
	return "not authorized"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		exportErr *export.ExportError
		assistErr *llm.AssistError
	)
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrNotOwner:
		return http.StatusUnauthorized
	case *ErrUserNotFound, *ErrResumeNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, measure.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, export.ErrNothingToExport):
		return http.StatusUnprocessableEntity
	case errors.Is(err, upload.ErrNoFile), errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &exportErr), errors.As(err, &assistErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
