package server

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jonathan/resume-layout/internal/db"
	"github.com/jonathan/resume-layout/internal/types"
)

// DBClient is the subset of *db.DB the server uses. Lookups of missing rows
// return nil, nil.
type DBClient interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)

	CreateResume(ctx context.Context, userID uuid.UUID, title string, resumeType types.ResumeType) (*types.Resume, error)
	GetResume(ctx context.Context, id uuid.UUID) (*types.Resume, error)
	ListResumes(ctx context.Context, userID uuid.UUID) ([]types.Resume, error)
	UpdateResume(ctx context.Context, id uuid.UUID, patch map[string]json.RawMessage) (*types.Resume, error)
	DeleteResume(ctx context.Context, id uuid.UUID) (bool, error)

	Close()
}

var _ DBClient = (*db.DB)(nil)
