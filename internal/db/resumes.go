package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-layout/internal/types"
)

const resumeColumns = `id, user_id, title, resume_type, layout, content, created_at, updated_at`

// CreateResume inserts an empty resume owned by userID.
func (db *DB) CreateResume(ctx context.Context, userID uuid.UUID, title string, resumeType types.ResumeType) (*types.Resume, error) {
	if resumeType == "" {
		resumeType = types.ResumeCustom
	}
	r := &types.Resume{UserID: userID, Title: title, ResumeType: resumeType, Layout: types.LayoutStandard}
	content, err := json.Marshal(contentOf(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume content: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, resume_type, layout, content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+resumeColumns,
		userID, title, string(resumeType), string(r.Layout), content,
	)
	created, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return created, nil
}

// GetResume retrieves a resume by ID. Returns nil, nil when not found.
func (db *DB) GetResume(ctx context.Context, id uuid.UUID) (*types.Resume, error) {
	r, err := scanResume(db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return r, nil
}

// ListResumes returns a user's resumes, most recently updated first.
func (db *DB) ListResumes(ctx context.Context, userID uuid.UUID) ([]types.Resume, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []types.Resume{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

// UpdateResume applies a shallow patch of top-level fields inside a
// transaction and returns the stored result. Returns nil, nil when not found.
func (db *DB) UpdateResume(ctx context.Context, id uuid.UUID, patch map[string]json.RawMessage) (*types.Resume, error) {
	var updated *types.Resume
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		current, err := scanResume(tx.QueryRow(ctx,
			`SELECT `+resumeColumns+` FROM resumes WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := current.ApplyPatch(patch); err != nil {
			return err
		}
		content, err := json.Marshal(contentOf(current))
		if err != nil {
			return fmt.Errorf("failed to marshal resume content: %w", err)
		}
		updated, err = scanResume(tx.QueryRow(ctx,
			`UPDATE resumes
			 SET title = $2, resume_type = $3, layout = $4, content = $5, updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+resumeColumns,
			id, current.Title, string(current.ResumeType), string(types.ParseLayoutMode(string(current.Layout))), content,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update resume: %w", err)
	}
	return updated, nil
}

// DeleteResume deletes a resume. Returns false when it did not exist.
func (db *DB) DeleteResume(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete resume: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func scanResume(row pgx.Row) (*types.Resume, error) {
	var (
		r          types.Resume
		resumeType string
		layout     string
		content    []byte
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &resumeType, &layout, &content, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ResumeType = types.ResumeType(resumeType)
	r.Layout = types.ParseLayoutMode(layout)

	var c resumeContent
	if len(content) > 0 {
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resume content: %w", err)
		}
	}
	c.applyTo(&r)
	return &r, nil
}
