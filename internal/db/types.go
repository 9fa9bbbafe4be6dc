package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-layout/internal/types"
)

// User represents an account row
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// resumeContent is the JSONB document holding every resume section
type resumeContent struct {
	PersonalDetails types.PersonalDetails `json:"personalDetails"`
	Education       []types.Education     `json:"education"`
	Experience      []types.Experience    `json:"experience"`
	Projects        []types.Project       `json:"projects"`
	Skills          []string              `json:"skills"`
	Certifications  []types.Certification `json:"certifications"`
	AIGenerated     types.AIGenerated     `json:"aiGenerated"`
}

func contentOf(r *types.Resume) resumeContent {
	return resumeContent{
		PersonalDetails: r.PersonalDetails,
		Education:       nonNil(r.Education),
		Experience:      nonNil(r.Experience),
		Projects:        nonNil(r.Projects),
		Skills:          nonNil(r.Skills),
		Certifications:  nonNil(r.Certifications),
		AIGenerated:     r.AIGenerated,
	}
}

func (c resumeContent) applyTo(r *types.Resume) {
	r.PersonalDetails = c.PersonalDetails
	r.Education = nonNil(c.Education)
	r.Experience = nonNil(c.Experience)
	r.Projects = nonNil(c.Projects)
	r.Skills = nonNil(c.Skills)
	r.Certifications = nonNil(c.Certifications)
	r.AIGenerated = c.AIGenerated
}

// nonNil keeps empty sections as [] rather than null in stored JSON
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
