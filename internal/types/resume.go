// Package types provides type definitions for structured data used throughout the resume-layout system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LayoutMode switches the page budget, spacing constants and skills presentation.
type LayoutMode string

const (
	// LayoutStandard is the default single-column layout with generous spacing
	LayoutStandard LayoutMode = "standard"
	// LayoutCompact uses tighter padding and a 3-column skills grid
	LayoutCompact LayoutMode = "compact"
)

// ParseLayoutMode normalizes a mode string; anything unrecognized is standard.
func ParseLayoutMode(s string) LayoutMode {
	if strings.EqualFold(strings.TrimSpace(s), string(LayoutCompact)) {
		return LayoutCompact
	}
	return LayoutStandard
}

// ResumeType is the target profile a resume is written for
type ResumeType string

// Supported resume types
const (
	ResumeEngineering ResumeType = "Engineering"
	ResumeManagement  ResumeType = "Management"
	ResumeBanking     ResumeType = "Banking"
	ResumeFinance     ResumeType = "Finance"
	ResumeAnalytics   ResumeType = "Analytics"
	ResumeIT          ResumeType = "IT"
	ResumeCustom      ResumeType = "Custom"
)

// Resume is a complete resume record as stored by the data collaborator.
// A layout pass treats it as an immutable snapshot.
type Resume struct {
	ID              uuid.UUID       `json:"_id"`
	UserID          uuid.UUID       `json:"userId"`
	Title           string          `json:"title"`
	ResumeType      ResumeType      `json:"resumeType,omitempty"`
	Layout          LayoutMode      `json:"layout,omitempty"`
	PersonalDetails PersonalDetails `json:"personalDetails"`
	Education       []Education     `json:"education"`
	Experience      []Experience    `json:"experience"`
	Projects        []Project       `json:"projects"`
	Skills          []string        `json:"skills"`
	Certifications  []Certification `json:"certifications"`
	AIGenerated     AIGenerated     `json:"aiGenerated"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PersonalDetails holds the header and free-text fields of a resume
type PersonalDetails struct {
	FullName    string `json:"fullName,omitempty"`
	Role        string `json:"role,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Location    string `json:"location,omitempty"`
	LinkedIn    string `json:"linkedin,omitempty"`
	Objective   string `json:"objective,omitempty"`
	Declaration string `json:"declaration,omitempty"`
}

// Education is a single education entry. Marksheet is an uploaded file URL.
type Education struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Year        string `json:"year,omitempty"`
	GradeType   string `json:"gradeType,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Marksheet   string `json:"marksheet,omitempty"`
}

// Experience is a single employment entry
type Experience struct {
	Company  string `json:"company,omitempty"`
	Role     string `json:"role,omitempty"`
	Duration string `json:"duration,omitempty"`
	Details  string `json:"details,omitempty"`
}

// Project is a single project entry
type Project struct {
	Title        string `json:"title,omitempty"`
	Link         string `json:"link,omitempty"`
	Description  string `json:"description,omitempty"`
	Technologies string `json:"technologies,omitempty"`
}

// Certification is a single certification entry. Link may be an uploaded file URL.
type Certification struct {
	Name    string `json:"name,omitempty"`
	Details string `json:"details,omitempty"`
	Link    string `json:"link,omitempty"`
}

// AIGenerated holds text merged in from the AI collaborator. Non-empty values
// take precedence over the matching personal details.
type AIGenerated struct {
	CareerObjective string `json:"careerObjective,omitempty"`
	Declaration     string `json:"declaration,omitempty"`
}

// Summary returns the professional summary text shown on the resume.
func (r *Resume) Summary() string {
	if s := strings.TrimSpace(r.AIGenerated.CareerObjective); s != "" {
		return s
	}
	return strings.TrimSpace(r.PersonalDetails.Objective)
}

// DeclarationText returns the declaration text shown on the resume.
func (r *Resume) DeclarationText() string {
	if s := strings.TrimSpace(r.AIGenerated.Declaration); s != "" {
		return s
	}
	return strings.TrimSpace(r.PersonalDetails.Declaration)
}

// Clone returns a deep copy so a layout pass never observes later edits.
func (r *Resume) Clone() *Resume {
	if r == nil {
		return nil
	}
	c := *r
	c.Education = append([]Education(nil), r.Education...)
	c.Experience = append([]Experience(nil), r.Experience...)
	c.Projects = append([]Project(nil), r.Projects...)
	c.Skills = append([]string(nil), r.Skills...)
	c.Certifications = append([]Certification(nil), r.Certifications...)
	return &c
}

// immutableFields are never changed by a patch
var immutableFields = map[string]bool{"_id": true, "userId": true, "createdAt": true, "updatedAt": true}

// ApplyPatch shallow-merges a JSON patch: every top-level field present in
// patch replaces the whole field. Identity and timestamps are kept.
func (r *Resume) ApplyPatch(patch map[string]json.RawMessage) error {
	base, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal resume: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return fmt.Errorf("failed to unmarshal resume: %w", err)
	}
	for k, v := range patch {
		if immutableFields[k] {
			continue
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w", err)
	}
	var next Resume
	if err := json.Unmarshal(merged, &next); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	next.ID, next.UserID, next.CreatedAt, next.UpdatedAt = r.ID, r.UserID, r.CreatedAt, r.UpdatedAt
	*r = next
	return nil
}

// CreateResumeRequest represents the request to create an empty resume.
type CreateResumeRequest struct {
	Title      string     `json:"title" validate:"required,min=1,max=200"`
	ResumeType ResumeType `json:"resumeType" validate:"omitempty,oneof=Engineering Management Banking Finance Analytics IT Custom"`
}

// Validate validates the CreateResumeRequest using the validator.
func (r *CreateResumeRequest) Validate() error {
	return validator.New().Struct(r)
}
