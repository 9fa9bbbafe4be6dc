package blocks

import (
	"testing"

	"github.com/jonathan/resume-layout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullResume() *types.Resume {
	return &types.Resume{
		PersonalDetails: types.PersonalDetails{
			FullName:    "Asha Rao",
			Role:        "Backend Engineer",
			Email:       "asha@example.com",
			Phone:       "+91 98450 00000",
			Location:    "Bengaluru",
			LinkedIn:    "https://linkedin.com/in/asha",
			Objective:   "Manual objective",
			Declaration: "I hereby declare the above is true.",
		},
		Education: []types.Education{
			{Institution: "IIT Madras", Degree: "B.Tech CSE", Year: "2019"},
			{Institution: "DPS", Degree: "CBSE XII", Year: "2015"},
		},
		Experience: []types.Experience{
			{Company: "Acme", Role: "Engineer", Duration: "2019-2023", Details: "Built billing."},
		},
		Projects: []types.Project{
			{Title: "Paginator", Description: "Splits blocks into pages", Technologies: "Go"},
		},
		Skills:         []string{"Go", "PostgreSQL", " ", "Kubernetes"},
		Certifications: []types.Certification{{Name: "CKA", Details: "2022"}},
		AIGenerated:    types.AIGenerated{CareerObjective: "AI objective"},
	}
}

func TestBuild_FullResumeOrder(t *testing.T) {
	got := Build(fullResume())

	assert.Equal(t, []Kind{
		KindHeader,
		KindSectionTitle, KindParagraph,
		KindSectionTitle, KindEducation, KindEducation,
		KindSectionTitle, KindExperience,
		KindSectionTitle, KindProject,
		KindSectionTitle, KindSkills,
		KindSectionTitle, KindCertification,
		KindSectionTitle, KindParagraph,
	}, Kinds(got))

	assert.Equal(t, TitleSummary, got[1].Text)
	assert.Equal(t, "AI objective", got[2].Text)
	assert.Equal(t, TitleDeclaration, got[14].Text)
	assert.Equal(t, "I hereby declare the above is true.", got[15].Text)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, got[11].Skills)
}

func TestBuild_MarksSectionEnds(t *testing.T) {
	got := Build(fullResume())

	var ends []int
	for i, b := range got {
		if b.SectionEnd {
			ends = append(ends, i)
		}
	}
	// summary, second education entry, experience, project, skills,
	// certification and declaration
	assert.Equal(t, []int{2, 5, 7, 9, 11, 13, 15}, ends)
	assert.False(t, got[4].SectionEnd)
}

func TestBuild_OmitsEmptySections(t *testing.T) {
	r := &types.Resume{
		PersonalDetails: types.PersonalDetails{FullName: "Asha"},
		Experience:      []types.Experience{{Company: "Acme"}},
		Education:       []types.Education{{}},
		Skills:          []string{"", "  "},
	}

	got := Build(r)
	assert.Equal(t, []Kind{KindHeader, KindSectionTitle, KindExperience}, Kinds(got))
	assert.Equal(t, TitleExperience, got[1].Text)
}

func TestBuild_HeaderPlaceholder(t *testing.T) {
	got := Build(&types.Resume{})
	require.Len(t, got, 1)
	assert.Equal(t, PlaceholderName, got[0].Header.FullName)
	assert.Empty(t, got[0].Header.ContactItems())
}

func TestBuild_NilResume(t *testing.T) {
	assert.Empty(t, Build(nil))
}

func TestBuild_BlocksAreSelfContained(t *testing.T) {
	r := fullResume()
	got := Build(r)

	r.Education[0].Institution = "changed"
	assert.Equal(t, "IIT Madras", got[4].Education.Institution)
	assert.Equal(t, "DPS", got[5].Education.Institution)
}

func TestBuild_Deterministic(t *testing.T) {
	assert.Equal(t, Build(fullResume()), Build(fullResume()))
}

func TestHeader_ContactItems(t *testing.T) {
	h := Header{Location: "Pune", Email: "a@b.c", LinkedIn: "x"}
	assert.Equal(t, []string{"Pune", "a@b.c", "LinkedIn"}, h.ContactItems())
}
