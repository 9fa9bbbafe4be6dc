// Package blocks flattens a resume into the ordered sequence of content blocks
// that the measurement and pagination stages place on pages.
package blocks

import (
	"strings"

	"github.com/jonathan/resume-layout/internal/types"
)

// Kind identifies the visual role of a block
type Kind string

// Block kinds, in the vocabulary used by the renderer
const (
	KindHeader        Kind = "header"
	KindSectionTitle  Kind = "sectionTitle"
	KindParagraph     Kind = "paragraph"
	KindEducation     Kind = "educationEntry"
	KindExperience    Kind = "experienceEntry"
	KindProject       Kind = "projectEntry"
	KindSkills        Kind = "skillsList"
	KindCertification Kind = "certificationEntry"
)

// Section titles as printed on the page
const (
	TitleSummary        = "Professional Summary"
	TitleEducation      = "Education"
	TitleExperience     = "Experience"
	TitleProjects       = "Projects"
	TitleSkills         = "Skills"
	TitleCertifications = "Certifications"
	TitleDeclaration    = "Declaration"
)

// PlaceholderName is shown in the header when no name has been entered
const PlaceholderName = "Your Name"

// Block is the atomic unit of placement. It carries everything needed to
// render it without looking at its siblings; only the field matching Kind is
// set. SectionEnd marks the last block of a section, which carries the gap
// to the next section.
type Block struct {
	Kind          Kind                 `json:"kind"`
	SectionEnd    bool                 `json:"sectionEnd,omitempty"`
	Text          string               `json:"text,omitempty"`
	Header        *Header              `json:"header,omitempty"`
	Education     *types.Education     `json:"education,omitempty"`
	Experience    *types.Experience    `json:"experience,omitempty"`
	Project       *types.Project       `json:"project,omitempty"`
	Skills        []string             `json:"skills,omitempty"`
	Certification *types.Certification `json:"certification,omitempty"`
}

// Header is the personal-details banner at the top of the first page
type Header struct {
	FullName string `json:"fullName"`
	Role     string `json:"role,omitempty"`
	Location string `json:"location,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// ContactItems returns the non-empty contact fields in display order.
func (h *Header) ContactItems() []string {
	var items []string
	for _, s := range []string{h.Location, h.Phone, h.Email} {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	if strings.TrimSpace(h.LinkedIn) != "" {
		items = append(items, "LinkedIn")
	}
	return items
}

// Build converts a resume into its block sequence. Sections without data are
// omitted. The resume is not modified.
func Build(r *types.Resume) []Block {
	if r == nil {
		return nil
	}

	out := []Block{headerBlock(r.PersonalDetails)}

	if s := r.Summary(); s != "" {
		out = append(out, title(TitleSummary), Block{Kind: KindParagraph, Text: s})
	}

	var edu []Block
	for i := range r.Education {
		e := r.Education[i]
		if blank(e.Institution, e.Degree, e.Year, e.Grade) {
			continue
		}
		edu = append(edu, Block{Kind: KindEducation, Education: &e})
	}
	out = appendSection(out, TitleEducation, edu)

	var exp []Block
	for i := range r.Experience {
		e := r.Experience[i]
		if blank(e.Company, e.Role, e.Duration, e.Details) {
			continue
		}
		exp = append(exp, Block{Kind: KindExperience, Experience: &e})
	}
	out = appendSection(out, TitleExperience, exp)

	var proj []Block
	for i := range r.Projects {
		p := r.Projects[i]
		if blank(p.Title, p.Description, p.Technologies, p.Link) {
			continue
		}
		proj = append(proj, Block{Kind: KindProject, Project: &p})
	}
	out = appendSection(out, TitleProjects, proj)

	var skills []string
	for _, s := range r.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	if len(skills) > 0 {
		out = append(out, title(TitleSkills), Block{Kind: KindSkills, Skills: skills})
	}

	var certs []Block
	for i := range r.Certifications {
		c := r.Certifications[i]
		if blank(c.Name, c.Details) {
			continue
		}
		certs = append(certs, Block{Kind: KindCertification, Certification: &c})
	}
	out = appendSection(out, TitleCertifications, certs)

	if d := r.DeclarationText(); d != "" {
		out = append(out, title(TitleDeclaration), Block{Kind: KindParagraph, Text: d})
	}

	for i := 1; i < len(out); i++ {
		if out[i].Kind != KindSectionTitle && (i == len(out)-1 || out[i+1].Kind == KindSectionTitle) {
			out[i].SectionEnd = true
		}
	}
	return out
}

// Kinds returns the kind of every block, in order.
func Kinds(bs []Block) []Kind {
	kinds := make([]Kind, len(bs))
	for i, b := range bs {
		kinds[i] = b.Kind
	}
	return kinds
}

func headerBlock(pd types.PersonalDetails) Block {
	name := strings.TrimSpace(pd.FullName)
	if name == "" {
		name = PlaceholderName
	}
	return Block{Kind: KindHeader, Header: &Header{
		FullName: name,
		Role:     strings.TrimSpace(pd.Role),
		Location: pd.Location,
		Phone:    pd.Phone,
		Email:    pd.Email,
		LinkedIn: pd.LinkedIn,
	}}
}

func title(s string) Block {
	return Block{Kind: KindSectionTitle, Text: s}
}

func appendSection(out []Block, name string, entries []Block) []Block {
	if len(entries) == 0 {
		return out
	}
	out = append(out, title(name))
	return append(out, entries...)
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
