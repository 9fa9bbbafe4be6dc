package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jonathan/resume-layout/internal/prompts"
	"github.com/jonathan/resume-layout/internal/types"
)

const promptFile = "assist.json"

// AssistError is a failed AI call. Op is "analyze" or "generate".
type AssistError struct {
	Op    string
	Cause error
}

func (e *AssistError) Error() string {
	return fmt.Sprintf("failed to %s resume: %v", e.Op, e.Cause)
}

func (e *AssistError) Unwrap() error {
	return e.Cause
}

// Assistant critiques resumes and writes summary text with a model.
type Assistant struct {
	client  Client
	tier    ModelTier
	verbose bool
}

// NewAssistant returns an assistant using the standard tier.
func NewAssistant(client Client, verbose bool) *Assistant {
	return &Assistant{client: client, tier: TierStandard, verbose: verbose}
}

// Analyze asks the model for improvement suggestions.
func (a *Assistant) Analyze(ctx context.Context, r *types.Resume) (*types.AnalysisResult, error) {
	if r == nil {
		return nil, &AssistError{Op: "analyze", Cause: fmt.Errorf("missing resume data")}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, &AssistError{Op: "analyze", Cause: err}
	}
	prompt, err := prompts.Render(promptFile, "analyze-resume", map[string]string{"ResumeJSON": string(data)})
	if err != nil {
		return nil, &AssistError{Op: "analyze", Cause: err}
	}

	if a.verbose {
		log.Printf("[assist] analyzing resume for %q", r.PersonalDetails.FullName)
	}
	var result types.AnalysisResult
	if err := a.generate(ctx, prompt, &result); err != nil {
		return nil, &AssistError{Op: "analyze", Cause: err}
	}
	if result.OverallFeedback == "" && result.Improvements == nil {
		return nil, &AssistError{Op: "analyze", Cause: fmt.Errorf("response has no feedback")}
	}
	if result.Improvements == nil {
		result.Improvements = []types.Improvement{}
	}
	return &result, nil
}

// Generate asks the model for a career objective, a declaration and
// rewritten experience entries for the given resume type.
func (a *Assistant) Generate(ctx context.Context, resumeType types.ResumeType, personal types.PersonalDetails, r *types.Resume) (*types.GenerationResult, error) {
	var experience []types.Experience
	if r != nil {
		experience = r.Experience
	}
	if experience == nil {
		experience = []types.Experience{}
	}
	data, err := json.MarshalIndent(experience, "", "  ")
	if err != nil {
		return nil, &AssistError{Op: "generate", Cause: err}
	}
	if resumeType == "" {
		resumeType = types.ResumeCustom
	}

	prompt, err := prompts.Render(promptFile, "generate-content", map[string]string{
		"ResumeType":     string(resumeType),
		"FullName":       orDefault(personal.FullName, "Candidate"),
		"Role":           orDefault(personal.Role, "Professional"),
		"ExperienceJSON": string(data),
	})
	if err != nil {
		return nil, &AssistError{Op: "generate", Cause: err}
	}

	var result types.GenerationResult
	if err := a.generate(ctx, prompt, &result); err != nil {
		return nil, &AssistError{Op: "generate", Cause: err}
	}
	if result.CareerObjective == "" && result.Declaration == "" {
		return nil, &AssistError{Op: "generate", Cause: fmt.Errorf("response has no content")}
	}
	if result.ExperienceSuggestions == nil {
		result.ExperienceSuggestions = []types.ExperienceSuggestion{}
	}
	return &result, nil
}

func (a *Assistant) generate(ctx context.Context, prompt string, out any) error {
	text, err := a.client.GenerateJSON(ctx, prompt, a.tier)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(CleanJSONBlock(text)), out); err != nil {
		return fmt.Errorf("failed to parse model response: %w", err)
	}
	return nil
}

// MergeGenerated returns a copy of r with the generated objective and
// declaration stored as its AI overrides. Empty values keep the old text.
func MergeGenerated(r *types.Resume, g *types.GenerationResult) *types.Resume {
	out := r.Clone()
	if out == nil {
		out = &types.Resume{}
	}
	if g == nil {
		return out
	}
	if g.CareerObjective != "" {
		out.AIGenerated.CareerObjective = g.CareerObjective
	}
	if g.Declaration != "" {
		out.AIGenerated.Declaration = g.Declaration
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
