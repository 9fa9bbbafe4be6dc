package types

// Improvement is one suggested edit returned by resume analysis
type Improvement struct {
	Section    string `json:"section"`
	Index      int    `json:"index"`
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

// AnalysisResult is the AI critique of a resume
type AnalysisResult struct {
	Improvements    []Improvement `json:"improvements"`
	OverallFeedback string        `json:"overallFeedback"`
}

// ExperienceSuggestion is a rewritten experience entry
type ExperienceSuggestion struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	Details string `json:"details"`
}

// GenerationResult is AI-written resume content for review before merging
type GenerationResult struct {
	CareerObjective       string                 `json:"careerObjective"`
	Declaration           string                 `json:"declaration"`
	ExperienceSuggestions []ExperienceSuggestion `json:"experienceSuggestions"`
}

// AnalyzeRequest is the body of an analysis request
type AnalyzeRequest struct {
	CurrentData *Resume `json:"currentData" validate:"required"`
}

// GenerateRequest is the body of a generation request. With Apply set the
// generated objective and declaration are saved on the resume.
type GenerateRequest struct {
	ResumeID    string  `json:"resumeId" validate:"required,uuid"`
	CurrentData *Resume `json:"currentData,omitempty"`
	Apply       bool    `json:"apply,omitempty"`
}
