package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/resume-layout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResume(owner uuid.UUID, experience int) *types.Resume {
	r := &types.Resume{
		UserID:     owner,
		Title:      "Backend",
		ResumeType: types.ResumeEngineering,
		Layout:     types.LayoutStandard,
		PersonalDetails: types.PersonalDetails{
			FullName:  "Asha Rao",
			Role:      "Backend Engineer",
			Email:     "asha@example.com",
			Objective: "Build reliable systems.",
		},
		Education: []types.Education{{Institution: "IIT Madras", Degree: "B.Tech", Year: "2018"}},
		Skills:    []string{"Go", "PostgreSQL", "Kubernetes"},
	}
	for i := 0; i < experience; i++ {
		r.Experience = append(r.Experience, types.Experience{
			Company:  fmt.Sprintf("Company %d", i),
			Role:     "Engineer",
			Duration: "2019 - 2021",
			Details:  "Designed and shipped services handling millions of requests per day.",
		})
	}
	return r
}

func TestResumes_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	tok := env.token(t, owner)

	w := env.do(t, http.MethodPost, "/api/resume", tok, map[string]string{"title": "First", "resumeType": "IT"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[types.Resume](t, w)
	assert.Equal(t, owner, first.UserID)
	assert.Equal(t, types.ResumeIT, first.ResumeType)

	w = env.do(t, http.MethodPost, "/api/resume", tok, map[string]string{"title": "Second"})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[types.Resume](t, w)
	assert.Equal(t, types.ResumeCustom, second.ResumeType)

	env.db.put(sampleResume(uuid.New(), 1))

	w = env.do(t, http.MethodGet, "/api/resume", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]types.Resume](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestResumes_Create_Invalid(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, uuid.New())

	w := env.do(t, http.MethodPost, "/api/resume", tok, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/resume", tok, map[string]string{"title": "x", "resumeType": "Astronaut"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.db.resumes)
}

func TestResumes_Get_Ownership(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	res := env.db.put(sampleResume(owner, 1))

	tests := []struct {
		name   string
		user   uuid.UUID
		id     string
		status int
	}{
		{name: "owner", user: owner, id: res.ID.String(), status: http.StatusOK},
		{name: "other user", user: uuid.New(), id: res.ID.String(), status: http.StatusUnauthorized},
		{name: "unknown id", user: owner, id: uuid.NewString(), status: http.StatusNotFound},
		{name: "malformed id", user: owner, id: "not-a-uuid", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/resume/"+tt.id, env.token(t, tt.user), nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestResumes_Update(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	res := env.db.put(sampleResume(owner, 1))

	w := env.do(t, http.MethodPut, "/api/resume/"+res.ID.String(), env.token(t, owner), map[string]any{
		"skills": []string{"Rust"},
		"layout": "compact",
		"_id":    uuid.NewString(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[types.Resume](t, w)
	assert.Equal(t, res.ID, updated.ID)
	assert.Equal(t, []string{"Rust"}, updated.Skills)
	assert.Equal(t, types.LayoutCompact, updated.Layout)
	assert.Equal(t, "Asha Rao", updated.PersonalDetails.FullName)
	assert.True(t, updated.UpdatedAt.After(res.UpdatedAt))
}

func TestResumes_Update_Invalid(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	res := env.db.put(sampleResume(owner, 1))
	path := "/api/resume/" + res.ID.String()
	tok := env.token(t, owner)

	tests := []struct {
		name string
		body any
	}{
		{name: "not json", body: "{"},
		{name: "null body", body: "null"},
		{name: "wrong field type", body: map[string]any{"skills": "go"}},
		{name: "unknown layout", body: map[string]any{"layout": "dense"}},
		{name: "unknown resume type", body: map[string]any{"resumeType": "Astronaut"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, path, tok, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	stored, err := env.db.GetResume(t.Context(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, types.LayoutStandard, stored.Layout)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, stored.Skills)
}

func TestResumes_Delete(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	res := env.db.put(sampleResume(owner, 1))
	path := "/api/resume/" + res.ID.String()
	tok := env.token(t, owner)

	w := env.do(t, http.MethodGet, path+"/layout", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.server.sessions.Len())

	w = env.do(t, http.MethodDelete, path, env.token(t, uuid.New()), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodDelete, path, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Resume removed", decode[map[string]string](t, w)["message"])
	assert.Equal(t, 0, env.server.sessions.Len())

	w = env.do(t, http.MethodGet, path, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResumes_Analyze(t *testing.T) {
	model := &fakeLLM{response: "```json\n" + `{"improvements":[{"section":"experience","index":0,"original":"a","suggestion":"b","reason":"c"}],"overallFeedback":"Solid."}` + "\n```"}
	env := newTestEnv(t, withAssistant(model))
	tok := env.token(t, uuid.New())

	w := env.do(t, http.MethodPost, "/api/resume/analyze", tok, map[string]any{"currentData": sampleResume(uuid.New(), 1)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[types.AnalysisResult](t, w)
	assert.Equal(t, "Solid.", result.OverallFeedback)
	require.Len(t, result.Improvements, 1)
	assert.Equal(t, "experience", result.Improvements[0].Section)

	w = env.do(t, http.MethodPost, "/api/resume/analyze", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing resume data", decode[map[string]string](t, w)["error"])
}

func TestResumes_Analyze_ModelFailure(t *testing.T) {
	env := newTestEnv(t, withAssistant(&fakeLLM{err: errors.New("quota exceeded")}))

	w := env.do(t, http.MethodPost, "/api/resume/analyze", env.token(t, uuid.New()), map[string]any{"currentData": sampleResume(uuid.New(), 1)})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestResumes_AssistantNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, uuid.New())

	for _, path := range []string{"/api/resume/analyze", "/api/resume/generate"} {
		w := env.do(t, http.MethodPost, path, tok, map[string]any{})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestResumes_Generate(t *testing.T) {
	model := &fakeLLM{response: `{"careerObjective":"Ship great software.","declaration":"All true.","experienceSuggestions":[{"company":"Company 0","role":"Engineer","details":"Led things."}]}`}
	env := newTestEnv(t, withAssistant(model))
	owner := uuid.New()
	res := env.db.put(sampleResume(owner, 1))
	tok := env.token(t, owner)

	w := env.do(t, http.MethodPost, "/api/resume/generate", tok, map[string]any{"resumeId": res.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "Ship great software.", resp["careerObjective"])
	assert.NotContains(t, resp, "resume")

	stored, err := env.db.GetResume(t.Context(), res.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AIGenerated.CareerObjective)
}

func TestResumes_Generate_Apply(t *testing.T) {
	model := &fakeLLM{response: `{"careerObjective":"Ship great software.","declaration":"All true.","experienceSuggestions":[]}`}
	env := newTestEnv(t, withAssistant(model))
	owner := uuid.New()
	res := env.db.put(sampleResume(owner, 1))

	w := env.do(t, http.MethodPost, "/api/resume/generate", env.token(t, owner), map[string]any{"resumeId": res.ID.String(), "apply": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[generateResponse](t, w)
	require.NotNil(t, resp.Resume)
	assert.Equal(t, "Ship great software.", resp.Resume.AIGenerated.CareerObjective)
	assert.Equal(t, "Ship great software.", resp.Resume.Summary())

	stored, err := env.db.GetResume(t.Context(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "All true.", stored.AIGenerated.Declaration)
}

func TestResumes_Generate_Invalid(t *testing.T) {
	env := newTestEnv(t, withAssistant(&fakeLLM{response: `{}`}))
	owner := uuid.New()
	res := env.db.put(sampleResume(owner, 1))

	w := env.do(t, http.MethodPost, "/api/resume/generate", env.token(t, owner), map[string]any{"resumeId": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/resume/generate", env.token(t, uuid.New()), map[string]any{"resumeId": res.ID.String()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// an empty model answer is an upstream failure
	w = env.do(t, http.MethodPost, "/api/resume/generate", env.token(t, owner), map[string]any{"resumeId": res.ID.String()})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
