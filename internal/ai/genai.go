package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"conflictengine/internal/logging"
	"conflictengine/internal/model"
)

// GenAIEnhancer asks a Gemini model for additional remediation ideas.
type GenAIEnhancer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIEnhancer creates a Gemini-backed enhancer.
func NewGenAIEnhancer(apiKey, modelName string, timeout time.Duration) (*GenAIEnhancer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIEnhancer{client: client, model: modelName, timeout: timeout}, nil
}

// aiSuggestion is the JSON shape the model is asked to produce.
type aiSuggestion struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	ActionSteps []string `json:"action_steps"`
}

// Enhance requests extra suggestions for the conflict. The call is bounded
// by the configured timeout regardless of the caller's context.
func (e *GenAIEnhancer) Enhance(ctx context.Context, conflict *model.Conflict, basic []model.Resolution) ([]model.Resolution, error) {
	timer := logging.StartTimer(logging.CategoryAI, "Enhance")
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt, err := e.buildPrompt(conflict, basic)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI enhance failed: %w", err)
	}

	suggestions, err := parseSuggestions(resp.Text())
	if err != nil {
		return nil, err
	}

	var out []model.Resolution
	for _, s := range suggestions {
		rt := model.ResolutionType(s.Type)
		if !model.Compatible(conflict.Type, rt) {
			logging.Get(logging.CategoryAI).Warn("Dropping AI suggestion with type %q for %s conflict", s.Type, conflict.Type)
			continue
		}
		out = append(out, model.Resolution{
			ID:          uuid.NewString(),
			ConflictID:  conflict.ID,
			Type:        rt,
			Title:       s.Title,
			Description: s.Description,
			Confidence:  clamp(s.Confidence, 0, 100),
			ActionSteps: s.ActionSteps,
			Source:      model.SourceAI,
			CreatedAt:   time.Now().UTC(),
		})
	}
	logging.AI("Enhancer returned %d usable suggestion(s) for conflict %s", len(out), conflict.ID)
	return out, nil
}

func (e *GenAIEnhancer) buildPrompt(conflict *model.Conflict, basic []model.Resolution) (string, error) {
	conflictJSON, err := json.MarshalIndent(conflict, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode conflict: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are helping a project manager resolve a task conflict.\n\n")
	sb.WriteString("Conflict:\n")
	sb.Write(conflictJSON)
	sb.WriteString("\n\nExisting suggestions:\n")
	for _, r := range basic {
		fmt.Fprintf(&sb, "- [%s] %s (confidence %.0f)\n", r.Type, r.Title, r.Confidence)
	}
	fmt.Fprintf(&sb, `
Propose up to 3 additional or improved resolutions as a JSON array. Each
element: {"type": one of %s, "title": string, "description": string,
"confidence": number 0-100, "action_steps": [string, ...]}.
Return only the JSON array.`, allowedTypes(conflict.Type))
	return sb.String(), nil
}

func allowedTypes(ct model.ConflictType) string {
	all := []model.ResolutionType{
		model.ResolutionReassign, model.ResolutionReschedule, model.ResolutionAdjustDates,
		model.ResolutionRemoveDependency, model.ResolutionModifyDependency, model.ResolutionSplitTask,
		model.ResolutionReduceScope, model.ResolutionAddResources, model.ResolutionCustom,
	}
	var names []string
	for _, rt := range all {
		if model.Compatible(ct, rt) {
			names = append(names, string(rt))
		}
	}
	return strings.Join(names, "|")
}

// parseSuggestions is lenient about the model wrapping the array in prose:
// it parses from the first '[' to the last ']'.
func parseSuggestions(text string) ([]aiSuggestion, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in model response")
	}
	var suggestions []aiSuggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return suggestions, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
