package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conflictengine/internal/model"
)

func TestParseSuggestions(t *testing.T) {
	text := `Here are my ideas:
[
  {"type": "split_task", "title": "Split it", "confidence": 72, "action_steps": ["first", "second"]},
  {"type": "reassign", "title": "Hand it over", "confidence": 110}
]
Hope that helps.`

	suggestions, err := parseSuggestions(text)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "split_task", suggestions[0].Type)
	assert.Equal(t, []string{"first", "second"}, suggestions[0].ActionSteps)
}

func TestParseSuggestionsNoArray(t *testing.T) {
	_, err := parseSuggestions("I cannot help with that.")
	assert.Error(t, err)

	_, err = parseSuggestions("]backwards[")
	assert.Error(t, err)
}

func TestAllowedTypesPerConflict(t *testing.T) {
	resource := allowedTypes(model.ConflictResource)
	assert.Contains(t, resource, "reassign")
	assert.NotContains(t, resource, "remove_dependency")

	dependency := allowedTypes(model.ConflictDependency)
	assert.Contains(t, dependency, "remove_dependency")
	assert.Contains(t, dependency, "custom")
}

func TestNewGenAIEnhancerRequiresKey(t *testing.T) {
	_, err := NewGenAIEnhancer("", "gemini-2.5-flash", 0)
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-5, 0, 100))
	assert.Equal(t, 100.0, clamp(110, 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}
