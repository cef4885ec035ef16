package refiner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewerRequiresClient(t *testing.T) {
	_, err := NewReviewer(nil)
	assert.Error(t, err)
}

func TestCritiqueTrimsOutput(t *testing.T) {
	llm := &countingLLM{reply: "\n  Needs more evidence.  \n\n"}
	r, err := NewReviewer(llm)
	require.NoError(t, err)

	critique, err := r.Critique(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, "Needs more evidence.", critique)
	assert.Equal(t, reviewSystemPrompt, llm.last.System)
	assert.Equal(t, "doc", llm.last.User)
	assert.Nil(t, llm.last.Temperature, "critique runs at the model's default temperature")
}

func TestReviseBuildsPromptAndTrims(t *testing.T) {
	llm := &countingLLM{reply: "  revised text "}
	r, err := NewReviewer(llm)
	require.NoError(t, err)

	revision, err := r.Revise(context.Background(), "doc body", "the critique")
	require.NoError(t, err)
	assert.Equal(t, "revised text", revision)
	assert.Equal(t, revisionSystemPrompt, llm.last.System)
	assert.Contains(t, llm.last.User, "Original Document:\ndoc body")
	assert.Contains(t, llm.last.User, "Critique:\nthe critique")
	assert.Contains(t, llm.last.User, "Provide the revised document:")
}
