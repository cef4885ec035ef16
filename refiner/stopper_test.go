package refiner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLLM struct {
	calls int
	reply string
	err   error
	last  Prompt
}

func (c *countingLLM) Complete(_ context.Context, p Prompt) (string, error) {
	c.calls++
	c.last = p
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func TestDecideSafetyCeiling(t *testing.T) {
	llm := &countingLLM{reply: "SUBSTANTIVE"}
	r, err := NewReviewer(llm)
	require.NoError(t, err)

	for _, iteration := range []int{10, 11, 25} {
		dec, err := r.Decide(context.Background(), "current", "previous", iteration)
		require.NoError(t, err)
		assert.False(t, dec.ShouldContinue)
		assert.Contains(t, dec.Reason, "Maximum safety limit reached (10 iterations)")
	}
	assert.Zero(t, llm.calls, "ceiling check must not call the model")
}

func TestDecideFirstIterationAlwaysContinues(t *testing.T) {
	llm := &countingLLM{reply: "NITPICKING"}
	r, err := NewReviewer(llm)
	require.NoError(t, err)

	dec, err := r.Decide(context.Background(), "any critique whatsoever", "", 1)
	require.NoError(t, err)
	assert.True(t, dec.ShouldContinue)
	assert.Empty(t, dec.Reason)
	assert.Zero(t, llm.calls, "first pass must not call the model")
}

func TestDecideVerdictClassification(t *testing.T) {
	cases := []struct {
		name         string
		verdict      string
		wantContinue bool
	}{
		{"bare token", "NITPICKING", false},
		{"token with trailing text", "NITPICKING - minor wording", false},
		{"mixed case", "Nitpicking about semantics only", false},
		{"substantive sentence", "The feedback is still SUBSTANTIVE", true},
		{"unrelated reply", "I cannot judge this.", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &countingLLM{reply: tc.verdict}
			r, err := NewReviewer(llm)
			require.NoError(t, err)

			dec, err := r.Decide(context.Background(), "current critique", "previous critique", 2)
			require.NoError(t, err)
			assert.Equal(t, tc.wantContinue, dec.ShouldContinue)
			if tc.wantContinue {
				assert.Empty(t, dec.Reason)
			} else {
				assert.Equal(t, "Critique devolved into nitpicking rather than substantive feedback", dec.Reason)
			}
			assert.Equal(t, 1, llm.calls)
		})
	}
}

func TestDecideJudgePromptShape(t *testing.T) {
	llm := &countingLLM{reply: "SUBSTANTIVE"}
	r, err := NewReviewer(llm)
	require.NoError(t, err)

	_, err = r.Decide(context.Background(), "second critique", "first critique", 2)
	require.NoError(t, err)

	assert.Empty(t, llm.last.System, "judge prompt carries no system message")
	require.NotNil(t, llm.last.Temperature)
	assert.Zero(t, *llm.last.Temperature)
	assert.Contains(t, llm.last.User, "first critique")
	assert.Contains(t, llm.last.User, "second critique")
	assert.Contains(t, llm.last.User, "'SUBSTANTIVE' or 'NITPICKING'")
}

func TestDecideJudgeErrorPropagates(t *testing.T) {
	boom := errors.New("rate limited")
	llm := &countingLLM{err: boom}
	r, err := NewReviewer(llm)
	require.NoError(t, err)

	dec, err := r.Decide(context.Background(), "current", "previous", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, dec.ShouldContinue)
	assert.Empty(t, dec.Reason)
}
