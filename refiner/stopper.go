package refiner

import (
	"context"
	"fmt"
	"strings"
)

// MaxIterations is the hard ceiling on refinement passes per session.
const MaxIterations = 10

// Decide reports whether another refinement pass is warranted.
//
// The numeric checks run first and never touch the model: the safety
// ceiling bounds cost deterministically, and the first pass always
// continues because there is no previous critique to compare against.
// Past those, the judge prompt classifies the drift between the two
// critiques; any occurrence of NITPICKING in the uppercased verdict
// stops the loop. A failed judge call is an error, never a silent
// stop-or-continue.
func (r *Reviewer) Decide(ctx context.Context, current, previous string, iteration int) (StoppingDecision, error) {
	if iteration >= MaxIterations {
		return StoppingDecision{
			Reason: fmt.Sprintf("Maximum safety limit reached (%d iterations)", MaxIterations),
		}, nil
	}
	if iteration == 1 {
		return StoppingDecision{ShouldContinue: true}, nil
	}

	raw, err := r.llm.Complete(ctx, BuildJudgePrompt(previous, current))
	if err != nil {
		return StoppingDecision{}, fmt.Errorf("stopping evaluation: %w", err)
	}

	verdict := strings.ToUpper(strings.TrimSpace(raw))
	if strings.Contains(verdict, "NITPICKING") {
		return StoppingDecision{
			Reason: "Critique devolved into nitpicking rather than substantive feedback",
		}, nil
	}
	return StoppingDecision{ShouldContinue: true}, nil
}
