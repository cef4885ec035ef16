package refiner

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Reviewer 负责执行协议里的单步操作：评审、修订、以及 nitpicking 判定。
type Reviewer struct {
	llm LLMClient
}

func NewReviewer(llm LLMClient) (*Reviewer, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Reviewer{llm: llm}, nil
}

// Critique asks the reviewer persona for a critique of document. The
// returned text is trimmed of surrounding whitespace.
func (r *Reviewer) Critique(ctx context.Context, document string) (string, error) {
	raw, err := r.llm.Complete(ctx, BuildCritiquePrompt(document))
	if err != nil {
		return "", fmt.Errorf("critique: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// Revise rewrites document so it addresses critique.
func (r *Reviewer) Revise(ctx context.Context, document, critique string) (string, error) {
	raw, err := r.llm.Complete(ctx, BuildRevisionPrompt(document, critique))
	if err != nil {
		return "", fmt.Errorf("revision: %w", err)
	}
	return strings.TrimSpace(raw), nil
}
