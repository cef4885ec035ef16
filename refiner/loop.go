package refiner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recursive_protocol_reviewer/auditlog"
)

// ErrEmptyDocument rejects a blank submission before any model call or
// audit write happens.
var ErrEmptyDocument = errors.New("document text is empty")

// Evaluation strings recorded on iteration records and in the audit
// trail. The web layer and the tests match on them verbatim.
const (
	evalReviewerSatisfied = "Reviewer indicated no substantive issues remain."
	evalStoppingMet       = "Stopping conditions met."
	evalContinuing        = "Continuing refinement (substantive issues remain)."
	evalRevisionError     = "Stopped due to revision generation error."
	evalCritiqueError     = "Stopped due to critique generation error."
)

// stopPhrase is the reviewer's literal termination contract. Matched by
// case-insensitive containment, not equality, because the model wraps
// the phrase in whatever prose it likes.
const stopPhrase = "no substantive issues remain"

// Controller drives one refinement session to a terminal state:
// critique, stopping evaluation, revision, repeat. It owns the Session
// exclusively for the duration of Run.
type Controller struct {
	reviewer *Reviewer
	audit    *auditlog.Logger
}

func NewController(reviewer *Reviewer, audit *auditlog.Logger) (*Controller, error) {
	if reviewer == nil {
		return nil, errors.New("reviewer is required")
	}
	if audit == nil {
		return nil, errors.New("audit logger is required")
	}
	return &Controller{reviewer: reviewer, audit: audit}, nil
}

// Run refines document until a stopping condition fires and returns the
// completed Session. On an oracle failure mid-loop the partial Session
// is returned alongside the error: iterations already recorded are
// never dropped, and the audit summary is still written so the trail
// stays honest.
func (c *Controller) Run(ctx context.Context, document string) (*Session, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return nil, ErrEmptyDocument
	}

	sess := &Session{
		Document:      document,
		FinalDocument: document,
		LogFilename:   time.Now().Format("20060102_150405") + ".txt",
	}

	current := document
	previous := ""
	iteration := 1
	summaryReason := ""

	for {
		critique, err := c.reviewer.Critique(ctx, current)
		if err != nil {
			// The failed iteration never produced a record. Re-label the
			// previous one (if any) and close out the trail.
			if n := len(sess.Loops); n > 0 {
				sess.Loops[n-1].Evaluation = evalCritiqueError
				if aerr := c.audit.AppendSummary(sess.LogFilename, n, evalCritiqueError); aerr != nil {
					return sess, errors.Join(err, aerr)
				}
			}
			return sess, err
		}

		sess.Loops = append(sess.Loops, IterationRecord{
			Iteration: iteration,
			Document:  current,
			Critique:  critique,
			Revision:  current,
		})
		rec := &sess.Loops[len(sess.Loops)-1]

		if strings.Contains(strings.ToLower(critique), stopPhrase) {
			rec.Evaluation = evalReviewerSatisfied
			if err := c.audit.AppendLoop(sess.LogFilename, iteration, current, critique, current, rec.Evaluation); err != nil {
				return sess, err
			}
			sess.FinalDocument = current
			sess.RefinementComplete = true
			sess.StopReason = rec.Evaluation
			summaryReason = rec.Evaluation
			break
		}

		decision, err := c.reviewer.Decide(ctx, critique, previous, iteration)
		if err != nil {
			// Unlike a critique failure, this iteration's record already
			// exists, so its audit entry is written before the summary.
			rec.Evaluation = evalCritiqueError
			if aerr := c.audit.AppendLoop(sess.LogFilename, iteration, current, critique, current, evalCritiqueError); aerr != nil {
				return sess, errors.Join(err, aerr)
			}
			if aerr := c.audit.AppendSummary(sess.LogFilename, len(sess.Loops), evalCritiqueError); aerr != nil {
				return sess, errors.Join(err, aerr)
			}
			return sess, err
		}

		if !decision.ShouldContinue {
			reason := decision.Reason
			if reason == "" {
				reason = evalStoppingMet
			}
			rec.Evaluation = reason
			if err := c.audit.AppendLoop(sess.LogFilename, iteration, current, critique, current, reason); err != nil {
				return sess, err
			}
			sess.FinalDocument = current
			sess.RefinementComplete = true
			sess.StopReason = reason
			summaryReason = reason
			break
		}

		revision, revErr := c.reviewer.Revise(ctx, current, critique)
		if revErr != nil {
			// Not a successful completion: RefinementComplete stays false.
			rec.Evaluation = evalRevisionError
			if err := c.audit.AppendLoop(sess.LogFilename, iteration, current, critique, current, evalRevisionError); err != nil {
				return sess, errors.Join(revErr, err)
			}
			sess.StopReason = evalRevisionError
			if err := c.audit.AppendSummary(sess.LogFilename, len(sess.Loops), evalRevisionError); err != nil {
				return sess, errors.Join(revErr, err)
			}
			return sess, revErr
		}

		rec.Revision = revision
		rec.Evaluation = evalContinuing
		if err := c.audit.AppendLoop(sess.LogFilename, iteration, current, critique, revision, evalContinuing); err != nil {
			return sess, err
		}

		previous = critique
		current = revision
		sess.FinalDocument = revision
		iteration++
	}

	if err := c.audit.AppendSummary(sess.LogFilename, len(sess.Loops), summaryReason); err != nil {
		return sess, err
	}
	return sess, nil
}

// Describe renders a one-line label for a session's outcome, used by
// the CLI output.
func Describe(sess *Session) string {
	if sess == nil {
		return "no session"
	}
	if sess.RefinementComplete {
		return fmt.Sprintf("complete after %d loop(s): %s", len(sess.Loops), sess.StopReason)
	}
	if sess.StopReason != "" {
		return fmt.Sprintf("stopped after %d loop(s): %s", len(sess.Loops), sess.StopReason)
	}
	return fmt.Sprintf("stopped after %d loop(s)", len(sess.Loops))
}
