package refiner

// IterationRecord is one pass's snapshot of the refinement loop: the
// document that was reviewed, the critique it drew, the revision that
// answered it, and the stopping evaluation for the pass. Revision
// equals Document when the pass produced no revision.
type IterationRecord struct {
	Iteration  int    `json:"iteration"`
	Document   string `json:"document"`
	Critique   string `json:"critique"`
	Revision   string `json:"revision"`
	Evaluation string `json:"evaluation"`
}

// Session is one complete run of the refinement loop for one input
// document. It is request-local: the Controller owns it for the
// duration of a single Run and nothing is shared across requests.
type Session struct {
	Document           string            `json:"document"`
	Loops              []IterationRecord `json:"loops"`
	FinalDocument      string            `json:"final_document"`
	StopReason         string            `json:"stop_reason"`
	RefinementComplete bool              `json:"refinement_complete"`
	LogFilename        string            `json:"log_filename"`
}

// StoppingDecision is the evaluator's verdict on whether another
// refinement pass is warranted. Reason is empty when continuing.
type StoppingDecision struct {
	ShouldContinue bool
	Reason         string
}
