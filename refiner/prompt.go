package refiner

import "fmt"

// reviewSystemPrompt is the reviewer persona. The closing sentence is a
// contract: the loop watches the critique for that literal phrase to
// detect a satisfied reviewer.
const reviewSystemPrompt = "You are a rigorous peer reviewer applying The Recursive Protocol (TRP). " +
	"Focus ONLY on substantive issues:\n" +
	"- Methodological gaps or logical flaws\n" +
	"- Missing evidence or unsupported claims\n" +
	"- Unclear core arguments\n" +
	"- Bias or circular reasoning\n\n" +
	"- Do NOT implement citations or information that you cannot verify with your current knowledge." +
	"DO NOT critique:\n" +
	"- Minor wording choices or semantic phrasing\n" +
	"- Stylistic preferences\n" +
	"- Issues already addressed in prior revisions\n\n" +
	"If the document is methodologically sound, state: 'No substantive issues remain.'"

const revisionSystemPrompt = "You are revising a document based on peer review feedback. " +
	"Rewrite the document to address all critique points while preserving " +
	"the core content and intent. Return only the revised document text."

// BuildCritiquePrompt 生成评审提示词。
func BuildCritiquePrompt(document string) Prompt {
	return Prompt{System: reviewSystemPrompt, User: document}
}

// BuildRevisionPrompt 生成修订提示词。
func BuildRevisionPrompt(document, critique string) Prompt {
	user := fmt.Sprintf(
		"Original Document:\n%s\n\nCritique:\n%s\n\nProvide the revised document:",
		document, critique,
	)
	return Prompt{System: revisionSystemPrompt, User: user}
}

// BuildJudgePrompt asks the model whether the critique has drifted from
// substantive feedback into nitpicking. Sent without a system message
// and at zero temperature so the verdict is as deterministic as the
// model allows.
func BuildJudgePrompt(previous, current string) Prompt {
	user := fmt.Sprintf(
		"You are evaluating whether peer review feedback represents substantive "+
			"methodological concerns or has devolved into nitpicking and semantic quibbling. "+
			"Respond with ONLY 'SUBSTANTIVE' or 'NITPICKING'.\n\n"+
			"Previous critique:\n%s\n\nCurrent critique:\n%s\n\n"+
			"Has the critique shifted from addressing real methodological gaps to "+
			"nitpicking minor semantic issues or restating previous points?",
		previous, current,
	)
	zero := 0.0
	return Prompt{User: user, Temperature: &zero}
}
