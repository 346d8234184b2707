package debate

import (
	"fmt"
	"strings"

	"github.com/abhisek/ronpa/internal/llm"
)

const rebutSystem = `You are a sharp but fair debate sparring partner.
Motion: %q
You argue the %s. Your opponent argues the %s.
Rebut the opponent's latest argument directly. Attack its weakest premise,
give concrete evidence or examples, and end with one pointed question.
Keep the claim to one sentence and the reasoning under 80 words.
Respond with JSON only.`

const evaluateSystem = `You are an experienced debate judge.
Motion: %q
The debater argues the %s. Judge only the debater's turns (marked [debater]).
Score 0-10 for clarity, evidence and responsiveness combined. List concrete
strengths and weaknesses and give one piece of advice for the next round.
Respond with JSON only.`

const hintSystem = `You are a debate coach helping a student prepare a reply.
Motion: %q
The student argues the %s. Read the exchange and the student's draft, then
suggest one specific improvement and name the strongest counterpoint the
other side is likely to raise.
Respond with JSON only.`

// rebutRequest builds the conversation from the coach's point of view: the
// user's turns are user messages and the coach's are assistant messages.
func rebutRequest(s *Session, cfg Config) llm.Request {
	req := llm.Request{
		System:      fmt.Sprintf(rebutSystem, s.Motion, s.Side.Opponent(), s.Side),
		Schema:      rebuttalSchema,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Model:       cfg.Model,
	}
	for _, t := range s.Turns {
		if t.Kind != KindArgument && t.Kind != KindRebuttal {
			continue
		}
		role := llm.RoleUser
		if t.Speaker == SpeakerCoach {
			role = llm.RoleAssistant
		}
		req.Messages = append(req.Messages, llm.Message{Role: role, Content: t.Text})
	}
	return req
}

func evaluateRequest(s *Session, cfg Config) llm.Request {
	return llm.Request{
		System:    fmt.Sprintf(evaluateSystem, s.Motion, s.Side),
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: transcript(s)}},
		Schema:    feedbackSchema,
		MaxTokens: cfg.MaxTokens,
		Model:     cfg.Model,
	}
}

func hintRequest(s *Session, draft string, cfg Config) llm.Request {
	content := transcript(s) + "\n[draft]\n" + draft
	return llm.Request{
		System:      fmt.Sprintf(hintSystem, s.Motion, s.Side),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: content}},
		Schema:      hintSchema,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Model:       cfg.Model,
	}
}

// transcript renders the exchange for the judge and hint prompts.
func transcript(s *Session) string {
	var b strings.Builder
	for _, t := range s.Turns {
		if t.Kind != KindArgument && t.Kind != KindRebuttal {
			continue
		}
		label := "debater"
		if t.Speaker == SpeakerCoach {
			label = "opponent"
		}
		fmt.Fprintf(&b, "[%s]\n%s\n\n", label, t.Text)
	}
	if b.Len() == 0 {
		return "(no arguments yet)\n"
	}
	return b.String()
}
