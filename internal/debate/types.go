// Package debate implements the sparring coach: it rebuts the user's
// arguments as they stream in, scores the exchange and suggests next moves.
package debate

import (
	"fmt"
	"strings"
)

// Side is the position a speaker argues.
type Side string

const (
	SideProposition Side = "proposition"
	SideOpposition  Side = "opposition"
)

// ParseSide accepts "proposition"/"opposition" and the short forms
// "pro"/"con".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proposition", "pro", "for", "gov":
		return SideProposition, nil
	case "opposition", "con", "against", "opp":
		return SideOpposition, nil
	}
	return "", fmt.Errorf("unknown side %q (want proposition or opposition)", s)
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideProposition {
		return SideOpposition
	}
	return SideProposition
}

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerCoach Speaker = "coach"
)

// Turn kinds.
const (
	KindArgument   = "argument"
	KindRebuttal   = "rebuttal"
	KindEvaluation = "evaluation"
	KindHint       = "hint"
)

// Turn is one contribution to the exchange.
type Turn struct {
	Speaker Speaker
	Kind    string
	Text    string
}

// Session is one sparring round on a motion. The user argues Side; the coach
// argues the opponent.
type Session struct {
	ID     string
	Motion string
	Side   Side
	Turns  []Turn
}

// Rebuttal is the coach's answer to the user's latest argument.
type Rebuttal struct {
	Claim     string   `json:"claim"`
	Reasoning string   `json:"reasoning"`
	Evidence  []string `json:"evidence"`
	Question  string   `json:"question"`
}

// String renders the rebuttal as a transcript turn.
func (r Rebuttal) String() string {
	var b strings.Builder
	b.WriteString(r.Claim)
	if r.Reasoning != "" {
		b.WriteString("\n")
		b.WriteString(r.Reasoning)
	}
	for _, e := range r.Evidence {
		b.WriteString("\n- ")
		b.WriteString(e)
	}
	if r.Question != "" {
		b.WriteString("\n")
		b.WriteString(r.Question)
	}
	return b.String()
}

// Feedback scores the user's performance so far.
type Feedback struct {
	Score      int      `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Advice     string   `json:"advice"`
}

// Hint suggests how to improve a draft argument.
type Hint struct {
	Suggestion   string `json:"suggestion"`
	Counterpoint string `json:"counterpoint"`
}
