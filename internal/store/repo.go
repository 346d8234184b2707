package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match (empty = any)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	LatencyMs    int64
	Streamed     bool
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns the event with the given ID, or nil if none exists.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)

	// LLMUsageByPurpose aggregates successful and failed calls per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates calls per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// Speakers recorded on debate turns.
const (
	SpeakerUser  = "user"
	SpeakerCoach = "coach"
)

// TurnData captures one debate turn.
type TurnData struct {
	SessionID string
	Motion    string
	Speaker   string // SpeakerUser or SpeakerCoach
	Kind      string // argument, rebuttal, evaluation, hint
	Content   string
}

// TurnRecord is a stored debate turn.
type TurnRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	TurnData
}

// TurnRepo provides append and read access to debate turns.
type TurnRepo interface {
	// AppendTurn records a turn and returns it with its sequence assigned.
	AppendTurn(ctx context.Context, data TurnData) (*TurnRecord, error)

	// Turns returns every turn of a session, oldest first.
	Turns(ctx context.Context, sessionID string) ([]TurnRecord, error)
}
