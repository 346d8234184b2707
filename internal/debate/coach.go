package debate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/ronpa/internal/llm"
	"github.com/abhisek/ronpa/internal/logging"
	"github.com/abhisek/ronpa/internal/store"
	"github.com/abhisek/ronpa/internal/stream"
)

// kindOpen is the stored turn that records the user's side when a session
// starts. It never appears in Session.Turns.
const kindOpen = "open"

// Sentinel errors.
var (
	ErrNoArgument = errors.New("no argument to answer yet")
	ErrNoSession  = errors.New("session not found")
)

// Config tunes the coach's requests and cache.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
	CacheSize   int64
	CacheTTL    time.Duration
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
		CacheSize:   defaultCacheSize,
		CacheTTL:    defaultCacheTTL,
	}
}

// Coach drives sparring sessions against an LLM provider.
type Coach struct {
	provider llm.Provider
	turns    store.TurnRepo
	cache    *resultCache
	cfg      Config
	log      *slog.Logger
}

// NewCoach creates a coach. turns may be nil, in which case sessions live in
// memory only.
func NewCoach(provider llm.Provider, turns store.TurnRepo, cfg Config, logger *slog.Logger) *Coach {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Coach{
		provider: provider,
		turns:    turns,
		cache:    newResultCache(cfg.CacheSize, cfg.CacheTTL),
		cfg:      cfg,
		log:      logger,
	}
}

// Close releases the cache's background worker.
func (c *Coach) Close() {
	c.cache.stop()
}

// NewSession starts a round on motion with the user arguing side.
func (c *Coach) NewSession(ctx context.Context, motion string, side Side) (*Session, error) {
	motion = strings.TrimSpace(motion)
	if motion == "" {
		return nil, errors.New("motion is required")
	}
	s := &Session{ID: uuid.NewString(), Motion: motion, Side: side}
	if err := c.persist(ctx, s, Turn{Speaker: SpeakerUser, Kind: kindOpen, Text: string(side)}); err != nil {
		return nil, err
	}
	c.log.Debug("session started", "session", s.ID, "side", side)
	return s, nil
}

// Resume rebuilds a stored session.
func (c *Coach) Resume(ctx context.Context, sessionID string) (*Session, error) {
	if c.turns == nil {
		return nil, ErrNoSession
	}
	records, err := c.turns.Turns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoSession
	}

	s := &Session{ID: sessionID, Motion: records[0].Motion, Side: SideProposition}
	for _, r := range records {
		switch r.Kind {
		case kindOpen:
			s.Side = Side(r.Content)
			continue
		case KindEvaluation, KindHint:
			continue
		}
		s.Turns = append(s.Turns, Turn{Speaker: Speaker(r.Speaker), Kind: r.Kind, Text: r.Content})
	}
	return s, nil
}

// AddArgument records the user's next argument.
func (c *Coach) AddArgument(ctx context.Context, s *Session, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("argument is empty")
	}
	return c.append(ctx, s, Turn{Speaker: SpeakerUser, Kind: KindArgument, Text: text})
}

// Rebut streams the coach's answer to the latest argument. onProgress receives
// the cumulative raw text as it arrives.
func (c *Coach) Rebut(ctx context.Context, s *Session, onProgress stream.ProgressFunc) (*Rebuttal, error) {
	if n := len(s.Turns); n == 0 || s.Turns[n-1].Speaker != SpeakerUser || s.Turns[n-1].Kind != KindArgument {
		return nil, ErrNoArgument
	}

	ctx = llm.WithPurpose(ctx, "rebut")
	resp, err := c.provider.GenerateStream(ctx, rebutRequest(s, c.cfg), onProgress)
	if err != nil {
		return nil, fmt.Errorf("rebut: %w", err)
	}

	var r Rebuttal
	if err := json.Unmarshal(resp.Content, &r); err != nil {
		return nil, fmt.Errorf("rebut: decode: %w", err)
	}
	if err := c.append(ctx, s, Turn{Speaker: SpeakerCoach, Kind: KindRebuttal, Text: r.String()}); err != nil {
		return nil, err
	}
	return &r, nil
}

// Evaluate scores the user's arguments so far. Repeated calls on an unchanged
// session are served from cache.
func (c *Coach) Evaluate(ctx context.Context, s *Session) (*Feedback, error) {
	if !hasArgument(s) {
		return nil, ErrNoArgument
	}
	key := Fingerprint("evaluate", s, "")
	if v, ok := c.cache.get(key); ok {
		return v.(*Feedback), nil
	}

	var fb Feedback
	if err := c.generate(llm.WithPurpose(ctx, "evaluate"), evaluateRequest(s, c.cfg), &fb); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	c.cache.set(key, &fb)
	c.record(ctx, s, KindEvaluation, fmt.Sprintf("%d/10 %s", fb.Score, fb.Advice))
	return &fb, nil
}

// Hint suggests how to strengthen draft before the user commits it.
func (c *Coach) Hint(ctx context.Context, s *Session, draft string) (*Hint, error) {
	draft = strings.TrimSpace(draft)
	key := Fingerprint("hint", s, draft)
	if v, ok := c.cache.get(key); ok {
		return v.(*Hint), nil
	}

	var h Hint
	if err := c.generate(llm.WithPurpose(ctx, "hint"), hintRequest(s, draft, c.cfg), &h); err != nil {
		return nil, fmt.Errorf("hint: %w", err)
	}
	c.cache.set(key, &h)
	c.record(ctx, s, KindHint, h.Suggestion)
	return &h, nil
}

func (c *Coach) generate(ctx context.Context, req llm.Request, out any) error {
	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Content, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// append adds t to the session and stores it.
func (c *Coach) append(ctx context.Context, s *Session, t Turn) error {
	if err := c.persist(ctx, s, t); err != nil {
		return err
	}
	s.Turns = append(s.Turns, t)
	return nil
}

// record stores a judge or hint result without adding it to the exchange,
// so cached fingerprints stay valid. Failures are logged only.
func (c *Coach) record(ctx context.Context, s *Session, kind, text string) {
	if err := c.persist(ctx, s, Turn{Speaker: SpeakerCoach, Kind: kind, Text: text}); err != nil {
		c.log.Warn("failed to record coach output", "session", s.ID, "kind", kind, "error", err)
	}
}

func (c *Coach) persist(ctx context.Context, s *Session, t Turn) error {
	if c.turns == nil {
		return nil
	}
	_, err := c.turns.AppendTurn(context.WithoutCancel(ctx), store.TurnData{
		SessionID: s.ID,
		Motion:    s.Motion,
		Speaker:   string(t.Speaker),
		Kind:      t.Kind,
		Content:   t.Text,
	})
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

func hasArgument(s *Session) bool {
	for _, t := range s.Turns {
		if t.Speaker == SpeakerUser && t.Kind == KindArgument {
			return true
		}
	}
	return false
}
