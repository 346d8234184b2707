package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{tableLLMEvents, tableTurns, tableSequence} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table name = %q, want %q", name, table)
		}
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/ronpa.db"

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Model: "m", Success: true}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Model: "m", Success: true}); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	events, err := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Sequence != 2 || events[1].Sequence != 1 {
		t.Errorf("sequences = %d,%d, want 2,1", events[0].Sequence, events[1].Sequence)
	}
}

func TestLLMEventAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	for i, purpose := range []string{"rebut", "evaluate", "rebut"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "gemini",
			Model:        "gemini-2.5-flash",
			Purpose:      purpose,
			InputTokens:  10 * (i + 1),
			OutputTokens: 5,
			TotalTokens:  10*(i+1) + 5,
			LatencyMs:    100,
			Streamed:     purpose == "rebut",
			Success:      true,
			RequestBody:  "[user]\nhello",
			ResponseBody: `{"claim":"x"}`,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Sequence <= all[1].Sequence {
		t.Errorf("expected newest first, got %d then %d", all[0].Sequence, all[1].Sequence)
	}
	if !all[0].Streamed || all[1].Streamed {
		t.Errorf("streamed flags = %v,%v", all[0].Streamed, all[1].Streamed)
	}
	if all[0].Timestamp.Before(before) {
		t.Errorf("timestamp %v before %v", all[0].Timestamp, before)
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(limited) != 1 || limited[0].Sequence != all[0].Sequence {
		t.Errorf("limit returned %+v", limited)
	}

	rebuts, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "rebut"})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(rebuts) != 2 {
		t.Errorf("rebut events = %d, want 2", len(rebuts))
	}

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: all[1].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 1 {
		t.Errorf("after events = %d, want 1", len(after))
	}

	future, err := repo.QueryLLMEvents(ctx, QueryOpts{From: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("query from: %v", err)
	}
	if len(future) != 0 {
		t.Errorf("future events = %d, want 0", len(future))
	}
}

func TestGetLLMEvent(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider:     "proxy",
		Model:        "gemini-2.5-flash",
		Purpose:      "hint",
		Success:      false,
		ErrorMessage: "Quota exceeded",
		RequestBody:  "[system]\nbe brief",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	if err != nil || len(events) != 1 {
		t.Fatalf("query: %v (%d events)", err, len(events))
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil {
		t.Fatal("expected event")
	}
	if e.ErrorMessage != "Quota exceeded" || e.Success {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.RequestBody != "[system]\nbe brief" {
		t.Errorf("request body = %q", e.RequestBody)
	}

	missing, err := repo.GetLLMEvent(ctx, events[0].ID+100)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing event, got %+v", missing)
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	rows := []LLMRequestEventData{
		{Model: "gemini-2.5-flash", Purpose: "rebut", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Model: "gemini-2.5-flash", Purpose: "rebut", InputTokens: 300, OutputTokens: 70, LatencyMs: 400, Success: true},
		{Model: "gemini-2.5-pro", Purpose: "evaluate", InputTokens: 10, OutputTokens: 1, LatencyMs: 50, Success: true},
	}
	for _, r := range rows {
		if err := repo.AppendLLMRequest(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	// Ordered by purpose name.
	if byPurpose[0].Purpose != "evaluate" || byPurpose[1].Purpose != "rebut" {
		t.Fatalf("unexpected order: %+v", byPurpose)
	}
	rebut := byPurpose[1]
	if rebut.Calls != 2 || rebut.InputTokens != 400 || rebut.OutputTokens != 120 || rebut.AvgLatencyMs != 300 {
		t.Errorf("rebut usage = %+v", rebut)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 {
		t.Fatalf("models = %d, want 2", len(byModel))
	}
	if byModel[0].Model != "gemini-2.5-flash" || byModel[0].Calls != 2 {
		t.Errorf("flash usage = %+v", byModel[0])
	}
}

func TestTurns(t *testing.T) {
	s := openTestStore(t)
	turns := s.TurnRepo()
	events := s.EventRepo()
	ctx := context.Background()

	session := uuid.NewString()
	other := uuid.NewString()

	first, err := turns.AppendTurn(ctx, TurnData{
		SessionID: session,
		Motion:    "This house would ban homework",
		Speaker:   SpeakerUser,
		Kind:      "argument",
		Content:   "Homework crowds out play.",
	})
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := events.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "rebut", Success: true}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if _, err := turns.AppendTurn(ctx, TurnData{SessionID: other, Speaker: SpeakerUser, Content: "elsewhere"}); err != nil {
		t.Fatalf("append other: %v", err)
	}
	second, err := turns.AppendTurn(ctx, TurnData{
		SessionID: session,
		Speaker:   SpeakerCoach,
		Kind:      "rebuttal",
		Content:   `{"claim":"Practice builds skill."}`,
	})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}

	// The LLM event and the other session's turn took sequences in between.
	if second.Sequence-first.Sequence != 3 {
		t.Errorf("sequence gap = %d, want 3", second.Sequence-first.Sequence)
	}

	got, err := turns.Turns(ctx, session)
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("turns = %d, want 2", len(got))
	}
	if got[0].Speaker != SpeakerUser || got[1].Speaker != SpeakerCoach {
		t.Errorf("speakers = %s,%s", got[0].Speaker, got[1].Speaker)
	}
	if got[0].Motion != "This house would ban homework" {
		t.Errorf("motion = %q", got[0].Motion)
	}
	if got[1].ID != second.ID {
		t.Errorf("id = %d, want %d", got[1].ID, second.ID)
	}

	none, err := turns.Turns(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("turns empty: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no turns, got %d", len(none))
	}
}

func TestAppendTurnRequiresSession(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.TurnRepo().AppendTurn(context.Background(), TurnData{Content: "x"}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}
