package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// turnRepo implements TurnRepo.
type turnRepo struct {
	db  *sql.DB
	seq *sequence
}

func (r *turnRepo) AppendTurn(ctx context.Context, data TurnData) (*TurnRecord, error) {
	if data.SessionID == "" {
		return nil, fmt.Errorf("append turn: session id is required")
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}
	now := time.Now().UTC()

	query, args := builder().Insert(tableTurns).
		Columns("sequence", "timestamp", "session_id", "motion", "speaker", "kind", "content").
		Values(seqNum, now.UnixMilli(), data.SessionID, data.Motion, data.Speaker, data.Kind, data.Content).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("save debate turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("debate turn id: %w", err)
	}

	return &TurnRecord{
		ID:        int(id),
		Sequence:  seqNum,
		Timestamp: time.UnixMilli(now.UnixMilli()).UTC(),
		TurnData:  data,
	}, nil
}

func (r *turnRepo) Turns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	query, args := builder().Select("id", "sequence", "timestamp", "session_id", "motion", "speaker", "kind", "content").
		From(entsql.Table(tableTurns)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query debate turns: %w", err)
	}
	defer rows.Close()

	var turns []TurnRecord
	for rows.Next() {
		var t TurnRecord
		var ts int64
		if err := rows.Scan(&t.ID, &t.Sequence, &ts, &t.SessionID, &t.Motion, &t.Speaker, &t.Kind, &t.Content); err != nil {
			return nil, fmt.Errorf("scan debate turn: %w", err)
		}
		t.Timestamp = time.UnixMilli(ts).UTC()
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
