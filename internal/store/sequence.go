package store

import (
	"context"
	"database/sql"
	"fmt"
)

const tableSequence = "global_sequence"

// sequence stamps every stored row with one store-wide increasing number, so
// LLM calls and debate turns can be ordered against each other even though
// they live in separate tables. The single UPDATE ... RETURNING is atomic,
// which is all the ordering needs.
type sequence struct {
	db *sql.DB
}

// Next reserves and returns the next number, starting at 1.
func (s *sequence) Next(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE `+tableSequence+` SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}
