package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-mutsim/internal/diff"
)

// DiffRun is a persisted comparison between two sequences.
type DiffRun struct {
	ID        string
	CreatedAt time.Time
	RefID     string
	QueryID   string
	Summary   diff.Summary
	Records   []diff.Record
}

// SaveDiff stores the records of one comparison and returns its id.
func (s *Store) SaveDiff(ctx context.Context, refID, queryID string, records []diff.Record) (string, error) {
	id := uuid.NewString()
	sum := diff.Summarize(records)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sequence_diffs (diff_id, created_at, ref_id, query_id, substitutions, insertions, deletions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), refID, queryID,
		int64(sum.Substitutions), int64(sum.Insertions), int64(sum.Deletions),
	); err != nil {
		return "", fmt.Errorf("insert diff: %w", err)
	}

	if len(records) == 0 {
		return id, nil
	}
	err := s.appendRows(ctx, "diff_records", func(a *goduckdb.Appender) error {
		for _, r := range records {
			if err := a.AppendRow(id, int64(r.Pos), r.Ref, r.Alt, string(r.Type)); err != nil {
				return fmt.Errorf("append diff record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadDiff returns a stored comparison with its records in position order.
func (s *Store) LoadDiff(ctx context.Context, id string) (*DiffRun, error) {
	d := DiffRun{ID: id}
	var subs, ins, dels int64
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, ref_id, query_id, substitutions, insertions, deletions
		FROM sequence_diffs WHERE diff_id = ?`, id,
	).Scan(&d.CreatedAt, &d.RefID, &d.QueryID, &subs, &ins, &dels)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("diff %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query diff: %w", err)
	}
	d.Summary = diff.Summary{
		Substitutions: int(subs),
		Insertions:    int(ins),
		Deletions:     int(dels),
		Total:         int(subs + ins + dels),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pos, ref, alt, diff_type FROM diff_records WHERE diff_id = ? ORDER BY pos`, id)
	if err != nil {
		return nil, fmt.Errorf("query diff records: %w", err)
	}
	defer rows.Close()

	d.Records = []diff.Record{}
	for rows.Next() {
		var pos int64
		var typ string
		var r diff.Record
		if err := rows.Scan(&pos, &r.Ref, &r.Alt, &typ); err != nil {
			return nil, fmt.Errorf("scan diff record: %w", err)
		}
		r.Pos = int(pos)
		r.Type = diff.Type(typ)
		d.Records = append(d.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diff records: %w", err)
	}
	return &d, nil
}
