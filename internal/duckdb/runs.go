package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-mutsim/internal/annotate"
	"github.com/inodb/vibe-mutsim/internal/rng"
	"github.com/inodb/vibe-mutsim/internal/simulate"
)

// RunMeta describes how a simulation was produced.
type RunMeta struct {
	SeqID          string
	Input          FileFingerprint
	Seed           int64
	NumGenerations int
	Rates          simulate.Rates
	Dispatch       simulate.DispatchMode
	Algorithm      rng.Algorithm
}

// Run is a persisted simulation. Result carries the full mutation log and
// stats when returned by LoadRun, and only the summary fields when returned
// by ListRuns.
type Run struct {
	ID        string
	CreatedAt time.Time
	Meta      RunMeta
	Result    *simulate.Result
}

const runColumns = `run_id, created_at, seq_id, input_path, input_size, input_mtime,
	seed, generations, substitution_rate, insertion_rate, deletion_rate,
	dispatch, algorithm, reference_preview, final_sequence,
	total_mutations, final_length, avg_mutations_per_gen, fitness, warnings`

// SaveRun stores a simulation result and returns its generated run id.
func (s *Store) SaveRun(ctx context.Context, meta RunMeta, res *simulate.Result) (string, error) {
	if res == nil {
		return "", errors.New("save run: nil result")
	}
	id := uuid.NewString()

	var mtime sql.NullTime
	if meta.Input.Path != "" {
		mtime = sql.NullTime{Time: meta.Input.ModTime.UTC(), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO simulation_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), meta.SeqID, meta.Input.Path, meta.Input.Size, mtime,
		meta.Seed, int64(meta.NumGenerations),
		meta.Rates.Substitution, meta.Rates.Insertion, meta.Rates.Deletion,
		string(meta.Dispatch), string(meta.Algorithm),
		res.ReferenceSeq, res.CurrentSeq,
		int64(res.Summary.TotalMutations), int64(res.Summary.FinalLength),
		res.Summary.AvgMutationsPerGen, res.Summary.Fitness,
		strings.Join(res.Warnings, "\n"),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if err := s.appendRunRows(ctx, id, res); err != nil {
		s.discardRun(context.WithoutCancel(ctx), id)
		return "", err
	}

	return id, nil
}

// appendRunRows bulk-loads the mutation log and generation stats of run id.
func (s *Store) appendRunRows(ctx context.Context, id string, res *simulate.Result) error {
	if len(res.MutationLog) > 0 {
		if err := s.appendRows(ctx, "mutation_log", func(a *goduckdb.Appender) error {
			for i, m := range res.MutationLog {
				if err := a.AppendRow(
					id, int64(i), int64(m.Generation), int64(m.Position), int64(m.Index),
					string(m.Kind), m.Change, m.AminoAcidChange,
					m.Feature, m.Type, m.IsCoding,
				); err != nil {
					return fmt.Errorf("append mutation record: %w", err)
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	if len(res.Stats) > 0 {
		if err := s.appendRows(ctx, "generation_stats", func(a *goduckdb.Appender) error {
			for _, st := range res.Stats {
				if err := a.AppendRow(
					id, int64(st.Generation), int64(st.PopulationSize),
					int64(st.MutationCount), st.CodingDensity,
				); err != nil {
					return fmt.Errorf("append generation stats: %w", err)
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

// discardRun removes whatever SaveRun managed to write for id. Errors are
// ignored.
func (s *Store) discardRun(ctx context.Context, id string) {
	for _, table := range []string{"simulation_runs", "mutation_log", "generation_stats"} {
		s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, id)
	}
}

// LoadRun returns a stored run with its mutation log and generation stats.
func (s *Store) LoadRun(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM simulation_runs WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	runs, err := scanRuns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	run := runs[0]

	if run.Result.MutationLog, err = s.loadMutationLog(ctx, id); err != nil {
		return nil, err
	}
	if run.Result.Stats, err = s.loadStats(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns stored runs, newest first, without their mutation logs.
// A limit of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM simulation_runs ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, int64(limit))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// DeleteRun removes a run and its child rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM simulation_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	for _, table := range []string{"mutation_log", "generation_stats"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			r                        Run
			res                      simulate.Result
			mtime                    sql.NullTime
			generations, total, flen int64
			dispatch, alg, warnings  string
		)
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.Meta.SeqID, &r.Meta.Input.Path, &r.Meta.Input.Size, &mtime,
			&r.Meta.Seed, &generations,
			&r.Meta.Rates.Substitution, &r.Meta.Rates.Insertion, &r.Meta.Rates.Deletion,
			&dispatch, &alg, &res.ReferenceSeq, &res.CurrentSeq,
			&total, &flen, &res.Summary.AvgMutationsPerGen, &res.Summary.Fitness,
			&warnings,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if mtime.Valid {
			r.Meta.Input.ModTime = mtime.Time
		}
		r.Meta.NumGenerations = int(generations)
		r.Meta.Dispatch = simulate.DispatchMode(dispatch)
		r.Meta.Algorithm = rng.Algorithm(alg)
		res.Summary.TotalMutations = int(total)
		res.Summary.FinalLength = int(flen)
		res.Warnings = []string{}
		if warnings != "" {
			res.Warnings = strings.Split(warnings, "\n")
		}
		res.MutationLog = []simulate.MutationRecord{}
		res.Stats = []simulate.GenerationStats{}
		r.Result = &res
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) loadMutationLog(ctx context.Context, id string) ([]simulate.MutationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		generation, pos, idx, kind, change, amino_acid_change,
		feature, feature_type, is_coding
		FROM mutation_log WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query mutation log: %w", err)
	}
	defer rows.Close()

	log := []simulate.MutationRecord{}
	for rows.Next() {
		var (
			gen, pos, idx int64
			kind          string
			c             annotate.Classification
			m             simulate.MutationRecord
		)
		if err := rows.Scan(&gen, &pos, &idx, &kind, &m.Change, &m.AminoAcidChange,
			&c.Feature, &c.Type, &c.IsCoding); err != nil {
			return nil, fmt.Errorf("scan mutation record: %w", err)
		}
		m.Generation, m.Position, m.Index = int(gen), int(pos), int(idx)
		m.Kind = simulate.Kind(kind)
		m.Classification = c
		log = append(log, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutation log: %w", err)
	}
	return log, nil
}

func (s *Store) loadStats(ctx context.Context, id string) ([]simulate.GenerationStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		generation, population_size, mutation_count, coding_density
		FROM generation_stats WHERE run_id = ? ORDER BY generation`, id)
	if err != nil {
		return nil, fmt.Errorf("query generation stats: %w", err)
	}
	defer rows.Close()

	stats := []simulate.GenerationStats{}
	for rows.Next() {
		var gen, size, count int64
		var st simulate.GenerationStats
		if err := rows.Scan(&gen, &size, &count, &st.CodingDensity); err != nil {
			return nil, fmt.Errorf("scan generation stats: %w", err)
		}
		st.Generation, st.PopulationSize, st.MutationCount = int(gen), int(size), int(count)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation stats: %w", err)
	}
	return stats, nil
}
