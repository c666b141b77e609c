package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
	"github.com/xtding233/dicepool-sim/internal/sweep"
)

var ErrNotFound = errors.New("not found")

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Run is one persisted sweep.
type Run struct {
	ID         string    `json:"id"`
	Scenario   string    `json:"scenario"`
	MaxDice    int       `json:"max_dice"`
	MaxRerolls int       `json:"max_rerolls"`
	Trials     int       `json:"trials"`
	Seed       uint64    `json:"seed"`
	Blanks     bool      `json:"blanks"`
	Crits      bool      `json:"crits"`
	Status     string    `json:"status"`
	Cells      int       `json:"cells"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// StoredResult is one persisted sweep cell without its distribution.
type StoredResult struct {
	ID            int64        `json:"id"`
	RunID         string       `json:"run_id"`
	Combination   []dice.Color `json:"combination"`
	DiceCount     int          `json:"dice_count"`
	Rerolls       int          `json:"rerolls"`
	ExpectedValue float64      `json:"expected_value"`
	MissRate      float64      `json:"miss_rate"`
	StdDev        float64      `json:"std_dev"`
	P50           float64      `json:"p50"`
	P90           float64      `json:"p90"`
	P99           float64      `json:"p99"`
}

// SQLiteDB persists sweep runs and results.
type SQLiteDB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" is supported.
func Open(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL DEFAULT '',
			max_dice INTEGER NOT NULL,
			max_rerolls INTEGER NOT NULL,
			trials INTEGER NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			blanks INTEGER NOT NULL DEFAULT 1,
			crits INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL,
			cells INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			combination TEXT NOT NULL,
			dice_count INTEGER NOT NULL,
			rerolls INTEGER NOT NULL,
			expected_value REAL NOT NULL,
			miss_rate REAL NOT NULL,
			std_dev REAL NOT NULL,
			p50 REAL NOT NULL,
			p90 REAL NOT NULL,
			p99 REAL NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS distribution_points (
			result_id INTEGER NOT NULL,
			value INTEGER NOT NULL,
			pdf REAL NOT NULL,
			ccdf REAL NOT NULL,
			PRIMARY KEY (result_id, value),
			FOREIGN KEY (result_id) REFERENCES results(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id, dice_count, rerolls)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// CreateRun inserts a run in the running state and assigns its ID.
func (s *SQLiteDB) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Status = StatusRunning
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (
		id, scenario, max_dice, max_rerolls, trials, seed, blanks, crits, status, cells, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		run.ID, run.Scenario, run.MaxDice, run.MaxRerolls, run.Trials, int64(run.Seed),
		boolInt(run.Blanks), boolInt(run.Crits), run.Status, run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun records the final status and cell count of a run.
func (s *SQLiteDB) FinishRun(ctx context.Context, id, status string, cells int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, cells = ?, finished_at = ? WHERE id = ?`,
		status, cells, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run           Run
		seed          int64
		blanks, crits int
		created       string
		finished      sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT
		id, scenario, max_dice, max_rerolls, trials, seed, blanks, crits, status, cells, created_at, finished_at
		FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &run.Scenario, &run.MaxDice, &run.MaxRerolls, &run.Trials, &seed,
		&blanks, &crits, &run.Status, &run.Cells, &created, &finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Seed = uint64(seed)
	run.Blanks = blanks != 0
	run.Crits = crits != 0
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	if finished.Valid {
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	return &run, nil
}

// SaveResult stores one sweep cell and its distribution in a single transaction.
func (s *SQLiteDB) SaveResult(ctx context.Context, runID string, r sweep.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO results (
		run_id, combination, dice_count, rerolls, expected_value, miss_rate, std_dev, p50, p90, p99
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, joinColors(r.Combination), r.DiceCount, r.Rerolls, r.ExpectedValue, r.MissRate,
		r.Stats.StdDev, r.Stats.P50, r.Stats.P90, r.Stats.P99,
	)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO distribution_points (result_id, value, pdf, ccdf) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, p := range r.Distribution.Rows() {
		if _, err := stmt.ExecContext(ctx, id, p.Value, p.PDF, p.CCDF); err != nil {
			return 0, fmt.Errorf("insert distribution: %w", err)
		}
	}
	return id, tx.Commit()
}

// ListResults returns every cell of a run ordered by dice count, rerolls and insertion.
func (s *SQLiteDB) ListResults(ctx context.Context, runID string) ([]StoredResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, run_id, combination, dice_count, rerolls, expected_value, miss_rate, std_dev, p50, p90, p99
		FROM results WHERE run_id = ? ORDER BY dice_count, rerolls, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		var combo string
		if err := rows.Scan(&r.ID, &r.RunID, &combo, &r.DiceCount, &r.Rerolls,
			&r.ExpectedValue, &r.MissRate, &r.StdDev, &r.P50, &r.P90, &r.P99); err != nil {
			return nil, err
		}
		r.Combination = splitColors(combo)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Distribution loads the stored distribution of one result.
func (s *SQLiteDB) Distribution(ctx context.Context, resultID int64) (sim.Distribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value, pdf, ccdf FROM distribution_points WHERE result_id = ? ORDER BY value`, resultID)
	if err != nil {
		return sim.Distribution{}, fmt.Errorf("load distribution: %w", err)
	}
	defer rows.Close()

	var pts []sim.Point
	for rows.Next() {
		var p sim.Point
		if err := rows.Scan(&p.Value, &p.PDF, &p.CCDF); err != nil {
			return sim.Distribution{}, err
		}
		pts = append(pts, p)
	}
	if err := rows.Err(); err != nil {
		return sim.Distribution{}, err
	}
	if len(pts) == 0 {
		return sim.Distribution{}, fmt.Errorf("result %d: %w", resultID, ErrNotFound)
	}
	return sim.FromRows(pts), nil
}

// Sink returns a sweep sink that writes into runID.
func (s *SQLiteDB) Sink(runID string) sweep.Sink {
	return sweep.SinkFunc(func(ctx context.Context, r sweep.Result) error {
		_, err := s.SaveResult(ctx, runID, r)
		return err
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinColors(cs []dice.Color) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func splitColors(s string) []dice.Color {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]dice.Color, len(parts))
	for i, p := range parts {
		out[i] = dice.Color(p)
	}
	return out
}
