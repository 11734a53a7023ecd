package core

// history.go persists reconciliation runs so reports can be reopened and
// shared by ID. PostgresStore is used when a database is configured;
// MemoryStore keeps a bounded in-process history otherwise.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrRunNotFound is returned when a run ID is unknown or was purged.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored reconciliation.
type Run struct {
	ID            uuid.UUID `json:"id"`
	Profile       string    `json:"profile"`
	TimesheetFile string    `json:"timesheetFile"`
	PayrollFile   string    `json:"payrollFile"`
	CreatedAt     time.Time `json:"createdAt"`
	Report        *Report   `json:"report"`
}

// RunSummary is the list view of a run.
type RunSummary struct {
	ID            uuid.UUID `json:"id"`
	Profile       string    `json:"profile"`
	TimesheetFile string    `json:"timesheetFile"`
	PayrollFile   string    `json:"payrollFile"`
	CreatedAt     time.Time `json:"createdAt"`
	Total         int       `json:"total"`
	Correct       int       `json:"correct"`
	Issues        int       `json:"issues"`
}

func (r *Run) summary() RunSummary {
	s := RunSummary{
		ID:            r.ID,
		Profile:       r.Profile,
		TimesheetFile: r.TimesheetFile,
		PayrollFile:   r.PayrollFile,
		CreatedAt:     r.CreatedAt,
	}
	if r.Report != nil {
		s.Total = r.Report.Summary.Total
		s.Correct = r.Report.Summary.Correct
		s.Issues = s.Total - s.Correct
	}
	return s
}

// RunStore saves and retrieves runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	PurgeRuns(ctx context.Context, before time.Time) (int64, error)
}

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const runsSchema = `
CREATE TABLE IF NOT EXISTS reconciliation_runs (
    id             uuid PRIMARY KEY,
    profile        text NOT NULL,
    timesheet_file text NOT NULL DEFAULT '',
    payroll_file   text NOT NULL DEFAULT '',
    created_at     timestamptz NOT NULL,
    total          integer NOT NULL,
    correct        integer NOT NULL,
    report         jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS reconciliation_runs_created_at_idx
    ON reconciliation_runs (created_at DESC);`

// PostgresStore keeps runs in the reconciliation_runs table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store on db. Call EnsureSchema once at startup.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the runs table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, runsSchema); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	sum := run.summary()

	_, err = s.db.Exec(ctx, `
		INSERT INTO reconciliation_runs
			(id, profile, timesheet_file, payroll_file, created_at, total, correct, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		toPgUUID(run.ID), run.Profile, run.TimesheetFile, run.PayrollFile,
		run.CreatedAt, sum.Total, sum.Correct, report,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		pgID   pgtype.UUID
		report []byte
		run    Run
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, profile, timesheet_file, payroll_file, created_at, report
		FROM reconciliation_runs WHERE id = $1`, toPgUUID(id),
	).Scan(&pgID, &run.Profile, &run.TimesheetFile, &run.PayrollFile, &run.CreatedAt, &report)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run.ID = uuid.UUID(pgID.Bytes)
	run.Report = &Report{}
	if err := json.Unmarshal(report, run.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, profile, timesheet_file, payroll_file, created_at, total, correct
		FROM reconciliation_runs ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			pgID pgtype.UUID
			rs   RunSummary
		)
		if err := rows.Scan(&pgID, &rs.Profile, &rs.TimesheetFile, &rs.PayrollFile,
			&rs.CreatedAt, &rs.Total, &rs.Correct); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rs.ID = uuid.UUID(pgID.Bytes)
		rs.Issues = rs.Total - rs.Correct
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) PurgeRuns(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reconciliation_runs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// DefaultListLimit and MaxListLimit bound ListRuns.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// MemoryStore is an in-process RunStore holding at most capacity runs.
// The oldest run is evicted first.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[uuid.UUID]*Run
	order    []uuid.UUID
	capacity int
}

// NewMemoryStore creates a store; capacity <= 0 means 100.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryStore{runs: make(map[uuid.UUID]*Run), capacity: capacity}
}

func (s *MemoryStore) SaveRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run

	for len(s.order) > s.capacity {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) PurgeRuns(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	kept := s.order[:0]
	for _, id := range s.order {
		if s.runs[id].CreatedAt.Before(before) {
			delete(s.runs, id)
			purged++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return purged, nil
}
