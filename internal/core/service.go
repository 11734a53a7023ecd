package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/payrecon/internal/logging"
)

// DefaultReconcileTimeout is the maximum duration for one reconciliation,
// including reading both workbooks.
const DefaultReconcileTimeout = 2 * time.Minute

// ErrUnknownProfile is returned when a profile key is not registered.
var ErrUnknownProfile = errors.New("unknown profile")

// Upload is one file received from a client.
type Upload struct {
	Name string
	Data []byte
}

// TableLoader turns an uploaded file into the raw tables it contains,
// one per sheet.
type TableLoader interface {
	Load(name string, data []byte) ([]RawTable, error)
}

// Service provides reconciliation runs, profile lookup and run history.
type Service struct {
	engine   *Engine
	loader   TableLoader
	store    RunStore
	limiter  *RunLimiter
	timeout  time.Duration
	scanRows int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEngine replaces the default engine.
func WithEngine(e *Engine) ServiceOption {
	return func(s *Service) { s.engine = e }
}

// WithRunLimiter replaces the default concurrency limiter.
func WithRunLimiter(l *RunLimiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

// WithTimeout bounds each reconciliation.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScanRows overrides the header search depth of every profile.
// Zero keeps each profile's own value.
func WithScanRows(n int) ServiceOption {
	return func(s *Service) {
		if n > MaxScanRows {
			n = MaxScanRows
		}
		s.scanRows = n
	}
}

// NewService creates a Service. A nil store keeps history in memory.
func NewService(loader TableLoader, store RunStore, opts ...ServiceOption) *Service {
	s := &Service{
		engine:  NewEngine(),
		loader:  loader,
		store:   store,
		timeout: DefaultReconcileTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewMemoryStore(0)
	}
	if s.limiter == nil {
		s.limiter = NewRunLimiter(DefaultMaxConcurrentRuns, DefaultMaxWaitTime)
	}
	return s
}

// Limiter exposes the run limiter for health reporting and shutdown.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// Store exposes the run store for the retention scheduler.
func (s *Service) Store() RunStore {
	return s.store
}

// ListProfiles returns all registered profiles.
func (s *Service) ListProfiles() []RoleConfig {
	return All()
}

// ListProfilesByGroup returns profiles organized by group.
func (s *Service) ListProfilesByGroup() map[string][]RoleConfig {
	result := make(map[string][]RoleConfig)
	for _, group := range Groups() {
		result[group] = ByGroup(group)
	}
	return result
}

// GetProfile returns a profile by key.
func (s *Service) GetProfile(key string) (RoleConfig, error) {
	cfg, ok := Get(key)
	if !ok {
		return RoleConfig{}, fmt.Errorf("%w: %s", ErrUnknownProfile, key)
	}
	return cfg, nil
}

// Reconcile reads both uploads, reconciles them under the named profile
// and stores the run. Header and column errors are returned as-is so the
// caller can show which source failed.
func (s *Service) Reconcile(ctx context.Context, profileKey string, timesheet, payroll Upload) (*Run, error) {
	cfg, err := s.GetProfile(profileKey)
	if err != nil {
		return nil, err
	}
	if s.scanRows > 0 {
		cfg.ScanRows = s.scanRows
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	log := logging.WithFields(ctx,
		"profile", cfg.Key,
		"timesheet_file", timesheet.Name,
		"payroll_file", payroll.Name,
		"client_ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)

	ts, err := s.prepare(ctx, timesheet, SourceTimesheet, cfg)
	if err != nil {
		log.Warn("reconciliation rejected", "source", SourceTimesheet, "error", err)
		return nil, err
	}
	pr, err := s.prepare(ctx, payroll, SourcePayroll, cfg)
	if err != nil {
		log.Warn("reconciliation rejected", "source", SourcePayroll, "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := s.engine.ReconcilePrepared(ts, pr, cfg)

	run := &Run{
		ID:            uuid.New(),
		Profile:       cfg.Key,
		TimesheetFile: timesheet.Name,
		PayrollFile:   payroll.Name,
		CreatedAt:     time.Now().UTC(),
		Report:        report,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		// The report is still useful without history.
		log.Error("save run failed", "run_id", run.ID, "error", err)
	}

	log.Info("reconciliation completed",
		"run_id", run.ID,
		"employees", report.Summary.Total,
		"correct", report.Summary.Correct,
		"inconsistent", report.Summary.Inconsistent,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return run, nil
}

// prepare loads one upload and returns the first sheet whose header and
// columns resolve. When no sheet resolves, the error of the first sheet
// is returned.
func (s *Service) prepare(ctx context.Context, up Upload, src Source, cfg RoleConfig) (*PreparedSource, error) {
	if len(up.Data) == 0 {
		return nil, fmt.Errorf("%s: no file provided", src.Label())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables, err := s.loader.Load(up.Name, up.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Label(), err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%s: empty file", src.Label())
	}

	var firstErr error
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prepared, err := Prepare(t, src, cfg)
		if err == nil {
			return prepared, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// GetRun returns a stored run.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRunNotFound
	}
	return s.store.GetRun(ctx, runID)
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	return s.store.ListRuns(ctx, limit)
}
