package core

import "time"

// Engine runs the reconciliation pipeline. It holds no per-run state and
// is safe for concurrent use.
type Engine struct {
	// Now supplies the processing date for the tenure rule.
	Now func() time.Time

	// HintDistance bounds near-miss identifier hints; 0 disables them.
	HintDistance int
}

// NewEngine returns an engine using the wall clock and default hints.
func NewEngine() *Engine {
	return &Engine{Now: time.Now, HintDistance: DefaultHintDistance}
}

// Reconcile compares a timesheet export with a payroll export.
// It returns either a complete report or exactly one of
// *HeaderNotFoundError and *MissingColumnError.
func Reconcile(timesheet, payroll RawTable, cfg RoleConfig) (*Report, error) {
	return NewEngine().Reconcile(timesheet, payroll, cfg)
}

// Reconcile compares a timesheet export with a payroll export.
func (e *Engine) Reconcile(timesheet, payroll RawTable, cfg RoleConfig) (*Report, error) {
	cfg = cfg.WithDefaults()

	ts, err := Prepare(timesheet, SourceTimesheet, cfg)
	if err != nil {
		return nil, err
	}
	pr, err := Prepare(payroll, SourcePayroll, cfg)
	if err != nil {
		return nil, err
	}
	return e.ReconcilePrepared(ts, pr, cfg), nil
}

// PreparedSource is one source after header resolution, normalization
// and aggregation.
type PreparedSource struct {
	Binding     ColumnBinding
	Records     []EmployeeRecord
	Diagnostics SourceDiagnostics
}

// Prepare runs HeaderResolver, RecordNormalizer and Aggregator on one table.
func Prepare(t RawTable, src Source, cfg RoleConfig) (*PreparedSource, error) {
	cfg = cfg.WithDefaults()
	sc := cfg.Source(src)

	match, err := ResolveHeader(t, src, sc.HeaderGroups(), cfg.ScanRows)
	if err != nil {
		return nil, err
	}

	binding, err := BindColumns(src, match.Header, sc)
	if err != nil {
		return nil, err
	}
	binding.HeaderRow = match.Row

	records, stats := NormalizeRecords(match.Data, binding, sc, cfg)
	aggregated := Aggregate(records)

	return &PreparedSource{
		Binding:     binding,
		Records:     aggregated,
		Diagnostics: newSourceDiagnostics(t.Name, binding, stats, len(aggregated)),
	}, nil
}

// ReconcilePrepared joins two prepared sources, classifies every entry and
// builds the report.
func (e *Engine) ReconcilePrepared(timesheet, payroll *PreparedSource, cfg RoleConfig) *Report {
	cfg = cfg.WithDefaults()
	now := e.now()

	entries := Join(timesheet.Records, payroll.Records)
	classifier := NewClassifier(cfg.Policy, timesheet.Binding, payroll.Binding, now)

	results := make([]Classification, len(entries))
	for i, entry := range entries {
		results[i] = classifier.Classify(entry)
	}
	AttachHints(results, e.HintDistance)

	return BuildReport(cfg.Key, now, results, Diagnostics{
		Timesheet: timesheet.Diagnostics,
		Payroll:   payroll.Diagnostics,
	})
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
