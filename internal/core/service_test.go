package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// stubLoader returns canned tables keyed by file name.
type stubLoader struct {
	tables map[string][]RawTable
	err    error
}

func (l *stubLoader) Load(name string, _ []byte) ([]RawTable, error) {
	if l.err != nil {
		return nil, l.err
	}
	t, ok := l.tables[name]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %s", name)
	}
	return t, nil
}

func newTestService(t *testing.T, loader TableLoader) *Service {
	t.Helper()
	Clear()
	t.Cleanup(Clear)
	Register(testProfile(t))
	return NewService(loader, nil, WithEngine(testEngine()))
}

func TestService_Reconcile(t *testing.T) {
	cover := NewTextTable("Cover", [][]string{{"Rapport de paie"}, {"Mars 2024"}})
	loader := &stubLoader{tables: map[string][]RawTable{
		"pointage.xlsx": {testTimesheet()},
		"journal.xlsx":  {cover, testPayroll()},
	}}
	s := newTestService(t, loader)
	ctx := context.Background()

	run, err := s.Reconcile(ctx, "test",
		Upload{Name: "pointage.xlsx", Data: []byte("x")},
		Upload{Name: "journal.xlsx", Data: []byte("x")},
	)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if run.Profile != "test" || run.TimesheetFile != "pointage.xlsx" || run.PayrollFile != "journal.xlsx" {
		t.Errorf("run = %+v", run)
	}
	if run.Report.Summary.Sources.Payroll.Table != "Journal" {
		t.Errorf("payroll table = %q, want the first sheet that resolves", run.Report.Summary.Sources.Payroll.Table)
	}

	stored, err := s.GetRun(ctx, run.ID.String())
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if stored.Report != run.Report {
		t.Error("GetRun() should return the stored report")
	}

	list, err := s.ListRuns(ctx, 10)
	if err != nil || len(list) != 1 || list[0].ID != run.ID {
		t.Errorf("ListRuns() = %v, %v", list, err)
	}
	if s.Limiter().ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d after run, want 0", s.Limiter().ActiveCount())
	}
}

func TestService_Reconcile_Errors(t *testing.T) {
	loader := &stubLoader{tables: map[string][]RawTable{
		"pointage.xlsx": {testTimesheet()},
		"cover.xlsx":    {NewTextTable("Cover", [][]string{{"nothing here"}})},
	}}
	s := newTestService(t, loader)
	ctx := context.Background()
	ts := Upload{Name: "pointage.xlsx", Data: []byte("x")}

	tests := []struct {
		name     string
		profile  string
		payroll  Upload
		wantIs   error
		wantCode string
	}{
		{
			name:     "unknown profile",
			profile:  "nope",
			payroll:  Upload{Name: "cover.xlsx", Data: []byte("x")},
			wantIs:   ErrUnknownProfile,
			wantCode: "PRF001",
		},
		{
			name:     "no sheet resolves",
			profile:  "test",
			payroll:  Upload{Name: "cover.xlsx", Data: []byte("x")},
			wantIs:   ErrHeaderNotFound,
			wantCode: "HDR001",
		},
		{
			name:     "empty upload",
			profile:  "test",
			payroll:  Upload{Name: "journal.xlsx"},
			wantCode: "FILE004",
		},
		{
			name:     "loader failure",
			profile:  "test",
			payroll:  Upload{Name: "journal.pdf", Data: []byte("x")},
			wantCode: "FILE002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := s.Reconcile(ctx, tt.profile, ts, tt.payroll)
			if err == nil {
				t.Fatalf("Reconcile() = %+v, want error", run)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
			if code := MapError(err).Code; code != tt.wantCode {
				t.Errorf("MapError code = %s, want %s (error %v)", code, tt.wantCode, err)
			}
		})
	}

	if list, _ := s.ListRuns(ctx, 0); len(list) != 0 {
		t.Errorf("failed runs should not be stored, got %d", len(list))
	}
}

func TestService_Reconcile_Cancelled(t *testing.T) {
	loader := &stubLoader{tables: map[string][]RawTable{"a.csv": {testTimesheet()}}}
	s := newTestService(t, loader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Reconcile(ctx, "test", Upload{Name: "a.csv", Data: []byte("x")}, Upload{Name: "a.csv", Data: []byte("x")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestService_GetRun_BadID(t *testing.T) {
	s := newTestService(t, &stubLoader{})
	if _, err := s.GetRun(context.Background(), "not-a-uuid"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestService_Profiles(t *testing.T) {
	s := newTestService(t, &stubLoader{})

	if got := s.ListProfiles(); len(got) != 1 || got[0].Key != "test" {
		t.Errorf("ListProfiles() = %v", profileKeys(got))
	}
	if _, err := s.GetProfile("missing"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("GetProfile(missing) error = %v", err)
	}
	byGroup := s.ListProfilesByGroup()
	if len(byGroup[""]) != 1 {
		t.Errorf("ListProfilesByGroup() = %v", byGroup)
	}
}
