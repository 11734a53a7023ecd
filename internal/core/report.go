package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Report is the immutable outcome of one reconciliation.
type Report struct {
	Profile     string           `json:"profile"`
	ProcessedOn string           `json:"processedOn"`
	Entries     []EmployeeResult `json:"entries"`
	Summary     Summary          `json:"summary"`
}

// EmployeeResult is the flat, JSON-friendly view of one classified employee.
type EmployeeResult struct {
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Status      Status             `json:"status"`
	HoursWorked *float64           `json:"hoursWorked,omitempty"`
	HoursPaid   *float64           `json:"hoursPaid,omitempty"`
	Difference  float64            `json:"difference"`
	Bonus       float64            `json:"bonus"`
	Forgiven    bool               `json:"forgiven,omitempty"`
	Messages    []string           `json:"messages"`
	Fields      []FieldResult      `json:"fields,omitempty"`
	Validations Validations        `json:"validations"`
	Timesheet   map[ColumnRole]any `json:"timesheet,omitempty"`
	Payroll     map[ColumnRole]any `json:"payroll,omitempty"`
	Hints       []string           `json:"hints,omitempty"`
}

// FieldResult is one field rule outcome.
type FieldResult struct {
	Field     Field      `json:"field"`
	Outcome   Comparison `json:"outcome"`
	Status    Status     `json:"status"`
	Timesheet *float64   `json:"timesheet,omitempty"`
	Payroll   *float64   `json:"payroll,omitempty"`
	Expected  *float64   `json:"expected,omitempty"`
	Recorded  *float64   `json:"recorded,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Validations groups the source-independent checks.
type Validations struct {
	Contribution *ContributionResult `json:"contribution,omitempty"`
	Tenure       *TenureResult       `json:"tenure,omitempty"`
}

type ContributionResult struct {
	Health         float64          `json:"health"`
	SocialSecurity float64          `json:"socialSecurity"`
	Status         ValidationStatus `json:"status"`
}

type TenureResult struct {
	HireDate string           `json:"hireDate,omitempty"`
	Months   *float64         `json:"months,omitempty"`
	Tenure   string           `json:"tenure,omitempty"`
	Status   ValidationStatus `json:"status"`
}

// Summary aggregates counts over all entries.
type Summary struct {
	Total             int            `json:"total"`
	Correct           int            `json:"correct"`
	Inconsistent      int            `json:"inconsistent"`
	AbsentInTimesheet int            `json:"absentInTimesheet"`
	AbsentInPayroll   int            `json:"absentInPayroll"`
	StatusCounts      map[Status]int `json:"statusCounts"`
	TotalBonus        float64        `json:"totalBonus"`
	Forgiven          int            `json:"forgiven"`

	Overtime25Inconsistencies     int `json:"overtime25Inconsistencies"`
	Overtime50Inconsistencies     int `json:"overtime50Inconsistencies"`
	HolidayInconsistencies        int `json:"holidayInconsistencies"`
	TransportInconsistencies      int `json:"transportInconsistencies"`
	OvertimeAmountInconsistencies int `json:"overtimeAmountInconsistencies"`
	RateInconsistencies           int `json:"rateInconsistencies"`
	EmployeesNotDeclared          int `json:"employeesNotDeclared"`
	ContractsEnding               int `json:"contractsEnding"`
	TenureNotVerified             int `json:"tenureNotVerified"`

	Sources Diagnostics `json:"sources"`
}

// Diagnostics describes how each source was read.
type Diagnostics struct {
	Timesheet SourceDiagnostics `json:"timesheet"`
	Payroll   SourceDiagnostics `json:"payroll"`
}

// SourceDiagnostics records the header row, bound columns and row counts of one source.
type SourceDiagnostics struct {
	Table     string                `json:"table,omitempty"`
	HeaderRow int                   `json:"headerRow"`
	Columns   map[ColumnRole]string `json:"columns"`
	Rows      NormalizeStats        `json:"rows"`
	Employees int                   `json:"employees"`
}

func newSourceDiagnostics(table string, b ColumnBinding, stats NormalizeStats, employees int) SourceDiagnostics {
	cols := make(map[ColumnRole]string, len(b.Columns))
	for role, i := range b.Columns {
		cols[role] = b.Header[i]
	}
	return SourceDiagnostics{
		Table:     table,
		HeaderRow: b.HeaderRow,
		Columns:   cols,
		Rows:      stats,
		Employees: employees,
	}
}

// BuildReport renders classified entries and computes the summary.
// Entries keep the order of results.
func BuildReport(profile string, processedOn time.Time, results []Classification, diag Diagnostics) *Report {
	r := &Report{
		Profile:     profile,
		ProcessedOn: processedOn.Format(DateLayout),
		Entries:     make([]EmployeeResult, 0, len(results)),
		Summary: Summary{
			StatusCounts: make(map[Status]int),
			Sources:      diag,
		},
	}

	totalBonus := decimal.Zero
	for _, cl := range results {
		r.Entries = append(r.Entries, renderEntry(cl))
		r.Summary.count(cl)
		totalBonus = totalBonus.Add(cl.Bonus)
	}
	r.Summary.TotalBonus = totalBonus.Round(2).InexactFloat64()
	return r
}

func (s *Summary) count(cl Classification) {
	s.Total++
	s.StatusCounts[cl.Status]++
	switch cl.Status {
	case StatusCorrect:
		s.Correct++
	case StatusInconsistent:
		s.Inconsistent++
	case StatusAbsentInTimesheet:
		s.AbsentInTimesheet++
	case StatusAbsentInPayroll:
		s.AbsentInPayroll++
	}
	if cl.Forgiven {
		s.Forgiven++
	}

	for _, fc := range cl.Fields {
		if !fc.Inconsistent() {
			continue
		}
		switch fc.Field {
		case FieldOvertime25:
			s.Overtime25Inconsistencies++
		case FieldOvertime50:
			s.Overtime50Inconsistencies++
		case FieldHoliday:
			s.HolidayInconsistencies++
		case FieldTransport:
			s.TransportInconsistencies++
		case FieldOvertime25Amount, FieldOvertime50Amount:
			s.OvertimeAmountInconsistencies++
		case FieldRate:
			s.RateInconsistencies++
		}
	}

	if cl.Contribution != nil && cl.Contribution.Status == ValidationNotDeclared {
		s.EmployeesNotDeclared++
	}
	if cl.Tenure != nil {
		switch cl.Tenure.Status {
		case ValidationContractEnding:
			s.ContractsEnding++
		case ValidationNotVerified:
			s.TenureNotVerified++
		}
	}
}

func renderEntry(cl Classification) EmployeeResult {
	e := cl.Entry
	out := EmployeeResult{
		ID:          e.ID,
		Name:        entryName(e),
		Status:      cl.Status,
		HoursWorked: floatPtr(cl.HoursWorked),
		HoursPaid:   floatPtr(cl.HoursPaid),
		Difference:  cl.Delta.InexactFloat64(),
		Bonus:       cl.Bonus.InexactFloat64(),
		Forgiven:    cl.Forgiven,
		Messages:    append([]string{}, cl.Messages...),
		Timesheet:   renderRecord(e.Timesheet),
		Payroll:     renderRecord(e.Payroll),
		Hints:       cl.Hints,
	}

	for _, fc := range cl.Fields {
		out.Fields = append(out.Fields, FieldResult{
			Field:     fc.Field,
			Outcome:   fc.Outcome,
			Status:    fc.Status,
			Timesheet: floatPtr(fc.Timesheet),
			Payroll:   floatPtr(fc.Payroll),
			Expected:  floatPtr(fc.Expected),
			Recorded:  floatPtr(fc.Recorded),
			Message:   fc.Message,
		})
	}

	if c := cl.Contribution; c != nil {
		out.Validations.Contribution = &ContributionResult{
			Health:         c.Health.InexactFloat64(),
			SocialSecurity: c.SocialSecurity.InexactFloat64(),
			Status:         c.Status,
		}
	}
	if t := cl.Tenure; t != nil {
		tr := &TenureResult{Status: t.Status}
		if t.HasHireDate {
			months := roundTo(t.Months, 1)
			tr.HireDate = t.HireDate.Format(DateLayout)
			tr.Months = &months
			tr.Tenure = fmt.Sprintf("%.1f months", t.Months)
		}
		out.Validations.Tenure = tr
	}
	return out
}

func entryName(e ReconciledEntry) string {
	if n := e.Timesheet.Text(RoleEmployeeName); n != "" {
		return n
	}
	return e.Payroll.Text(RoleEmployeeName)
}

func renderRecord(rec *EmployeeRecord) map[ColumnRole]any {
	if rec == nil {
		return nil
	}
	out := make(map[ColumnRole]any, len(rec.Fields))
	for role, v := range rec.Fields {
		switch v.Kind {
		case KindNumber:
			out[role] = v.Number.InexactFloat64()
		case KindDate:
			out[role] = v.Date.Format(DateLayout)
		default:
			out[role] = v.Text
		}
	}
	return out
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func roundTo(f float64, places int32) float64 {
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

// Statuses returns the distinct primary statuses present, sorted.
func (s Summary) Statuses() []Status {
	out := make([]Status, 0, len(s.StatusCounts))
	for st := range s.StatusCounts {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
