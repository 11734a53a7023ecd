package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func payrollSource() SourceConfig {
	return SourceConfig{
		Roles: []RoleSpec{
			{Role: RoleEmployeeID, Required: true, Aliases: []string{"NCIN", "CIN"}},
			{Role: RoleEmployeeName, Aliases: []string{"NOM & PRENOM", "NOM"}},
			{Role: RoleHoursWorked, Required: true, Aliases: []string{"JRS & HRS"}},
			{Role: RoleOvertime25, Aliases: []string{"HS 25"}, Exclude: []string{"MT"}},
			{Role: RoleOvertime25Amount, Aliases: []string{"MT & HS 25"}},
			{Role: RoleHireDate, Aliases: []string{"DATE & EMBAUCHE"}},
		},
	}
}

func TestBindColumns(t *testing.T) {
	header := []string{"N°", "NCIN", "NOM ET PRENOM", "MT HS 25%", "HS 25%", "JRS/HRS", ""}

	b, err := BindColumns(SourcePayroll, header, payrollSource())
	if err != nil {
		t.Fatalf("BindColumns() error = %v", err)
	}

	want := map[ColumnRole]int{
		RoleEmployeeID:       1,
		RoleEmployeeName:     2,
		RoleOvertime25Amount: 3,
		RoleOvertime25:       4,
		RoleHoursWorked:      5,
	}
	for role, col := range want {
		if got, ok := b.Columns[role]; !ok || got != col {
			t.Errorf("Columns[%s] = %d, %v, want %d", role, got, ok, col)
		}
	}
	if b.Bound(RoleHireDate) {
		t.Error("optional hire_date should stay unbound")
	}
}

func TestBindColumns_SpecificAliasFirst(t *testing.T) {
	sc := SourceConfig{Roles: []RoleSpec{
		{Role: RoleEmployeeID, Required: true, Aliases: []string{"CIN", "NCIN"}},
		{Role: RoleEmployeeName, Aliases: []string{"NOM", "NOM & PRENOM"}},
	}}
	header := []string{"NOM DE JEUNE FILLE", "NOM ET PRENOM", "CIN"}

	b, err := BindColumns(SourceTimesheet, header, sc)
	if err != nil {
		t.Fatalf("BindColumns() error = %v", err)
	}
	if b.Columns[RoleEmployeeName] != 1 {
		t.Errorf("employee_name bound to column %d, want 1", b.Columns[RoleEmployeeName])
	}
}

func TestBindColumns_MissingRequired(t *testing.T) {
	header := []string{"NCIN", "NOM", "", "SALAIRE"}

	_, err := BindColumns(SourcePayroll, header, payrollSource())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("error = %v, want ErrMissingColumn", err)
	}

	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("error is %T, want *MissingColumnError", err)
	}
	if mce.Role != RoleHoursWorked {
		t.Errorf("Role = %s, want hours_worked", mce.Role)
	}
	if len(mce.Available) != 3 {
		t.Errorf("Available = %v, want the three non-blank headers", mce.Available)
	}
	if !contains(err.Error(), "available columns: [NCIN, NOM, SALAIRE]") {
		t.Errorf("error %q should list available columns", err.Error())
	}
}

func TestNormalizeRecords(t *testing.T) {
	sc := payrollSource()
	header := []string{"NCIN", "NOM", "JRS/HRS", "HS 25", "DATE EMBAUCHE"}
	b, err := BindColumns(SourcePayroll, header, sc)
	if err != nil {
		t.Fatalf("BindColumns() error = %v", err)
	}

	rows := NewTextTable("", [][]string{
		{"ab1", " Ali ", "160,5", "4", "15/01/2024"},
		{"", "", "", "", ""},
		{"N/A", "Ghost", "8", "", ""},
		{"AB2", "Sara", "abc", "", "not a date"},
		{"nan", "Nobody", "1", "", ""},
		{"", "orphan", "3", "", ""},
		{"1234.0", "Float", "10", "", "45366"},
	}).Rows

	cfg := RoleConfig{DecimalComma: true}.WithDefaults()
	records, stats := NormalizeRecords(rows, b, sc, cfg)

	wantStats := NormalizeStats{Rows: 7, Kept: 3, Blank: 1, DroppedID: 3}
	if stats != wantStats {
		t.Errorf("stats = %+v, want %+v", stats, wantStats)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	ali := records[0]
	if ali.ID != "AB1" || ali.Source != SourcePayroll || ali.Rows != 1 {
		t.Errorf("record = %+v, want ID AB1 from payroll", ali)
	}
	if got := ali.Text(RoleEmployeeName); got != "Ali" {
		t.Errorf("name = %q, want trimmed Ali", got)
	}
	if got, _ := ali.Number(RoleHoursWorked); !got.Equal(decimal.RequireFromString("160.5")) {
		t.Errorf("hours = %s, want 160.5", got)
	}
	if got, ok := ali.Date(RoleHireDate); !ok || got.Format(DateLayout) != "2024-01-15" {
		t.Errorf("hire date = %v, %v, want 2024-01-15", got, ok)
	}

	sara := records[1]
	if got, ok := sara.Number(RoleHoursWorked); !ok || !got.IsZero() {
		t.Errorf("unparseable hours = %s, %v, want present zero", got, ok)
	}
	if got, ok := sara.Number(RoleOvertime25); !ok || !got.IsZero() {
		t.Errorf("blank overtime = %s, %v, want present zero", got, ok)
	}
	if _, ok := sara.Date(RoleHireDate); ok {
		t.Error("unparseable hire date should be absent")
	}

	if records[2].ID != "1234" {
		t.Errorf("float ID = %q, want 1234", records[2].ID)
	}
	if got, ok := records[2].Date(RoleHireDate); !ok || got.Format(DateLayout) != "2024-03-15" {
		t.Errorf("serial hire date = %v, %v, want 2024-03-15", got, ok)
	}
}

func TestNormalizeRecords_Pattern(t *testing.T) {
	sc := SourceConfig{Roles: []RoleSpec{
		{Role: RoleEmployeeID, Required: true, Aliases: []string{"NOM"}},
		{Role: RoleEmployeeName, Aliases: []string{"NOM"}},
		{Role: RoleHoursWorked, Required: true, Aliases: []string{"HEURE"}, Pattern: `(?i)(\d+)\s*j\s*trav`},
	}}
	b, err := BindColumns(SourceTimesheet, []string{"NOM ET PRENOM", "HEURES TRAVAILLEES"}, sc)
	if err != nil {
		t.Fatalf("BindColumns() error = %v", err)
	}

	rows := NewTextTable("", [][]string{
		{"Ali Ben", "22 j trav"},
		{"Sara K", "absent"},
	}).Rows
	records, _ := NormalizeRecords(rows, b, sc, RoleConfig{}.WithDefaults())

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != "ALI BEN" || records[0].Text(RoleEmployeeName) != "Ali Ben" {
		t.Errorf("record 0 = %q / %q, want shared ID and name column", records[0].ID, records[0].Text(RoleEmployeeName))
	}
	if got, _ := records[0].Number(RoleHoursWorked); !got.Equal(decimal.NewFromInt(22)) {
		t.Errorf("extracted hours = %s, want 22", got)
	}
	if got, _ := records[1].Number(RoleHoursWorked); !got.IsZero() {
		t.Errorf("unmatched pattern hours = %s, want 0", got)
	}
}

func TestNormalizeRecords_CustomNullTokens(t *testing.T) {
	sc := SourceConfig{Roles: []RoleSpec{
		{Role: RoleEmployeeID, Required: true, Aliases: []string{"ID"}},
	}}
	b, _ := BindColumns(SourceTimesheet, []string{"ID"}, sc)
	rows := NewTextTable("", [][]string{{"TOTAL"}, {"A1"}, {"-"}}).Rows

	cfg := RoleConfig{NullTokens: []string{"total", "-"}}
	records, stats := NormalizeRecords(rows, b, sc, cfg)
	if len(records) != 1 || records[0].ID != "A1" {
		t.Errorf("records = %+v, want only A1", records)
	}
	if stats.DroppedID != 2 {
		t.Errorf("DroppedID = %d, want 2", stats.DroppedID)
	}
}
