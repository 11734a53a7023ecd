package core

import (
	"errors"
	"testing"
)

func TestFindHeaderRow(t *testing.T) {
	groups := [][]string{{"NCIN", "CIN"}, {"JRS/HRS", "JRS & HRS"}}

	tests := []struct {
		name     string
		rows     [][]string
		scanRows int
		wantRow  int
		wantOK   bool
	}{
		{
			name: "header after title rows",
			rows: [][]string{
				{"SOCIETE EXEMPLE SARL"},
				{},
				{"N°", "NCIN", "Nom et prénom", "Jrs/Hrs"},
				{"1", "AB123", "Ali", "26"},
			},
			scanRows: 30,
			wantRow:  2,
			wantOK:   true,
		},
		{
			name: "conjunctive alias matches within one cell",
			rows: [][]string{
				{"CIN", "JRS TRAVAILLES / HRS"},
			},
			scanRows: 30,
			wantRow:  0,
			wantOK:   true,
		},
		{
			name: "conjunctive alias split across cells",
			rows: [][]string{
				{"CIN", "JRS", "HRS"},
			},
			scanRows: 30,
			wantOK:   false,
		},
		{
			name: "one group unsatisfied",
			rows: [][]string{
				{"NCIN", "NOM", "SALAIRE"},
			},
			scanRows: 30,
			wantOK:   false,
		},
		{
			name: "header beyond scan window",
			rows: [][]string{
				{"a"}, {"b"}, {"c"},
				{"NCIN", "JRS/HRS"},
			},
			scanRows: 3,
			wantOK:   false,
		},
		{
			name:     "empty table",
			rows:     nil,
			scanRows: 30,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := FindHeaderRow(NewTextTable("t", tt.rows), groups, tt.scanRows)
			if ok != tt.wantOK {
				t.Fatalf("FindHeaderRow() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && row != tt.wantRow {
				t.Errorf("FindHeaderRow() = %d, want %d", row, tt.wantRow)
			}
		})
	}
}

func TestFindHeaderRow_IgnoresAccents(t *testing.T) {
	table := NewTextTable("t", [][]string{
		{"Matricule", "Jour Férié"},
	})
	row, ok := FindHeaderRow(table, [][]string{{"MATRICULE"}, {"FERIE"}}, 10)
	if !ok || row != 0 {
		t.Errorf("FindHeaderRow() = %d, %v, want 0, true", row, ok)
	}
}

func TestFindHeaderRow_NoGroups(t *testing.T) {
	table := NewTextTable("t", [][]string{{"NCIN"}})
	if _, ok := FindHeaderRow(table, nil, 10); ok {
		t.Error("FindHeaderRow() with no groups should never match")
	}
}

func TestResolveHeader(t *testing.T) {
	table := NewTextTable("Feuil1", [][]string{
		{"Pointage mars"},
		{" ncin ", "Nom", "Jrs/Hrs"},
		{"AB1", "Ali", "26"},
		{"AB2", "Sara", "24"},
	})

	match, err := ResolveHeader(table, SourceTimesheet, [][]string{{"NCIN"}}, 10)
	if err != nil {
		t.Fatalf("ResolveHeader() error = %v", err)
	}
	if match.Row != 1 {
		t.Errorf("Row = %d, want 1", match.Row)
	}
	want := []string{"NCIN", "NOM", "JRS/HRS"}
	for i, h := range want {
		if match.Header[i] != h {
			t.Errorf("Header[%d] = %q, want %q", i, match.Header[i], h)
		}
	}
	if len(match.Data) != 2 {
		t.Errorf("len(Data) = %d, want 2", len(match.Data))
	}
}

func TestResolveHeader_NotFound(t *testing.T) {
	table := NewTextTable("Feuil1", [][]string{
		{"ID", "NAME"},
		{"1", "Ali"},
	})
	groups := [][]string{{"NCIN", "CIN"}}

	_, err := ResolveHeader(table, SourcePayroll, groups, 30)
	if !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("error = %v, want ErrHeaderNotFound", err)
	}

	var hnf *HeaderNotFoundError
	if !errors.As(err, &hnf) {
		t.Fatalf("error is %T, want *HeaderNotFoundError", err)
	}
	if hnf.Source != SourcePayroll {
		t.Errorf("Source = %s, want payroll", hnf.Source)
	}
	if hnf.RowsScanned != 2 {
		t.Errorf("RowsScanned = %d, want 2", hnf.RowsScanned)
	}
	if !contains(err.Error(), "NCIN | CIN") {
		t.Errorf("error %q should list searched terms", err.Error())
	}
	if MapError(err).Code != "HDR001" {
		t.Errorf("MapError code = %s, want HDR001", MapError(err).Code)
	}
}
