package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/payrecon/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("<script>alert(1)</script>", "retry", "ERR000").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("message was not escaped: %s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") || !strings.Contains(out, "Code: ERR000") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestRunList(t *testing.T) {
	var buf bytes.Buffer
	if err := RunList(nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No reconciliations yet.") {
		t.Errorf("empty list = %s", buf.String())
	}

	id := uuid.New()
	buf.Reset()
	runs := []core.RunSummary{{
		ID:            id,
		Profile:       "standard",
		TimesheetFile: "mars & avril.xlsx",
		CreatedAt:     time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC),
		Total:         3,
		Correct:       2,
		Issues:        1,
	}}
	if err := RunList(runs).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `href="/runs/`+id.String()+`"`) {
		t.Errorf("missing run link: %s", out)
	}
	if !strings.Contains(out, "mars &amp; avril.xlsx") || !strings.Contains(out, "2024-03-31 18:00") {
		t.Errorf("unexpected row: %s", out)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status core.Status
		want   string
	}{
		{core.StatusCorrect, "status-correct"},
		{core.StatusInconsistent, "status-inconsistent"},
		{core.StatusAbsentInPayroll, "status-absent"},
	}
	for _, tt := range tests {
		if got := statusClass(string(tt.status)); got != tt.want {
			t.Errorf("statusClass(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestErrorPage_WrapsLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorPage("Upload failed", "", "FILE001").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<!doctype html>") || !strings.HasSuffix(out, "</main></body></html>") {
		t.Errorf("page shell missing: %s", out)
	}
	if !strings.Contains(out, "<title>Error · payrecon</title>") {
		t.Errorf("unexpected title: %s", out)
	}
	if !strings.Contains(out, "<main><div class=\"alert\" role=\"alert\">") {
		t.Errorf("alert not rendered inside main: %s", out)
	}
}

func TestIndex_SelectsDefaultProfile(t *testing.T) {
	var buf bytes.Buffer
	err := Index(IndexParams{
		Groups: []ProfileGroup{
			{Profiles: []core.RoleConfig{{Key: "standard", Label: "Standard"}}},
			{Name: "Clients", Profiles: []core.RoleConfig{{Key: "sbbc", Label: "SBBC"}}},
		},
		DefaultProfile: "sbbc",
		Accept:         ".xlsx,.xls,.csv",
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<option value="standard">Standard</option>`,
		`<optgroup label="Clients"><option value="sbbc" selected>SBBC</option></optgroup>`,
		`<input type="file" name="payroll" accept=".xlsx,.xls,.csv" required>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
	if strings.Contains(out, "role=\"alert\"") {
		t.Error("alert rendered without an error")
	}
}

func TestRunPage(t *testing.T) {
	worked, paid := 162.0, 160.0
	run := &core.Run{
		ID:            uuid.New(),
		TimesheetFile: "pointage.xlsx",
		PayrollFile:   "paie.xlsx",
		Report: &core.Report{
			Profile:     "standard",
			ProcessedOn: "30/06/2024",
			Entries: []core.EmployeeResult{{
				ID:          "AB2",
				Name:        "Sara",
				Status:      core.StatusCorrect,
				HoursWorked: &worked,
				HoursPaid:   &paid,
				Difference:  2,
				Forgiven:    true,
				Hints:       []string{"AB3"},
			}},
			Summary: core.Summary{Total: 1, Correct: 1, TotalBonus: 2},
		},
	}

	var buf bytes.Buffer
	if err := RunPage(run).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<td class="status-correct">Correct <span class="muted">(forgiven)</span></td>`,
		`<td class="num">162.00</td><td class="num">160.00</td><td class="num">2.00</td>`,
		`Did you mean AB3?`,
		`pointage.xlsx vs paie.xlsx`,
		`href="/api/runs/` + run.ID.String() + `"`,
		`<div class="muted">Total bonus</div><strong>2.00</strong>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}
