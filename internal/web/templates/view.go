// Package templates holds the HTML views of the payrecon web UI. The
// .templ files are the sources of the generated _templ.go files.
package templates

//go:generate templ generate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/payrecon/internal/core"
)

// ProfileGroup is one group of profiles in the profile picker.
type ProfileGroup struct {
	Name     string
	Profiles []core.RoleConfig
}

// IndexParams is the data of the home page.
type IndexParams struct {
	Groups         []ProfileGroup
	DefaultProfile string
	Recent         []core.RunSummary
	Accept         string
	Error          *core.UserMessage
}

type stat struct {
	label string
	value string
}

func summaryStats(s core.Summary) []stat {
	return []stat{
		{"Employees", strconv.Itoa(s.Total)},
		{"Correct", strconv.Itoa(s.Correct)},
		{"Inconsistent", strconv.Itoa(s.Inconsistent)},
		{"Absent in timesheet", strconv.Itoa(s.AbsentInTimesheet)},
		{"Absent in payroll", strconv.Itoa(s.AbsentInPayroll)},
		{"Not declared", strconv.Itoa(s.EmployeesNotDeclared)},
		{"Contracts ending", strconv.Itoa(s.ContractsEnding)},
		{"Total bonus", fmt.Sprintf("%.2f", s.TotalBonus)},
	}
}

func statusClass(status string) string {
	switch {
	case status == "Correct":
		return "status-correct"
	case strings.HasPrefix(status, "Employee absent"):
		return "status-absent"
	default:
		return "status-inconsistent"
	}
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
