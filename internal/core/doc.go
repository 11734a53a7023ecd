// Package core provides the business logic for payroll reconciliation.
//
// It compares a timesheet export with a payroll export, employee by
// employee, and reports where worked hours, overtime tiers, holidays,
// allowances and statutory contributions disagree. The package has no
// dependency on any UI or transport layer.
//
// # Pipeline
//
// A reconciliation runs in fixed stages:
//
//  1. Header resolution: [ResolveHeader] scans the first rows of a
//     [RawTable] for the row whose cells match the profile's header terms.
//  2. Normalization: [BindColumns] maps column roles to header positions
//     and [NormalizeRecords] turns each data row into an [EmployeeRecord].
//  3. Aggregation: [Aggregate] folds records sharing an identifier.
//  4. Join: [Join] produces the full outer join of both sources by
//     identifier, sorted ascending.
//  5. Classification: [Classifier.Classify] applies the rule sequence.
//  6. Reporting: [BuildReport] renders results and summary counts.
//
// [Reconcile] runs all stages. It either returns a complete [Report] or
// one of [*HeaderNotFoundError] and [*MissingColumnError]; it never
// returns a partial report.
//
// # Profiles
//
// Column aliases, header terms and rule policy live in a [RoleConfig].
// Profiles are YAML documents registered at init time; see [Register],
// [ParseProfile] and the profiles subpackage:
//
//	key: standard
//	timesheet:
//	  header_terms: [["NCIN", "CIN"]]
//	  roles:
//	    - role: employee_id
//	      required: true
//	      aliases: ["NCIN", "CIN"]
//
// An alias is one or more terms joined by "&"; every term must appear in
// the same header cell, compared without case and accents.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - HDR001, COL001: header and column resolution
//   - PRF001-PRF002: profiles
//   - FILE001-FILE006: file errors (size, type, encoding)
//   - UPL002-UPL005, RUN001: run errors (busy, cancelled, not found)
//
// # History
//
// [Service] stores every run in a [RunStore]. Old runs are deleted by the
// retention job started with [StartRetentionScheduler].
package core
