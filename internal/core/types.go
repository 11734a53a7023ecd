package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CellKind describes what a RawTable cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is one value of a RawTable as produced by a file loader.
type Cell struct {
	Kind   CellKind
	Text   string
	Number decimal.Decimal
	Date   time.Time
}

// TextCell returns a text cell, or an empty cell for blank input.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumber, Number: d}
}

// FloatCell returns a numeric cell from a float64.
func FloatCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: decimal.NewFromFloat(f)}
}

// DateCell returns a date cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDate, Date: t}
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.Text == "")
}

// String renders the cell the way it would read in a spreadsheet.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number.String()
	case CellDate:
		return c.Date.Format(DateLayout)
	default:
		return ""
	}
}

// RawTable is an ordered matrix of cells loaded from one sheet or file.
// It is transient: the engine discards it after normalization.
type RawTable struct {
	Name string
	Rows [][]Cell
}

// NewTextTable builds a RawTable where every non-blank string is a text cell.
func NewTextTable(name string, rows [][]string) RawTable {
	t := RawTable{Name: name, Rows: make([][]Cell, len(rows))}
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			cells[j] = TextCell(v)
		}
		t.Rows[i] = cells
	}
	return t
}

// Source identifies which export a record came from.
type Source string

const (
	SourceTimesheet Source = "timesheet"
	SourcePayroll   Source = "payroll"
)

// Label returns the human-readable source name used in statuses.
func (s Source) Label() string {
	if s == SourcePayroll {
		return "payroll"
	}
	return "timesheet"
}

// Other returns the opposite source.
func (s Source) Other() Source {
	if s == SourcePayroll {
		return SourceTimesheet
	}
	return SourcePayroll
}

// Value is one typed field of an EmployeeRecord.
type Value struct {
	Kind   ValueKind
	Text   string
	Number decimal.Decimal
	Date   time.Time
}

// EmployeeRecord is one employee's normalized fields from a single source.
// A role missing from Fields is absent: unbound in the source, or for
// dates, unparseable.
type EmployeeRecord struct {
	ID     string
	Source Source
	Fields map[ColumnRole]Value
	Rows   int // source rows folded into this record
}

// Number returns a numeric field and whether it is present.
func (r *EmployeeRecord) Number(role ColumnRole) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Zero, false
	}
	v, ok := r.Fields[role]
	if !ok || v.Kind != KindNumber {
		return decimal.Zero, false
	}
	return v.Number, true
}

// Text returns a text field, or "" when absent.
func (r *EmployeeRecord) Text(role ColumnRole) string {
	if r == nil {
		return ""
	}
	return r.Fields[role].Text
}

// Date returns a date field and whether it is present.
func (r *EmployeeRecord) Date(role ColumnRole) (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	v, ok := r.Fields[role]
	if !ok || v.Kind != KindDate {
		return time.Time{}, false
	}
	return v.Date, true
}

// ReconciledEntry pairs the records sharing one identifier.
// At least one side is non-nil; nil means no record, not a zero record.
type ReconciledEntry struct {
	ID        string
	Timesheet *EmployeeRecord
	Payroll   *EmployeeRecord
}

// Side returns the record for the given source.
func (e ReconciledEntry) Side(s Source) *EmployeeRecord {
	if s == SourcePayroll {
		return e.Payroll
	}
	return e.Timesheet
}

// ColumnBinding maps roles to column positions for one table.
type ColumnBinding struct {
	Source    Source
	HeaderRow int
	Header    []string
	Columns   map[ColumnRole]int
}

// Bound reports whether role resolved to a column.
func (b ColumnBinding) Bound(role ColumnRole) bool {
	_, ok := b.Columns[role]
	return ok
}
