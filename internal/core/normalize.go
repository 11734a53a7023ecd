package core

import (
	"regexp"
	"strings"
)

// BindColumns resolves every role of sc against the header names.
// Aliases are tried most specific first; a column containing any of the
// role's Exclude terms is never bound to it. An unresolved required role
// fails with *MissingColumnError, unresolved optional roles stay unbound.
func BindColumns(src Source, header []string, sc SourceConfig) (ColumnBinding, error) {
	b := ColumnBinding{Source: src, Header: header, Columns: make(map[ColumnRole]int)}

	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = foldHeader(h)
	}

	if _, ok := sc.Spec(RoleEmployeeID); !ok {
		return b, &MissingColumnError{Source: src, Role: RoleEmployeeID, Available: availableColumns(header)}
	}

	for _, rs := range sc.Roles {
		col, ok := resolveRole(folded, rs)
		if ok {
			b.Columns[rs.Role] = col
			continue
		}
		if rs.Required {
			return b, &MissingColumnError{
				Source:    src,
				Role:      rs.Role,
				Aliases:   rs.Aliases,
				Available: availableColumns(header),
			}
		}
	}
	return b, nil
}

func resolveRole(folded []string, rs RoleSpec) (int, bool) {
	excludes := make([]string, 0, len(rs.Exclude))
	for _, x := range rs.Exclude {
		if x = foldHeader(x); x != "" {
			excludes = append(excludes, x)
		}
	}

	for _, a := range orderedAliases(rs.Aliases) {
		for i, name := range folded {
			if name == "" || excluded(name, excludes) {
				continue
			}
			if a.matches(name) {
				return i, true
			}
		}
	}
	return -1, false
}

func excluded(name string, excludes []string) bool {
	for _, x := range excludes {
		if strings.Contains(name, x) {
			return true
		}
	}
	return false
}

func availableColumns(header []string) []string {
	out := make([]string, 0, len(header))
	for _, h := range header {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// NormalizeStats counts what happened to the data rows of one source.
type NormalizeStats struct {
	Rows      int `json:"rows"`
	Kept      int `json:"kept"`
	Blank     int `json:"blank"`
	DroppedID int `json:"droppedId"`
}

// NormalizeRecords extracts one EmployeeRecord per data row.
// Rows whose identifier is empty or a null token are dropped and counted.
// Numbers that do not parse become zero; dates that do not parse are absent.
func NormalizeRecords(rows [][]Cell, b ColumnBinding, sc SourceConfig, cfg RoleConfig) ([]EmployeeRecord, NormalizeStats) {
	n := newNormalizer(b, sc, cfg)

	var stats NormalizeStats
	records := make([]EmployeeRecord, 0, len(rows))
	for _, row := range rows {
		stats.Rows++
		if blankRow(row) {
			stats.Blank++
			continue
		}
		rec, ok := n.record(row)
		if !ok {
			stats.DroppedID++
			continue
		}
		stats.Kept++
		records = append(records, rec)
	}
	return records, stats
}

type normalizer struct {
	binding      ColumnBinding
	roles        []ColumnRole
	patterns     map[ColumnRole]*regexp.Regexp
	nullTokens   map[string]bool
	decimalComma bool
}

func newNormalizer(b ColumnBinding, sc SourceConfig, cfg RoleConfig) *normalizer {
	n := &normalizer{
		binding:      b,
		patterns:     make(map[ColumnRole]*regexp.Regexp),
		nullTokens:   make(map[string]bool),
		decimalComma: cfg.DecimalComma,
	}
	tokens := cfg.NullTokens
	if tokens == nil {
		tokens = DefaultNullTokens
	}
	for _, t := range tokens {
		n.nullTokens[strings.ToUpper(strings.TrimSpace(t))] = true
	}
	n.nullTokens[""] = true

	for _, rs := range sc.Roles {
		if !b.Bound(rs.Role) {
			continue
		}
		n.roles = append(n.roles, rs.Role)
		if rs.Pattern == "" {
			continue
		}
		if re, err := regexp.Compile(rs.Pattern); err == nil {
			n.patterns[rs.Role] = re
		}
	}
	return n
}

func (n *normalizer) record(row []Cell) (EmployeeRecord, bool) {
	idCell := cellAt(row, n.binding.Columns[RoleEmployeeID])
	id := NormalizeIdentifier(n.extract(RoleEmployeeID, idCell.String()))
	if n.nullTokens[id] {
		return EmployeeRecord{}, false
	}

	rec := EmployeeRecord{
		ID:     id,
		Source: n.binding.Source,
		Fields: make(map[ColumnRole]Value, len(n.roles)),
		Rows:   1,
	}
	for _, role := range n.roles {
		if role == RoleEmployeeID {
			continue
		}
		cell := cellAt(row, n.binding.Columns[role])
		if v, ok := n.value(role, cell); ok {
			rec.Fields[role] = v
		}
	}
	return rec, true
}

func (n *normalizer) value(role ColumnRole, c Cell) (Value, bool) {
	_, hasPattern := n.patterns[role]

	switch role.Kind() {
	case KindNumber:
		if hasPattern {
			d, _ := ParseNumber(n.extract(role, c.String()), n.decimalComma)
			return Value{Kind: KindNumber, Number: d}, true
		}
		return Value{Kind: KindNumber, Number: CoerceNumber(c, n.decimalComma)}, true
	case KindDate:
		if hasPattern {
			c = TextCell(n.extract(role, c.String()))
		}
		t, ok := CoerceDate(c)
		if !ok {
			return Value{}, false
		}
		return Value{Kind: KindDate, Date: t}, true
	default:
		return Value{Kind: KindText, Text: strings.TrimSpace(n.extract(role, c.String()))}, true
	}
}

// extract applies the role's pattern, returning the first capture group
// (or whole match). Without a pattern the input is returned unchanged.
func (n *normalizer) extract(role ColumnRole, s string) string {
	re, ok := n.patterns[role]
	if !ok {
		return s
	}
	m := re.FindStringSubmatch(s)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}

func cellAt(row []Cell, i int) Cell {
	if i < 0 || i >= len(row) {
		return Cell{}
	}
	return row[i]
}

func blankRow(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() && strings.TrimSpace(c.String()) != "" {
			return false
		}
	}
	return true
}
