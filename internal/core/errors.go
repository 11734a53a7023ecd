package core

import (
	"errors"
	"fmt"
	"strings"
)

// The two fatal reconciliation errors. Match with errors.Is; use errors.As
// on *HeaderNotFoundError or *MissingColumnError for the diagnostics.
var (
	ErrHeaderNotFound = errors.New("header row not found")
	ErrMissingColumn  = errors.New("missing required column")
)

// HeaderNotFoundError reports that no scanned row satisfied the header terms.
type HeaderNotFoundError struct {
	Source      Source
	Table       string
	Searched    [][]string
	RowsScanned int
}

func (e *HeaderNotFoundError) Error() string {
	groups := make([]string, len(e.Searched))
	for i, g := range e.Searched {
		groups[i] = "[" + strings.Join(g, " | ") + "]"
	}
	return fmt.Sprintf("%s %s: header row not found in first %d rows, searched for %s",
		e.Source, tableLabel(e.Table), e.RowsScanned, strings.Join(groups, ", "))
}

func (e *HeaderNotFoundError) Is(target error) bool {
	return target == ErrHeaderNotFound
}

// MissingColumnError reports a required role with no matching column.
type MissingColumnError struct {
	Source    Source
	Role      ColumnRole
	Aliases   []string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column for %s (aliases %s), available columns: [%s]",
		e.Source, e.Role, strings.Join(e.Aliases, ", "), strings.Join(e.Available, ", "))
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

func tableLabel(name string) string {
	if name == "" {
		return "table"
	}
	return fmt.Sprintf("table %q", name)
}
