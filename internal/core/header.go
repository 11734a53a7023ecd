package core

import "strings"

// HeaderMatch is a located header row and the data rows beneath it.
type HeaderMatch struct {
	Row    int
	Header []string
	Data   [][]Cell
}

// FindHeaderRow returns the first row, within the first scanRows rows, in
// which every alias group has at least one alias matching some cell.
// Matching ignores case and diacritics.
func FindHeaderRow(t RawTable, groups [][]string, scanRows int) (int, bool) {
	if len(groups) == 0 {
		return -1, false
	}
	parsed := make([][]alias, len(groups))
	for i, g := range groups {
		parsed[i] = orderedAliases(g)
	}

	limit := min(scanRows, len(t.Rows))
	for i := 0; i < limit; i++ {
		folded := foldRow(t.Rows[i])
		if rowSatisfies(folded, parsed) {
			return i, true
		}
	}
	return -1, false
}

// ResolveHeader locates the header row and re-reads the table around it.
// Header names are trimmed and upper-cased.
func ResolveHeader(t RawTable, src Source, groups [][]string, scanRows int) (HeaderMatch, error) {
	if scanRows <= 0 {
		scanRows = DefaultScanRows
	}
	row, ok := FindHeaderRow(t, groups, scanRows)
	if !ok {
		return HeaderMatch{}, &HeaderNotFoundError{
			Source:      src,
			Table:       t.Name,
			Searched:    groups,
			RowsScanned: min(scanRows, len(t.Rows)),
		}
	}

	cells := t.Rows[row]
	header := make([]string, len(cells))
	for i, c := range cells {
		header[i] = strings.ToUpper(strings.TrimSpace(c.String()))
	}
	return HeaderMatch{Row: row, Header: header, Data: t.Rows[row+1:]}, nil
}

func foldRow(cells []Cell) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c.IsEmpty() {
			continue
		}
		out = append(out, foldHeader(c.String()))
	}
	return out
}

func rowSatisfies(folded []string, groups [][]alias) bool {
	for _, g := range groups {
		if !groupMatches(folded, g) {
			return false
		}
	}
	return true
}

func groupMatches(folded []string, g []alias) bool {
	for _, a := range g {
		for _, cell := range folded {
			if a.matches(cell) {
				return true
			}
		}
	}
	return false
}
