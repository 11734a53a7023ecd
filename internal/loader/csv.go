package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/JonMunkholm/payrecon/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimiters in preference order when sniffing is inconclusive.
var delimiters = []rune{';', '\t', ','}

const sniffLines = 10

// loadCSV reads a delimited text export. Files that are not valid UTF-8 are
// decoded as ISO-8859-1, the encoding legacy payroll tools export with.
func loadCSV(name string, data []byte) (core.RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return core.RawTable{}, fmt.Errorf("encoding error: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return core.RawTable{}, fmt.Errorf("parse csv: %w", err)
	}

	rows := make([][]core.Cell, len(records))
	for i, rec := range records {
		cells := make([]core.Cell, len(rec))
		for j, v := range rec {
			cells[j] = core.TextCell(v)
		}
		rows[i] = cells
	}
	return core.RawTable{Name: name, Rows: trimRows(rows)}, nil
}

// sniffDelimiter picks the delimiter that splits the first lines into the
// same number of fields, then the most frequent one.
func sniffDelimiter(data []byte) rune {
	lines := sampleLines(data, sniffLines)
	if len(lines) == 0 {
		return ','
	}

	best, bestScore := ',', -1
	for _, d := range delimiters {
		counts := make([]int, len(lines))
		total := 0
		for i, line := range lines {
			counts[i] = countOutsideQuotes(line, d)
			total += counts[i]
		}
		if total == 0 {
			continue
		}

		score := total
		if consistent(counts) {
			score += 1 << 20
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

func sampleLines(data []byte, n int) [][]byte {
	var out [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

func countOutsideQuotes(line []byte, d rune) int {
	n := 0
	quoted := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

// consistent reports whether every line that contains the delimiter contains
// it the same number of times. Title lines without delimiters are ignored.
func consistent(counts []int) bool {
	want := 0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		if want == 0 {
			want = c
		} else if c != want {
			return false
		}
	}
	return want > 0
}
