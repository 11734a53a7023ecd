// Package loader turns uploaded spreadsheet and CSV files into core.RawTable
// values. Workbooks yield one table per sheet; CSV files yield a single table.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/payrecon/internal/core"
)

// DefaultMaxFileSize is the largest upload accepted when no limit is configured (50MB).
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrEmpty       = errors.New("empty file")
	ErrTooLarge    = errors.New("file too large")
)

// Loader dispatches on the file extension. The zero value is usable.
type Loader struct {
	// MaxFileSize caps the accepted upload size in bytes. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// New returns a Loader with the given size limit.
func New(maxFileSize int64) *Loader {
	return &Loader{MaxFileSize: maxFileSize}
}

// Extensions lists the file extensions Load understands.
func Extensions() []string {
	return []string{".xlsx", ".xlsm", ".xls", ".csv", ".txt"}
}

// Supported reports whether name has an extension Load understands.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// Load parses data according to the extension of name.
func (l *Loader) Load(name string, data []byte) ([]core.RawTable, error) {
	limit := l.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes, max %d)", ErrTooLarge, len(data), limit)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	var (
		tables []core.RawTable
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		tables, err = loadXLSX(data)
	case ".xls":
		tables, err = loadXLS(data)
	case ".csv", ".txt":
		var t core.RawTable
		t, err = loadCSV(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), data)
		tables = []core.RawTable{t}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}

	tables = dropEmpty(tables)
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	return tables, nil
}

func dropEmpty(tables []core.RawTable) []core.RawTable {
	out := tables[:0]
	for _, t := range tables {
		if len(t.Rows) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// trimRows drops trailing rows that contain no value.
func trimRows(rows [][]core.Cell) [][]core.Cell {
	end := len(rows)
	for end > 0 && rowEmpty(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func rowEmpty(row []core.Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
