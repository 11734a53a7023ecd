package core

// convert.go coerces loosely formatted spreadsheet cells into typed values.
//
// Exports from payroll and time-tracking tools are messy:
//   - French day-first dates, ISO dates and raw Excel serial numbers
//   - Currency suffixes, non-breaking spaces and either decimal separator
//   - Excel formula prefixes (="value") and float artefacts on IDs ("1234.0")
//   - Accented and unaccented spellings of the same header (FÉRIÉ / FERIE)
//
// Numeric coercion never fails: unusable input becomes zero. Date coercion
// reports absence instead, so a missing hire date is never a zero date.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DateLayout is the calendar-date format used in reports.
const DateLayout = "2006-01-02"

// numericRegex validates that a string is a plain decimal after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// floatIDRegex matches identifiers mangled into floats by spreadsheets.
var floatIDRegex = regexp.MustCompile(`^(\d+)\.0+$`)

// TwoDigitYearPivot is the last year a 2-digit year maps to: 00-49
// read as 2000-2049 and 50-99 as 1950-1999. It is fixed so the same
// export parses identically whatever the wall clock says.
const TwoDigitYearPivot = 2049

// Excel serial bounds accepted as dates: 1901-01-01 through 9999-12-31.
const (
	minExcelSerial = 367
	maxExcelSerial = 2958465
)

// Day-first layouts; ISO forms are unambiguous and tried alongside.
var (
	twoDigitYearLayouts = []string{
		"02/01/06", "2/1/06", "02-01-06", "2-1-06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05",
		"02/01/2006", "2/1/2006", "02/01/2006 15:04:05", "02/01/2006 15:04",
		"02-01-2006", "2-1-2006", "02.01.2006", "2.1.2006",
		"2006/01/02", "2 Jan 2006", "02 Jan 2006", "Jan 2, 2006",
	}
)

// currencyTokens are stripped from numeric cells before parsing.
var currencyTokens = []string{"MAD", "DHS", "DH", "EUR", "$", "€", "£"}

// foldHeader upper-cases, trims and strips diacritics so that
// "Jour Férié" and "JOUR FERIE" compare equal.
func foldHeader(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), " ")
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// NormalizeIdentifier trims and upper-cases an employee identifier and
// undoes the float formatting spreadsheets apply to numeric IDs.
func NormalizeIdentifier(s string) string {
	s = strings.ToUpper(CleanCell(s))
	if m := floatIDRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return s
}

// ParseNumber parses a human-formatted number.
// Handles currency symbols, grouping spaces, thousands separators and
// accounting format (parentheses for negative). With decimalComma, a lone
// comma is the decimal separator; otherwise it groups thousands.
func ParseNumber(s string, decimalComma bool) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	upper := strings.ToUpper(s)
	for _, tok := range currencyTokens {
		upper = strings.ReplaceAll(upper, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, upper)

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0 && decimalComma && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	if negative {
		s = "-" + strings.TrimPrefix(s, "+")
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CoerceNumber converts a cell to a number, yielding zero when it cannot.
func CoerceNumber(c Cell, decimalComma bool) decimal.Decimal {
	switch c.Kind {
	case CellNumber:
		return c.Number
	case CellText:
		d, _ := ParseNumber(c.Text, decimalComma)
		return d
	default:
		return decimal.Zero
	}
}

// ParseDate parses a date, day-first when ambiguous.
// Accepts Excel serial numbers as produced by raw cell reads.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}

	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(pivotCentury(t)), true
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return excelSerialDate(f)
	}
	return time.Time{}, false
}

// CoerceDate converts a cell to a calendar date.
func CoerceDate(c Cell) (time.Time, bool) {
	switch c.Kind {
	case CellDate:
		return truncateDay(c.Date), !c.Date.IsZero()
	case CellNumber:
		return excelSerialDate(c.Number.InexactFloat64())
	case CellText:
		return ParseDate(c.Text)
	default:
		return time.Time{}, false
	}
}

// pivotCentury moves a 2-digit-year date into the 1950-2049 window.
// time.Parse already yields 1969-2068 for the "06" layout.
func pivotCentury(t time.Time) time.Time {
	if t.Year() > TwoDigitYearPivot {
		return t.AddDate(-100, 0, 0)
	}
	return t
}

func excelSerialDate(f float64) (time.Time, bool) {
	if f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return truncateDay(t), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
