package internal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Logical column aliases, in normalized form.
var (
	idHeaders     = []string{"#", "number", "no", "no."}
	nameHeaders   = []string{"trope name", "element name"}
	detailHeaders = []string{"trope detail", "element detail"}
)

var headerSeparators = regexp.MustCompile(`[\s_-]+`)

// SkippedRow records a data row that was dropped or altered during parsing.
type SkippedRow struct {
	Row    int    `json:"row"` // zero-based data row index
	Reason string `json:"reason"`
}

// ParseResult is the outcome of parsing a record table.
type ParseResult struct {
	Records Pool
	Skipped []SkippedRow
	Headers []string
}

// ParseRecords parses comma-separated text with name/detail columns into a
// pool. Malformed rows are skipped and reported in ParseResult.Skipped; the
// whole parse only fails when the column structure is unusable or no row
// survives validation.
func ParseRecords(raw string) (*ParseResult, error) {
	headers, rows, skipped, err := readTable(raw)
	if err != nil {
		return nil, err
	}

	lookup := headerIndex(headers)
	idCol := resolveColumn(lookup, idHeaders)
	nameCol := resolveColumn(lookup, nameHeaders)
	detailCol := resolveColumn(lookup, detailHeaders)

	var missing []string
	if nameCol < 0 {
		missing = append(missing, "name")
	}
	if detailCol < 0 {
		missing = append(missing, "detail")
	}
	if len(missing) > 0 {
		return nil, &ParseError{Kind: MissingColumn, Columns: headers, Missing: missing}
	}

	LogDebug("Detected headers: id=%s name=%q detail=%q", columnName(headers, idCol), headers[nameCol], headers[detailCol])

	result := &ParseResult{Headers: headers, Skipped: skipped}
	seen := make(map[string]struct{})
	for _, row := range rows {
		name := cleanCell(cell(row.fields, nameCol))
		detail := cleanCell(cell(row.fields, detailCol))
		if name == "" || detail == "" {
			reason := "missing name"
			if name != "" {
				reason = "missing detail"
			} else if detail == "" {
				reason = "missing name and detail"
			}
			LogDebug("Skipping row %d: %s", row.index+1, reason)
			result.Skipped = append(result.Skipped, SkippedRow{Row: row.index, Reason: reason})
			continue
		}

		id := strings.TrimSpace(cell(row.fields, idCol))
		if id == "" {
			id = fmt.Sprintf("record-%d", row.index+1)
		}
		if _, dup := seen[id]; dup {
			renamed := uniqueID(seen, id, row.index)
			result.Skipped = append(result.Skipped, SkippedRow{Row: row.index, Reason: fmt.Sprintf("duplicate id %q renamed to %q", id, renamed)})
			id = renamed
		}
		seen[id] = struct{}{}

		result.Records = append(result.Records, Record{ID: id, Name: name, Detail: detail})
	}

	if len(result.Records) == 0 {
		return nil, &ParseError{Kind: EmptyResult, Columns: headers}
	}

	LogDebug("Parsed %d record(s) from %d row(s), skipped %d", len(result.Records), len(rows), len(result.Skipped))
	return result, nil
}

// NormalizeHeader lowercases and trims a header and collapses runs of
// underscores, dashes and whitespace into single spaces.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.TrimSpace(headerSeparators.ReplaceAllString(h, " "))
}

type tableRow struct {
	index  int
	fields []string
}

// readTable decodes raw text and splits it into a header and data rows.
func readTable(raw string) ([]string, []tableRow, []SkippedRow, error) {
	text, err := decodeText(raw)
	if err != nil {
		return nil, nil, nil, &ParseError{Kind: Malformed, Err: err}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil, &ParseError{Kind: MissingColumn, Missing: []string{"header row"}}
	}
	if err != nil {
		return nil, nil, nil, &ParseError{Kind: Malformed, Err: err}
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	var rows []tableRow
	var skipped []SkippedRow
	for index := 0; ; index++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped = append(skipped, SkippedRow{Row: index, Reason: perr.Err.Error()})
				continue
			}
			return nil, nil, nil, &ParseError{Kind: Malformed, Err: err}
		}
		rows = append(rows, tableRow{index: index, fields: fields})
	}
	return headers, rows, skipped, nil
}

// decodeText strips a byte-order mark and replaces invalid UTF-8.
func decodeText(raw string) (string, error) {
	out, _, err := transform.String(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

func headerIndex(headers []string) map[string]int {
	lookup := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if _, ok := lookup[key]; !ok {
			lookup[key] = i
		}
	}
	return lookup
}

func resolveColumn(lookup map[string]int, aliases []string) int {
	for _, alias := range aliases {
		if i, ok := lookup[alias]; ok {
			return i
		}
	}
	return -1
}

func columnName(headers []string, col int) string {
	if col < 0 {
		return "(generated)"
	}
	return fmt.Sprintf("%q", headers[col])
}

func cell(fields []string, col int) string {
	if col < 0 || col >= len(fields) {
		return ""
	}
	return fields[col]
}

// cleanCell normalizes line endings to \n and trims surrounding space.
func cleanCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

func uniqueID(seen map[string]struct{}, id string, index int) string {
	candidate := fmt.Sprintf("%s-%d", id, index+1)
	for n := 2; ; n++ {
		if _, taken := seen[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d-%d", id, index+1, n)
	}
}
