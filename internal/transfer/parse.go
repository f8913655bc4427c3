// Package transfer reads listing import files and writes exports.
package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrUnsupportedFormat is returned for files that are not JSON, CSV or XLSX.
	ErrUnsupportedFormat = errors.New("unsupported import format")
	// ErrMalformed is returned when a file cannot be parsed. Nothing from a
	// malformed file is imported.
	ErrMalformed = errors.New("malformed import file")
	// ErrNoData is returned when a file parses but holds no rows.
	ErrNoData = errors.New("no rows to import")
)

// Row is one imported record keyed by its column header.
type Row map[string]any

// Parse reads an import file, choosing the parser by extension.
func Parse(filename string, content []byte) ([]Row, error) {
	var (
		rows []Row
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		rows, err = parseJSON(content)
	case ".csv":
		rows, err = parseCSV(content)
	case ".xlsx":
		rows, err = parseXLSX(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows, nil
}

// parseJSON accepts an array of objects or a single object.
func parseJSON(content []byte) ([]Row, error) {
	content = bytes.TrimSpace(stripBOM(content))
	if len(content) > 0 && content[0] == '[' {
		var rows []Row
		if err := json.Unmarshal(content, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return rows, nil
	}
	var row Row
	if err := json.Unmarshal(content, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return []Row{row}, nil
}

// parseCSV trims unquoted cells. Quoted cells keep their text as written.
func parseCSV(content []byte) ([]Row, error) {
	content = stripBOM(content)
	lines := bytes.Split(content, []byte("\n"))
	r := csv.NewReader(bytes.NewReader(content))
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for i := range rec {
			if !quotedField(r, lines, i) {
				rec[i] = strings.TrimSpace(rec[i])
			}
		}
		records = append(records, rec)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: a header row and at least one data row are required", ErrMalformed)
	}
	return table(records[0], records[1:])
}

// quotedField reports whether field i of the record r read last started
// with a double quote.
func quotedField(r *csv.Reader, lines [][]byte, i int) bool {
	line, col := r.FieldPos(i)
	if line < 1 || line > len(lines) {
		return false
	}
	l := lines[line-1]
	return col >= 1 && col <= len(l) && l[col-1] == '"'
}

func parseXLSX(content []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: a header row and at least one data row are required", ErrMalformed)
	}

	// spreadsheets drop trailing empty cells
	width := len(records[0])
	for i := range records[1:] {
		for len(records[i+1]) < width {
			records[i+1] = append(records[i+1], "")
		}
		for j := range records[i+1] {
			records[i+1][j] = strings.TrimSpace(records[i+1][j])
		}
	}
	return table(records[0], records[1:])
}

func table(header []string, records [][]string) ([]Row, error) {
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	rows := make([]Row, 0, len(records))
	for n, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d columns, header has %d", ErrMalformed, n+2, len(rec), len(header))
		}
		row := make(Row, len(header))
		for i, h := range header {
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func stripBOM(b []byte) []byte {
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), b)
	if err != nil {
		return b
	}
	return out
}

// text renders an imported cell as a string.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
