package csvimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"
)

// Parse reads a comma separated file whose first non-empty line holds the headers. Values are trimmed and double
// quotes are removed. Quoted fields may contain commas.
func Parse(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w %s", ErrInvalidFormat, err)
	}

	return toTable(records)
}

// ParseXLSX reads the first sheet of a spreadsheet upload
func ParseXLSX(r io.ReaderAt, size int64) (Table, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return Table{}, fmt.Errorf("%w %s", ErrInvalidFormat, err)
	}

	if len(file.Sheets) == 0 {
		return Table{}, ErrInvalidFormat
	}

	var records [][]string
	for _, row := range file.Sheets[0].Rows {
		if row == nil {
			continue
		}

		record := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			if cell == nil {
				record = append(record, "")
				continue
			}

			record = append(record, cell.String())
		}

		records = append(records, record)
	}

	return toTable(records)
}

// ParseFile picks the parser based on the file extension, .xlsx files are read as spreadsheets and everything else
// as CSV.
func ParseFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}

	defer func() {
		_ = f.Close()
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		info, err := f.Stat()
		if err != nil {
			return Table{}, err
		}

		return ParseXLSX(f, info.Size())
	case ".xls":
		return Table{}, fmt.Errorf("%w %q", ErrUnsupportedFormat, filepath.Ext(path))
	default:
		return Parse(f)
	}
}

// ParseUpload is ParseFile for content that is already in memory, name is only used for its extension
func ParseUpload(name string, b []byte) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		return ParseXLSX(bytes.NewReader(b), int64(len(b)))
	case ".xls":
		return Table{}, fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)
	default:
		return Parse(bytes.NewReader(b))
	}
}

func toTable(records [][]string) (Table, error) {
	var lines [][]string
	for _, record := range records {
		cleaned := make([]string, len(record))

		var empty = true
		for i, v := range record {
			cleaned[i] = cleanValue(v)
			if cleaned[i] != "" {
				empty = false
			}
		}

		if !empty {
			lines = append(lines, cleaned)
		}
	}

	if len(lines) < 2 {
		return Table{}, ErrInvalidFormat
	}

	return Table{
		Headers: lines[0],
		Rows:    lines[1:],
	}, nil
}

func cleanValue(v string) string {
	return strings.TrimSpace(strings.ReplaceAll(v, `"`, ""))
}
