// Package layout converts a field-definition spreadsheet into the
// positional field-layout JSON descriptor. The workbook's first sheet
// must carry Item, Field, Size and Position columns.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultFilename is where the converted layout is written.
const DefaultFilename = "output.json"

// ErrMissingColumn reports a required header column absent from the sheet.
var ErrMissingColumn = errors.New("missing expected column")

// Field is one positional field in the layout descriptor.
type Field struct {
	FieldName string `json:"fieldName"`
	DataType  string `json:"dataType"`
	Size      int    `json:"size"`
	Pos       string `json:"pos"`
}

// Layout is the full descriptor document.
type Layout struct {
	Detail map[string]Field `json:"detail"`

	// Dropped counts rows discarded for missing required values.
	Dropped int `json:"-"`
}

// fieldNameCleaner strips spaces, parentheses and hyphens from raw names.
var fieldNameCleaner = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "")

// FromWorkbook reads the first sheet of an .xlsx workbook and builds the
// layout descriptor. The Item column is forward-filled; rows missing any
// of Field, Size or Position are dropped; rows whose Size is not an
// integer are skipped, leaving a gap in the numbering.
func FromWorkbook(path string) (*Layout, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: Item", ErrMissingColumn)
	}

	// Header row, trimmed.
	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols["Item"]; !ok {
		return nil, fmt.Errorf("%w: Item", ErrMissingColumn)
	}
	for _, required := range []string{"Field", "Size", "Position"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	type record struct {
		field string
		size  string
		pos   string
	}

	// Item is required but not emitted; the descriptor is positional.
	var kept []record
	dropped := 0
	for _, row := range rows[1:] {
		rec := record{
			field: cell(row, cols["Field"]),
			size:  cell(row, cols["Size"]),
			pos:   cell(row, cols["Position"]),
		}
		if rec.field == "" || rec.size == "" || rec.pos == "" {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}

	detail := make(map[string]Field, len(kept))
	for i, rec := range kept {
		size, err := strconv.Atoi(rec.size)
		if err != nil {
			// A bad Size skips the row but keeps its slot in the
			// numbering; downstream readers tolerate the gap.
			continue
		}
		detail[strconv.Itoa(i+1)] = Field{
			FieldName: fieldNameCleaner.Replace(rec.field),
			DataType:  "string",
			Size:      size,
			Pos:       rec.pos,
		}
	}

	return &Layout{Detail: detail, Dropped: dropped}, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Write serializes the layout to path with four-space indentation.
func (l *Layout) Write(path string) error {
	data, err := json.MarshalIndent(l, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
