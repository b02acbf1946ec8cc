package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RosterRow is one parsed line of an XLSX roster upload.
type RosterRow struct {
	Name          string
	Class         string
	GuardianName  string
	GuardianPhone string
}

var rosterHeaders = []string{"Nama Siswa", "Kelas", "Orang Tua/Wali", "No. HP Wali"}

// XLSXRosterCodec reads and writes the roster spreadsheet format.
type XLSXRosterCodec struct{}

// NewXLSXRosterCodec constructs the codec.
func NewXLSXRosterCodec() *XLSXRosterCodec {
	return &XLSXRosterCodec{}
}

// Template produces an empty upload template with the expected headers
// and a single example row.
func (c *XLSXRosterCodec) Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, header := range rosterHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("template header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write template header: %w", err)
		}
	}
	example := []string{"Budi Santoso", "XII IPA 1", "Ibu Sari", "081234567890"}
	for i, value := range example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, fmt.Errorf("template example cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return nil, fmt.Errorf("write template example: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse reads uploaded roster rows from the first sheet. The header row
// is skipped, blank lines are ignored, and a row without a name or
// class is rejected with its line number.
func (c *XLSXRosterCodec) Parse(r io.Reader) ([]RosterRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster upload: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open roster workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read roster rows: %w", err)
	}

	parsed := make([]RosterRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		get := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		entry := RosterRow{
			Name:          get(0),
			Class:         get(1),
			GuardianName:  get(2),
			GuardianPhone: get(3),
		}
		if entry.Name == "" && entry.Class == "" && entry.GuardianName == "" && entry.GuardianPhone == "" {
			continue
		}
		if entry.Name == "" || entry.Class == "" {
			return nil, fmt.Errorf("row %d: name and class are required", i+1)
		}
		parsed = append(parsed, entry)
	}
	return parsed, nil
}
