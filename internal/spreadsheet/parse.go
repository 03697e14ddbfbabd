package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parse reads an uploaded spreadsheet. The format is picked from the
// file extension: .xlsx via excelize, anything else is treated as CSV.
func Parse(r io.Reader, filename string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	default:
		return ParseCSV(r)
	}
}

// ParseXLSX reads the first sheet of an XLSX workbook.
func ParseXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Sheet{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return FromRecords(rows), nil
}

// ParseCSV reads a CSV export. Brazilian Excel exports use ";" as the
// field separator; the delimiter is sniffed from the header line.
func ParseCSV(r io.Reader) (*Sheet, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek csv header: %w", err)
	}
	comma := ','
	if line, _, _ := bytes.Cut(head, []byte("\n")); bytes.ContainsRune(line, ';') {
		comma = ';'
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromRecords(records), nil
}
