// Package export writes analysis datasets to disk in CSV, JSON, MessagePack
// or XLSX form, rotating any file already at the destination.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

// Format names an output encoding
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatMsgPack Format = "msgpack"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatMsgPack, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file extension for the format, including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// WithExtension replaces the extension of path with the format's
func (f Format) WithExtension(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + f.Extension()
}

// Dataset is a table ready for export. Rows hold one value per column;
// a nil cell is written as empty. Records is the typed form of the same
// data, used by the structured encoders.
type Dataset struct {
	Name    string
	Columns []string
	Rows    [][]any
	Records any
}

// Encoder serializes a dataset
type Encoder interface {
	Encode(w io.Writer, d Dataset) error
}

// EncoderFor returns the encoder for a format
func EncoderFor(f Format) (Encoder, error) {
	switch f {
	case FormatCSV:
		return csvEncoder{}, nil
	case FormatJSON:
		return jsonEncoder{}, nil
	case FormatMsgPack:
		return msgpackEncoder{}, nil
	case FormatXLSX:
		return xlsxEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

type csvEncoder struct{}

func (csvEncoder) Encode(w io.Writer, d Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return err
	}
	record := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return fmt.Errorf("row has %d cells, expected %d", len(row), len(d.Columns))
		}
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case bool:
		if c {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(c)
	}
}

type jsonEncoder struct{}

func (jsonEncoder) Encode(w io.Writer, d Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d.Records)
}

type msgpackEncoder struct{}

func (msgpackEncoder) Encode(w io.Writer, d Dataset) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(d.Records)
}

type xlsxEncoder struct{}

func (xlsxEncoder) Encode(w io.Writer, d Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := d.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(d.Columns))
	for i, c := range d.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range d.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
