package datatable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "xlsx"
)

// DefaultColumnWidth is used for Excel columns without an explicit width.
const DefaultColumnWidth = 20

const (
	utf8BOM = "\uFEFF"
	rtlMark = "\u200F"
)

// File is a generated export ready to be served as a download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatExcel, "excel":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// Export serializes rows, already filtered and sorted, in the requested format.
func (t *Table[T]) Export(rows []T, format Format, now time.Time) (*File, error) {
	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case FormatCSV:
		data, err = t.ExportCSV(rows)
		contentType = "text/csv; charset=utf-8"
	case FormatJSON:
		data, err = t.ExportJSON(rows)
		contentType = "application/json; charset=utf-8"
	case FormatExcel:
		data, err = t.ExportExcel(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
	if err != nil {
		return nil, err
	}

	return &File{
		Name:        fmt.Sprintf("%s_%s.%s", t.Name, now.Format("2006-01-02"), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ExportCSV writes a header row then one row per record, every field quoted.
func (t *Table[T]) ExportCSV(rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if t.RTL {
		buf.WriteString(utf8BOM + rtlMark)
	}

	fields := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		fields[i] = quoteCSV(col.Header)
	}
	buf.WriteString(strings.Join(fields, ","))
	buf.WriteString("\r\n")

	for _, row := range rows {
		for i, col := range t.Columns {
			fields[i] = quoteCSV(FormatValue(col.Value(row)))
		}
		buf.WriteString(strings.Join(fields, ","))
		buf.WriteString("\r\n")
	}
	return buf.Bytes(), nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportJSON writes a pretty-printed array with one object per row, keys in column order.
func (t *Table[T]) ExportJSON(rows []T) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for r, row := range rows {
		if r > 0 {
			compact.WriteByte(',')
		}
		compact.WriteByte('{')
		for i, col := range t.Columns {
			if i > 0 {
				compact.WriteByte(',')
			}
			key, err := marshalNoEscape(col.Key)
			if err != nil {
				return nil, err
			}
			val, err := marshalNoEscape(jsonValue(col.Value(row)))
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", col.Key, err)
			}
			compact.Write(key)
			compact.WriteByte(':')
			compact.Write(val)
		}
		compact.WriteByte('}')
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent export: %w", err)
	}
	return out.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func jsonValue(v any) any {
	switch d := v.(type) {
	case time.Time, *time.Time:
		if s := FormatValue(d); s != "" {
			return s
		}
		return nil
	case *string:
		if d == nil {
			return nil
		}
		return *d
	case *int:
		if d == nil {
			return nil
		}
		return *d
	case *uint:
		if d == nil {
			return nil
		}
		return *d
	case *float64:
		if d == nil {
			return nil
		}
		return *d
	}
	return v
}

// ExportExcel writes a single-sheet workbook with a bold header row and fixed column widths.
func (t *Table[T]) ExportExcel(rows []T) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if t.RTL {
		rtl := true
		if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
			return nil, fmt.Errorf("failed to set sheet direction: %w", err)
		}
	}

	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, err
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := col.Width
		if width == 0 {
			width = DefaultColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return nil, err
		}
	}

	if len(t.Columns) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, err
		}
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		for i, col := range t.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(sheet, cell, excelValue(col.Value(row))); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetName(name string) string {
	if name == "" {
		return "Sheet1"
	}
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

func excelValue(v any) any {
	if d := jsonValue(v); d != nil {
		return d
	}
	return ""
}

// FormatValue renders an export value as text. Dates use the YYYY-MM-DD layout.
func FormatValue(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case *string:
		if d == nil {
			return ""
		}
		return *d
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format("2006-01-02")
	case *time.Time:
		if d == nil {
			return ""
		}
		return FormatValue(*d)
	case int:
		return strconv.Itoa(d)
	case *int:
		if d == nil {
			return ""
		}
		return strconv.Itoa(*d)
	case uint:
		return strconv.FormatUint(uint64(d), 10)
	case *uint:
		if d == nil {
			return ""
		}
		return strconv.FormatUint(uint64(*d), 10)
	case int64:
		return strconv.FormatInt(d, 10)
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case *float64:
		if d == nil {
			return ""
		}
		return strconv.FormatFloat(*d, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(d)
	case fmt.Stringer:
		return d.String()
	default:
		return fmt.Sprint(d)
	}
}
