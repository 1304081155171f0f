package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Tabular is a record that can be laid out as one table row.
type Tabular interface {
	Columns() []string
	Values() []any
}

const sheetName = "Products"

// WriteCSV writes a header row of bare column names taken from the first
// record followed by one row per record. Every value is quoted with embedded
// quotes doubled, nil values are empty and rows are separated by "\n" with no
// trailing newline. An empty list writes nothing.
func WriteCSV[T Tabular](w io.Writer, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, strings.Join(records[0].Columns(), ",")); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if _, err := io.WriteString(w, "\n"+csvLine(rec.Values())); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	return nil
}

// EncodeCSV returns the WriteCSV output as bytes.
func EncodeCSV[T Tabular](records []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX writes the same table as WriteCSV as a single-sheet workbook.
func WriteXLSX[T Tabular](w io.Writer, records []T) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	if len(records) > 0 {
		if err := setRow(sw, 1, stringSlice(records[0].Columns())); err != nil {
			return err
		}
		for i, rec := range records {
			row := make([]any, 0, len(rec.Values()))
			for _, v := range rec.Values() {
				row = append(row, xlsxCell(v))
			}
			if err := setRow(sw, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(sw *excelize.StreamWriter, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func csvLine(values []any) string {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = `"` + strings.ReplaceAll(formatCell(v), `"`, `""`) + `"`
	}
	return strings.Join(fields, ",")
}

func stringSlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// formatCell renders one value as text. Nil and nil pointers are empty.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func xlsxCell(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool, int, int64, float64:
		return val
	case *time.Time:
		if val == nil {
			return nil
		}
		return formatCell(val)
	default:
		return formatCell(v)
	}
}
