package datagrid

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/ettle/strcase"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	xlsxSheet = "Sheet1"
)

// ExportFilename extracts the filename from a Content-Disposition header value.
// The result is reduced to its base name; "" means no usable filename.
func ExportFilename(disposition string) string {
	if strings.TrimSpace(disposition) == "" {
		return ""
	}
	var name string
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		name = params["filename"]
	} else {
		name = looseFilename(disposition)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// looseFilename reads filename= from headers mime rejects, such as unquoted
// names containing spaces.
func looseFilename(disposition string) string {
	for _, part := range strings.Split(disposition, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "filename") {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return ""
}

// DefaultExportName builds <entity>_<YYYY-MM-DD>.<ext>.
func DefaultExportName(entity string, at time.Time, ext string) string {
	slug := strcase.ToSnake(entity)
	if slug == "" {
		slug = "export"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "csv"
	}
	return fmt.Sprintf("%s_%s.%s", slug, at.Format(time.DateOnly), ext)
}

// WriteCSV serializes rows using the column labels as header.
func WriteCSV(w io.Writer, columns []Column, rows []Row, formatter Formatter) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns to export", ErrExportFailed)
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = columnLabel(col)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("datagrid: write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = formatter.Field(row, col.Key)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("datagrid: write csv row %s: %w", row.ID(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("datagrid: flush csv: %w", err)
	}
	return nil
}

// WriteXLSX serializes rows into a single-sheet workbook.
func WriteXLSX(w io.Writer, columns []Column, rows []Row, formatter Formatter) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns to export", ErrExportFailed)
	}
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = columnLabel(col)
	}
	if err := setXLSXRow(f, 1, header); err != nil {
		return err
	}
	for r, row := range rows {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = formatter.Field(row, col.Key)
		}
		if err := setXLSXRow(f, r+2, values); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("datagrid: write xlsx: %w", err)
	}
	return nil
}

func setXLSXRow(f *excelize.File, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("datagrid: xlsx cell: %w", err)
	}
	if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
		return fmt.Errorf("datagrid: xlsx row %d: %w", rowNum, err)
	}
	return nil
}

// clientExport renders the loaded page with the fallback column set.
func clientExport(entity EntityConfig, visible []Column, rows []Row, formatter Formatter, at time.Time) (ExportFile, error) {
	if len(rows) == 0 {
		return ExportFile{}, fmt.Errorf("%w: no rows loaded", ErrExportFailed)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entity.fallbackColumns(visible), rows, formatter); err != nil {
		return ExportFile{}, err
	}
	return ExportFile{
		Name:        DefaultExportName(entity.Code, at, "csv"),
		ContentType: ContentTypeCSV,
		Data:        buf.Bytes(),
		Source:      ExportSourceClient,
		Rows:        len(rows),
	}, nil
}

func columnLabel(col Column) string {
	if col.Label != "" {
		return col.Label
	}
	return col.Key
}
