// Package export turns a tool's output into a downloadable artifact:
// either a formatted CSV from row-shaped results or a raw file from an
// opaque server response.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pmarinho/analisador-fiscal/internal/model"
)

// Column projects one field of a result record into a CSV cell.
type Column struct {
	Title string
	Value func(r model.ResultRecord) string
}

// Currency renders a fixed-point amount with two decimals and a comma
// separator, the convention spreadsheet users here expect.
func Currency(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

// KeyCell prefixes the fiscal document key with an apostrophe so
// spreadsheet tools don't coerce the 44-digit key into a number.
func KeyCell(key string) string {
	return "'" + key
}

// icmsColumns is the projection for the ICMS analysis family. The
// status-code column shown on screen is excluded from exports.
var icmsColumns = []Column{
	{Title: "Chave NFe", Value: func(r model.ResultRecord) string { return KeyCell(r.NFeKey) }},
	{Title: "Status", Value: func(r model.ResultRecord) string { return strings.Join(r.Alerts, "; ") }},
	{Title: "ICMS XML (R$)", Value: func(r model.ResultRecord) string { return Currency(r.Data.IcmsXML) }},
	{Title: "ICMS SPED (R$)", Value: func(r model.ResultRecord) string { return Currency(r.Data.IcmsSped) }},
	{Title: "CFOPs SPED", Value: func(r model.ResultRecord) string { return strings.Join(r.Data.CfopsSped, ", ") }},
	{Title: "Numero da Nota", Value: func(r model.ResultRecord) string { return r.Data.DocNumber }},
}

// ipiStColumns is the projection for the IPI/ST analysis family.
var ipiStColumns = []Column{
	{Title: "Chave NFe", Value: func(r model.ResultRecord) string { return KeyCell(r.NFeKey) }},
	{Title: "Alertas", Value: func(r model.ResultRecord) string { return strings.Join(r.Alerts, "; ") }},
	{Title: "IPI XML (R$)", Value: func(r model.ResultRecord) string { return Currency(r.Data.IPIValueXML) }},
	{Title: "IPI SPED (R$)", Value: func(r model.ResultRecord) string { return Currency(r.Data.IPIValueSped) }},
	{Title: "ST XML (R$)", Value: func(r model.ResultRecord) string { return Currency(r.Data.STValueXML) }},
	{Title: "ST SPED (R$)", Value: func(r model.ResultRecord) string { return Currency(r.Data.STValueSped) }},
}

// ColumnsFor returns the export projection for an analysis tool, or an
// error for keys that produce no tabular results.
func ColumnsFor(key model.ToolKey) ([]Column, error) {
	switch key {
	case model.ToolAnaliseICMS:
		return icmsColumns, nil
	case model.ToolAnaliseIPIST:
		return ipiStColumns, nil
	default:
		return nil, fmt.Errorf("tool %s has no tabular export", key)
	}
}

// WriteCSV writes the projected records as a semicolon-delimited CSV.
// A UTF-8 byte-order marker is prepended so currency characters render
// correctly in common spreadsheet tools. Empty input writes nothing.
func WriteCSV(w io.Writer, columns []Column, records []model.ResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	if _, err := w.Write([]byte("\uFEFF")); err != nil {
		return fmt.Errorf("failed to write byte-order marker: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Title
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, col := range columns {
			row[i] = col.Value(record)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV materializes the export at path. With no results it is a
// no-op: no file is produced and no error raised.
func SaveCSV(path string, columns []Column, records []model.ResultRecord) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, columns, records); err != nil {
		_ = f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return true, nil
}
