package xapi

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// Export is a rendered tabular payload ready to be written out as a
// file attachment.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CSVExport serializes rows under the given column order. The header is
// always present, even with zero rows.
func CSVExport(columns []string, rows []Row, filename string) (*Export, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &Export{
		Filename:    filename,
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

// SafeFilenamePart makes a query or username usable inside a download
// filename: spaces become underscores and the result is capped at 50
// runes.
func SafeFilenamePart(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	if runes := []rune(s); len(runes) > 50 {
		s = string(runes[:50])
	}
	return s
}
