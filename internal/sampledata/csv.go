package sampledata

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/okian/aqframes/internal/domain/model"
)

// WriteCSV writes rows under a header of columns. Absent cells are empty.
func WriteCSV(w io.Writer, columns []string, rows []model.RawRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(columns))
	for i, row := range rows {
		for j, c := range columns {
			rec[j] = row[c]
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
