package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/aqframes/internal/domain/model"
)

const utf8BOM = "\uFEFF"

// CSV reads a comma-separated file with a header row.
type CSV struct {
	path string
}

// NewCSV creates a source reading path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Name implements Source.
func (c *CSV) Name() string { return "csv" }

// Load implements Source.
func (c *CSV) Load(ctx context.Context) ([]model.RawRow, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV parses r into rows keyed by the header. Short lines leave their
// trailing columns absent; extra cells are dropped.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrRead, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	}

	var rows []model.RawRow
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrRead, line, err)
		}
		row := make(model.RawRow, len(columns))
		for i, v := range rec {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = v
		}
		rows = append(rows, row)
	}
}
