package source

import (
	"context"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/internal/sampledata"
)

// Sample serves generated rows.
type Sample struct {
	rows int
	seed int64
}

// NewSample creates a source of rows generated from seed.
func NewSample(rows int, seed int64) *Sample {
	return &Sample{rows: rows, seed: seed}
}

// Name implements Source.
func (s *Sample) Name() string { return "sample" }

// Load implements Source.
func (s *Sample) Load(ctx context.Context) ([]model.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sampledata.Generate(s.rows, s.seed), nil
}
