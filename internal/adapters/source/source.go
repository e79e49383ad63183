// Package source loads raw rows from a CSV file, a Postgres table or the
// built-in generator.
package source

import (
	"context"
	"fmt"

	"github.com/okian/aqframes/internal/config"
	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/pkg/logger"
)

// Source yields the raw table.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.RawRow, error)
}

// FromConfig builds the source selected by cfg.Source.
func FromConfig(cfg *config.Config, l logger.Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceSample:
		return NewSample(cfg.SampleRows, cfg.SampleSeed), nil
	case config.SourceCSV:
		return NewCSV(cfg.DataPath), nil
	case config.SourcePostgres:
		return NewPostgres(cfg.PostgresDSN, cfg.PostgresTable, WithLogger(l)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
}
