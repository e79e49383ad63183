package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/okian/aqframes/internal/domain/model"
	"github.com/okian/aqframes/pkg/logger"
)

const (
	defaultPingTimeout = 5 * time.Second
	driverName         = "postgres"
)

// Postgres reads every column of a table, rendering each value as text.
type Postgres struct {
	dsn     string
	table   string
	timeout time.Duration
	logger  logger.Logger
}

// NewPostgres creates a source over table.
func NewPostgres(dsn, table string, opts ...Option) *Postgres {
	p := &Postgres{
		dsn:     dsn,
		table:   table,
		timeout: defaultPingTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Source.
func (p *Postgres) Name() string { return "postgres" }

// Query returns the statement Load runs.
func (p *Postgres) Query() string {
	return "SELECT * FROM " + pq.QuoteIdentifier(p.table)
}

// Load implements Source.
func (p *Postgres) Load(ctx context.Context) ([]model.RawRow, error) {
	db, err := sqlx.Open(driverName, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrRead, err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("%w: ping: %w", ErrRead, err)
	}

	start := time.Now()
	rows, err := db.QueryxContext(ctx, p.Query())
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrRead, err)
	}
	defer rows.Close()

	var out []model.RawRow
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrRead, err)
		}
		out = append(out, TextRow(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	p.logger.Info(ctx, "rows loaded",
		logger.String("table", p.table),
		logger.Int("rows", len(out)),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

// TextRow renders scanned column values as text. NULL becomes an empty cell
// and timestamps keep only their date.
func TextRow(m map[string]any) model.RawRow {
	row := make(model.RawRow, len(m))
	for k, v := range m {
		row[k] = text(v)
	}
	return row
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(model.DateLayout)
	default:
		return fmt.Sprint(t)
	}
}
