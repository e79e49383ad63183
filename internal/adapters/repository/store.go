// Package repository keeps the frames emitted by chart controllers.
package repository

import (
	"context"

	"github.com/okian/aqframes/internal/domain/model"
)

// Store provides read/write access to emitted frames.
type Store interface {
	// Save records f as the latest frame of its chart.
	Save(ctx context.Context, f model.Frame) error

	// Last returns the latest frame of a chart.
	// Returns ErrNotFound if the chart has emitted nothing.
	Last(ctx context.Context, chart string) (model.Frame, error)

	// History returns up to limit of the most recent frames of a chart, oldest first.
	History(ctx context.Context, chart string, limit int) ([]model.Frame, error)

	// Count returns the number of charts with at least one frame.
	Count(ctx context.Context) int
}
