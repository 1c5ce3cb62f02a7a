package storage

import (
	"context"

	"flight-scraper/models"
)

// ResultExporter persists ranked results to one destination (a file path,
// table or index name; empty selects the exporter's default)
type ResultExporter interface {
	Export(ctx context.Context, results []models.AggregatedResult, destination string) error
}

type runIDKey struct{}

// WithRunID tags ctx with the aggregation run ID stored alongside exported rows
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run ID carried by ctx, or ""
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
