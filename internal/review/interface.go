package review

import (
	"context"

	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/report"
)

// TableLoader reads an upload into a raw table. The service depends on this
// interface, not on the file importer.
//
//go:generate mockgen -destination=mocks/mock_review.go -package=mocks -source=interface.go
type TableLoader interface {
	Load(ctx context.Context, path string) (*model.Table, error)
}

// Narrator writes an analysis of a pass summary.
type Narrator interface {
	Narrate(ctx context.Context, s report.Summary) (string, error)
}
