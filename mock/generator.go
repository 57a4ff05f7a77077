package mock

import (
	"context"

	"github.com/fwojciec/diffcov"
)

// Compile-time interface verification.
var _ diffcov.ReportGenerator = (*ReportGenerator)(nil)

// ReportGenerator is a mock implementation of diffcov.ReportGenerator. It
// carries every field the controller injects, so it doubles as a conformant
// injection target.
type ReportGenerator struct {
	OutputDirectory string
	DataFile        string
	OutputEncoding  string
	SourceEncoding  string
	Skip            bool
	Includes        []string
	Excludes        []string

	ExecuteFn func(ctx context.Context, beforeReport func(context.Context) error) error
}

func (g *ReportGenerator) Execute(ctx context.Context, beforeReport func(context.Context) error) error {
	return g.ExecuteFn(ctx, beforeReport)
}
