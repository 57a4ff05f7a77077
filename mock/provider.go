// Package mock provides test doubles for diffcov interfaces.
package mock

import (
	"context"

	"github.com/fwojciec/diffcov"
)

// Compile-time interface verification.
var _ diffcov.ChangeSetProvider = (*ChangeSetProvider)(nil)

// ChangeSetProvider is a mock implementation of diffcov.ChangeSetProvider.
type ChangeSetProvider struct {
	ChangedFilesFn func(ctx context.Context, baseline string) ([]string, error)
}

func (p *ChangeSetProvider) ChangedFiles(ctx context.Context, baseline string) ([]string, error) {
	return p.ChangedFilesFn(ctx, baseline)
}
