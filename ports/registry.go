package ports

import (
	"context"

	"difcregistry/domain/registry"
)

// RegistryClient is the upstream public-register API surface used by both
// fetch phases. Implementations translate transport, decode, and shape
// failures into coded errors; the phases decide whether a failure stops the
// run or skips the record.
type RegistryClient interface {
	// FetchPage returns one page of summary records starting at offset.
	// An empty page with no error means the register has no more data.
	FetchPage(ctx context.Context, offset int) ([]registry.Record, error)

	// FetchDetail returns the located detail item
	// (Data.DIFCData.PublicRegistry[0]) for one company identifier.
	// A missing item is an error, never a partial record.
	FetchDetail(ctx context.Context, recordID string) (registry.Record, error)
}
