package reports

import "context"

// Repo defines persistence operations for reports. All operations are
// atomic single-row accesses.
type Repo interface {
	// Save persists the report and returns its identifier.
	Save(ctx context.Context, report Report) (string, error)
	Get(ctx context.Context, id string) (Report, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Report, error)
	// Delete removes the report and reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
}
