package cv

import "context"

// Repo persists CV records. Every operation is scoped by the owning user.
type Repo interface {
	// Save inserts the record or replaces the document of an existing one.
	// It returns ErrNotFound and writes nothing when the id belongs to
	// another user. The returned record carries the stored timestamps.
	Save(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, userID, id string) (Record, error)
	// ListByUser returns the user's CVs, most recently updated first.
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	Delete(ctx context.Context, userID, id string) error
	Reassign(ctx context.Context, fromUserID, toUserID string) (int, error)
}
