package todo

import "context"

// Store persists todos. It is the source of truth; implementations must be
// safe for concurrent use and UpdateByID must be atomic per record.
//
// Lookups of an absent id return (nil, nil) or false rather than an error.
type Store interface {
	FindAll(ctx context.Context) ([]Todo, error)
	FindByID(ctx context.Context, id string) (*Todo, error)
	// Insert assigns ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, in CreateInput) (*Todo, error)
	// UpdateByID applies the present fields and refreshes UpdatedAt.
	UpdateByID(ctx context.Context, id string, in UpdateInput) (*Todo, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}
