package domain

import "context"

// PostRepository is the durable post store.
type PostRepository interface {
	InitSchema(ctx context.Context) error

	List(ctx context.Context) ([]Post, error)
	// GetByID returns ErrPostNotFound when the post does not exist.
	GetByID(ctx context.Context, id string) (*Post, error)
	Count(ctx context.Context) (int64, error)

	// Create returns ErrDuplicatePost on an id conflict.
	Create(ctx context.Context, post *Post) error
	// Delete returns ErrPostNotFound when nothing was removed.
	Delete(ctx context.Context, id string) error

	// BulkInsert seeds an empty store. It returns ErrStoreNotEmpty without
	// writing anything when the store already holds posts; ids that conflict
	// inside the batch are skipped.
	BulkInsert(ctx context.Context, posts []Post) error
}

// RemoteSource fetches seed posts from a third party. It never fails:
// any error is reported as an empty result.
type RemoteSource interface {
	FetchAll(ctx context.Context) []Post
}

// EventNotifier receives post change events. Implementations must not block.
type EventNotifier interface {
	Notify(event string, payload any)
}

// PostUsecase is the surface exposed to transports.
type PostUsecase interface {
	ListAll(ctx context.Context) ([]Post, error)
	GetByID(ctx context.Context, id string) (Post, error)
	Create(ctx context.Context, request CreatePostRequest) (Post, error)
	DeleteByID(ctx context.Context, id string) error
}
