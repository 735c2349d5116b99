package domain

import "errors"

var (
	// ErrPostNotFound is returned when the requested post does not exist in the store.
	ErrPostNotFound = errors.New("post not found")

	// ErrDuplicatePost is returned when a post with the same ID already exists.
	ErrDuplicatePost = errors.New("post with this id already exists")

	// ErrStoreNotEmpty is returned by BulkInsert when the store already holds posts.
	ErrStoreNotEmpty = errors.New("post store is not empty")
)
