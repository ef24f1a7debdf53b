package utils

import (
	"context"
	"time"
)

const (
	// DefaultPageSize is the number of rows requested per page when draining a listing.
	DefaultPageSize = 1000
	// DefaultBatchSize is the number of ids sent in a single lookup.
	DefaultBatchSize = 50
)

// PageFetcher returns up to limit items created strictly after the cursor,
// in ascending creation order. A nil cursor starts from the beginning.
type PageFetcher[T any] func(ctx context.Context, after *time.Time, limit int) ([]T, error)

// Drain pages through a listing and calls visit for every item in order.
// The cursor for the next page is the creation time of the last item seen;
// paging stops after the first page holding fewer than pageSize items.
func Drain[T any](ctx context.Context, pageSize int, fetch PageFetcher[T], createdAt func(T) time.Time, visit func(T) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var cursor *time.Time
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := fetch(ctx, cursor, pageSize)
		if err != nil {
			return err
		}
		for _, item := range page {
			if err := visit(item); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			return nil
		}

		last := createdAt(page[len(page)-1])
		cursor = &last
	}
}

// Collect drains a listing into a slice.
func Collect[T any](ctx context.Context, pageSize int, fetch PageFetcher[T], createdAt func(T) time.Time) ([]T, error) {
	var out []T
	err := Drain(ctx, pageSize, fetch, createdAt, func(item T) error {
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
