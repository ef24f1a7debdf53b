package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id        int
	createdAt time.Time
}

func rowCreatedAt(r row) time.Time { return r.createdAt }

// fakeListing serves rows created strictly after the cursor.
type fakeListing struct {
	rows    []row
	calls   int
	cursors []*time.Time
}

func newFakeListing(n int) *fakeListing {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := &fakeListing{}
	for i := range n {
		l.rows = append(l.rows, row{id: i, createdAt: base.Add(time.Duration(i) * time.Second)})
	}
	return l
}

func (l *fakeListing) fetch(_ context.Context, after *time.Time, limit int) ([]row, error) {
	l.calls++
	l.cursors = append(l.cursors, after)
	var page []row
	for _, r := range l.rows {
		if after != nil && !r.createdAt.After(*after) {
			continue
		}
		page = append(page, r)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func TestCollect_ExactMultipleOfPageSize(t *testing.T) {
	listing := newFakeListing(2000)

	items, err := Collect(context.Background(), DefaultPageSize, listing.fetch, rowCreatedAt)

	require.NoError(t, err)
	assert.Len(t, items, 2000)
	assert.Equal(t, 3, listing.calls)
	assert.Nil(t, listing.cursors[0])
	assert.Equal(t, listing.rows[999].createdAt, *listing.cursors[1])
	assert.Equal(t, listing.rows[1999].createdAt, *listing.cursors[2])
	for i, item := range items {
		assert.Equal(t, i, item.id)
	}
}

func TestCollect_PartialLastPage(t *testing.T) {
	listing := newFakeListing(25)

	items, err := Collect(context.Background(), 10, listing.fetch, rowCreatedAt)

	require.NoError(t, err)
	assert.Len(t, items, 25)
	assert.Equal(t, 3, listing.calls)
}

func TestCollect_Empty(t *testing.T) {
	listing := newFakeListing(0)

	items, err := Collect(context.Background(), 10, listing.fetch, rowCreatedAt)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, listing.calls)
}

func TestDrain_FetchErrorStops(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fetch := func(_ context.Context, _ *time.Time, limit int) ([]row, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return make([]row, limit), nil
	}

	err := Drain(context.Background(), 5, fetch, rowCreatedAt, func(row) error { return nil })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDrain_VisitErrorStops(t *testing.T) {
	listing := newFakeListing(30)
	stop := errors.New("stop")
	seen := 0

	err := Drain(context.Background(), 10, listing.fetch, rowCreatedAt, func(r row) error {
		seen++
		if r.id == 4 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 1, listing.calls)
}

func TestDrain_CancelledContext(t *testing.T) {
	listing := newFakeListing(30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Drain(ctx, 10, listing.fetch, rowCreatedAt, func(row) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, listing.calls)
}

func TestChunk(t *testing.T) {
	ids := make([]int64, 120)
	for i := range ids {
		ids[i] = int64(i)
	}

	chunks := Chunk(ids, DefaultBatchSize)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 50)
	assert.Len(t, chunks[1], 50)
	assert.Len(t, chunks[2], 20)
	assert.Equal(t, int64(119), chunks[2][19])
	assert.Empty(t, Chunk([]int64{}, 50))
}

func TestChunk_AppendDoesNotClobberNextChunk(t *testing.T) {
	ids := []int64{1, 2, 3, 4}

	chunks := Chunk(ids, 2)
	grown := append(chunks[0], 99)

	assert.Equal(t, []int64{1, 2, 99}, grown)
	assert.Equal(t, []int64{3, 4}, chunks[1])
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
	assert.Equal(t, 2, cap(chunks[0]))
}
