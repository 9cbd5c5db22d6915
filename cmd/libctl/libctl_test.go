package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lite/internal/domains/book/model"
	"library-lite/internal/domains/book/service"
	"library-lite/internal/domains/fine"
	"library-lite/internal/shared"
	"library-lite/internal/testutil/memstore"
)

func TestPreviewFine(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := shared.NewManualClock(due.Add(4*24*time.Hour + time.Hour))

	t.Run("open loan uses now", func(t *testing.T) {
		p := previewFine(fine.DefaultPolicy(), clock, due, nil)
		assert.Equal(t, fine.StatusOverdue, p.Status)
		assert.Equal(t, 5, p.DaysOverdue)
		assert.Equal(t, "25.00", p.Amount.StringFixed(2))
	})

	t.Run("returned on time", func(t *testing.T) {
		returned := due.Add(-time.Hour)
		p := previewFine(fine.DefaultPolicy(), clock, due, &returned)
		assert.Equal(t, fine.StatusReturned, p.Status)
		assert.Zero(t, p.DaysOverdue)
		assert.True(t, p.Amount.IsZero())
	})
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("2026-03-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = parseDate("01/03/2026")
	assert.Error(t, err)
}

func TestSeedCatalogIsRerunnable(t *testing.T) {
	store := memstore.New()
	svc := service.NewBookService(store, store.Books(), store.Authors(), nil, nil)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, seedCatalog(ctx, svc, demoCatalog, &out))
	assert.Contains(t, out.String(), "Seeded 6 books (0 already present)")

	out.Reset()
	require.NoError(t, seedCatalog(ctx, svc, demoCatalog, &out))
	assert.Contains(t, out.String(), "Seeded 0 books (6 already present)")

	authors, total, err := svc.ListAuthors(ctx, model.AuthorFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, len(demoCatalog), total)
	assert.Len(t, authors, len(demoCatalog))

	books, _, err := svc.ListBooks(ctx, model.BookFilter{Search: "dune", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 4, books[0].TotalCopies)
	assert.Equal(t, 4, books[0].AvailableCopies)
}
