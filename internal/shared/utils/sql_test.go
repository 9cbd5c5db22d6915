package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereBuilder(t *testing.T) {
	var where WhereBuilder
	assert.Empty(t, where.SQL())

	where.Add("l.user_id = ?", "u-1")
	where.Add("(b.title ILIKE ? OR b.isbn ILIKE ?)", "%dune%", "%dune%")
	where.Add("l.status IN ('borrowed','overdue')")
	limit := where.Next(10)

	assert.Equal(t, "WHERE l.user_id = $1 AND (b.title ILIKE $2 OR b.isbn ILIKE $3) AND l.status IN ('borrowed','overdue')", where.SQL())
	assert.Equal(t, "$4", limit)
	assert.Equal(t, []any{"u-1", "%dune%", "%dune%", 10}, where.Args())
}
