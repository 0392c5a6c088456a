package psqlbuilder

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_UsesDollarPlaceholders(t *testing.T) {
	query, args, err := Select("id").
		From("bookings").
		Where(squirrel.Eq{"resource_id": int64(7)}).
		Where(squirrel.Eq{"booking_date": "2025-06-02"}).
		ToSql()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM bookings WHERE resource_id = $1 AND booking_date = $2", query)
	assert.Equal(t, []interface{}{int64(7), "2025-06-02"}, args)
}
