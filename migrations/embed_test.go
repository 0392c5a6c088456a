package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsGooseMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		data, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", name)
		assert.Contains(t, string(data), "-- +goose Down", name)
	}
}

func TestInitSchema_HasNoOverlapConstraint(t *testing.T) {
	data, err := fs.ReadFile(FS, "00001_init_schema.sql")
	require.NoError(t, err)

	schema := string(data)
	assert.True(t, strings.Contains(schema, "EXCLUDE USING gist"))
	assert.Contains(t, schema, "int4range(start_minute, end_minute + buffer_minutes) WITH &&")
	assert.Contains(t, schema, "WHERE (status <> 'cancelled')")
}
