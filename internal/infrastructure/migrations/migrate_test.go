package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/lotes?sslmode=disable", pgx5URL("postgres://u:p@db:5432/lotes?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/lotes", pgx5URL("postgresql://u@db/lotes"))
	assert.Equal(t, "pgx5://ya/convertida", pgx5URL("pgx5://ya/convertida"))
}

func TestMigracionesEmbebidasEnPares(t *testing.T) {
	ups, err := fs.Glob(files, "sql/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(files, "sql/*.down.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
