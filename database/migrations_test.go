package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5URL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pgx5://u:p@h:5432/db", pgx5URL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u:p@h:5432/db", pgx5URL("postgresql://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://h/db", pgx5URL("pgx5://h/db"))
}
