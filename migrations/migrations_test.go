package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_OrderedWithUpAndDown(t *testing.T) {
	found, err := Source().FindMigrations()
	require.NoError(t, err)
	require.Len(t, found, 3)

	ids := []string{found[0].Id, found[1].Id, found[2].Id}
	assert.Equal(t, []string{"0001_schema.sql", "0002_criartransacao.sql", "0003_seed_clientes.sql"}, ids)

	for _, m := range found {
		assert.NotEmpty(t, m.Up, m.Id)
		assert.NotEmpty(t, m.Down, m.Id)
	}
}

func TestSource_FunctionIsOneStatement(t *testing.T) {
	found, err := Source().FindMigrations()
	require.NoError(t, err)

	fn := found[1]
	require.Len(t, fn.Up, 2)
	assert.Contains(t, fn.Up[1], "CREATE OR REPLACE FUNCTION criartransacao")
	assert.Contains(t, fn.Up[1], "$$ LANGUAGE plpgsql;")
}
