package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

func TestFromEnvParsesReadHosts(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "primary.internal")
	t.Setenv("DB_USERNAME", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_DATABASE", "app_db")
	t.Setenv("DB_READ_HOSTS", "replica-a, replica-b,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, dialect.Postgres, cfg.Write.Driver)
	assert.Equal(t, "primary.internal", cfg.Write.Host)
	require.Len(t, cfg.Read, 2)
	assert.Equal(t, "replica-a", cfg.Read[0].Host)
	assert.Equal(t, "replica-b", cfg.Read[1].Host)
}

func TestFromEnvRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mssql")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvDefaultsToMySQL(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, cfg.Write.Driver)
}
