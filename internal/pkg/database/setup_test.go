package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/tutorsite/internal/pkg/env"
)

func TestDSN(t *testing.T) {
	env.Env = map[string]string{
		"DB_HOST":     "db",
		"DB_USER":     "tutor",
		"DB_PASSWORD": "secret",
		"DB_NAME":     "tutor_db",
	}
	t.Cleanup(func() { env.Env = nil })

	assert.Equal(t, "tutor:secret@tcp(db:3306)/tutor_db?charset=utf8mb4&parseTime=True&loc=UTC", DSN(DriverMySQL))
	assert.Equal(t, "host=db user=tutor password=secret dbname=tutor_db port=5432 sslmode=disable TimeZone=UTC", DSN(DriverPostgres))
}

func TestDialector(t *testing.T) {
	d, err := Dialector(DriverMySQL, "dsn")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = Dialector(DriverPostgres, "dsn")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector("sqlite", "dsn")
	assert.Error(t, err)
}

func TestModelsCoverEveryTable(t *testing.T) {
	assert.Len(t, Models(), 13)
	assert.True(t, Config().TranslateError)
}
