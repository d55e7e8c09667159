package database

import (
	"testing"

	"github.com/homecare-coop/backoffice/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestConnectionString(t *testing.T) {
	t.Run("builds keyword DSN from discrete fields", func(t *testing.T) {
		dsn := connectionString(config.Database{
			Host: "localhost", Port: 5432, User: "coop", Pass: "it's", Name: "coop", Schema: "backoffice",
		})
		assert.Equal(t, `host=localhost port=5432 user=coop password='it\'s' dbname=coop sslmode=disable options='-c search_path=backoffice'`, dsn)
	})

	t.Run("prefers url and adds search path", func(t *testing.T) {
		dsn := connectionString(config.Database{Url: "postgres://u:p@db:5432/coop?sslmode=require", Schema: "backoffice"})
		assert.Equal(t, "postgres://u:p@db:5432/coop?search_path=backoffice&sslmode=require", dsn)
	})

	t.Run("keeps explicit search path from url", func(t *testing.T) {
		dsn := connectionString(config.Database{Url: "postgres://u:p@db:5432/coop?search_path=other", Schema: "backoffice"})
		assert.Equal(t, "postgres://u:p@db:5432/coop?search_path=other", dsn)
	})
}

func TestMigrationUrl_EscapesPassword(t *testing.T) {
	u := migrationUrl(config.Database{Host: "h", Port: 1, User: "u", Pass: "p@ss", Name: "n", Schema: "s"})
	assert.Equal(t, "postgres://u:p%40ss@h:1/n?sslmode=disable&search_path=s", u)
}
