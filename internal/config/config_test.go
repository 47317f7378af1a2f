package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", BackendPostgres)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestLoad_FirestoreRequiresProjectID(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", BackendFirestore)
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingFirebaseConfig)
}

func TestLoad_MemoryNeedsNothing(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", BackendMemory)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.CatalogBackend)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "couchdb")

	_, err := Load()
	var cfgErr ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoad_ParsesOriginsAndR2(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", BackendMemory)
	t.Setenv("ALLOWED_ORIGINS", "http://a.example , http://b.example")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY", "key")
	t.Setenv("R2_SECRET_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "media")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.R2Config.Enabled())
	assert.Equal(t, "https://media.acct.r2.cloudflarestorage.com", cfg.R2Config.PublicURL)
}
