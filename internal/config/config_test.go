package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-dive-auth/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, time.Hour, cfg.JWTAccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	require.Equal(t, 12, cfg.BcryptCost)
	require.Equal(t, DocumentStoreLocal, cfg.DocumentStore)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, model.MinSignupBodySize, cfg.MaxUploadSize)
	require.GreaterOrEqual(t, cfg.MaxUploadSize, 2*model.MaxDocumentSize)
}

func TestLoadS3Prefix(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DOCUMENT_STORE", "s3")
	t.Setenv("S3_BUCKET", "dive-docs")
	t.Setenv("S3_PREFIX", "/verification/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "verification", cfg.S3Prefix)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_BACKEND", "memory")

	_, err := Load()
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			ServerPort:     "8080",
			RequestTimeout: time.Second,
			StoreBackend:   StoreBackendPostgres,
			DatabaseURL:    "postgres://localhost/dive",
			JWTSecret:      "secret",
			JWTAccessTTL:   time.Hour,
			JWTRefreshTTL:  time.Hour,
			BcryptCost:     10,
			MaxUploadSize:  model.MinSignupBodySize,
			DocumentStore:  DocumentStoreLocal,
			UploadRoot:     "./uploads",
		}
	}

	require.NoError(t, base().Validate())

	noDB := base()
	noDB.DatabaseURL = ""
	require.ErrorContains(t, noDB.Validate(), "DATABASE_URL")

	noBucket := base()
	noBucket.DocumentStore = DocumentStoreS3
	require.ErrorContains(t, noBucket.Validate(), "S3_BUCKET")

	halfAdmin := base()
	halfAdmin.AdminEmail = "admin@example.com"
	require.ErrorContains(t, halfAdmin.Validate(), "ADMIN_PASSWORD")

	badFormat := base()
	badFormat.LogFormat = "xml"
	require.ErrorContains(t, badFormat.Validate(), "LOG_FORMAT")

	smallBody := base()
	smallBody.MaxUploadSize = 10 * 1024 * 1024
	require.ErrorContains(t, smallBody.Validate(), "MAX_UPLOAD_SIZE")

	badCost := base()
	badCost.BcryptCost = 2
	require.ErrorContains(t, badCost.Validate(), "BCRYPT_COST")
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	require.Nil(t, splitCSV("  "))
	require.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b "))
}
