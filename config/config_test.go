package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func setBaseEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("POSTGRES_USER", "readify")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "readify")
	t.Setenv("POSTGRES_HOST", "db")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "http://a.test/, http://b.test")
	t.Setenv("CART_TTL", "48h")

	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.CartTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.PostgresDSN(), "host=db user=readify")
}

func TestLoad_MissingSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background(), nil)
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_SecretsOverride(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AWS_USE_SECRETS", "true")

	secrets := fakeSecrets{
		"readify/DB_CREDENTIALS": `{"POSTGRES_USER":"from-sm","POSTGRES_HOST":"rds.internal"}`,
		"readify/JWT_SECRET":     " sm-secret ",
	}

	cfg, err := Load(context.Background(), secrets)
	require.NoError(t, err)
	assert.Equal(t, "from-sm", cfg.PostgresUser)
	assert.Equal(t, "rds.internal", cfg.PostgresHost)
	assert.Equal(t, "pw", cfg.PostgresPassword)
	assert.Equal(t, "sm-secret", cfg.JWTSecret)
}
