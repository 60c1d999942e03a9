package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	// A missing file is not an error; defaults apply.
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8750, cfg.Server.Port)
	assert.Equal(t, "memoryd", cfg.Auth.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL.Duration())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithFile_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  shutdown_timeout: 30s
auth:
  jwt_secret: file-secret
  token_salt: file-salt
  access_ttl: 5m
logging:
  level: debug
  format: console
`)
	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret.Value())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
auth:
  jwt_secret: file-secret
  token_salt: file-salt
`)
	t.Setenv("MEMORYD_SERVER_PORT", "9100")
	t.Setenv("MEMORYD_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("MEMORYD_EMBEDDING_BASE_URL", "http://tei:8080/v1")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret.Value())
	assert.Equal(t, "file-salt", cfg.Auth.TokenSalt.Value())
	assert.Equal(t, "http://tei:8080/v1", cfg.Embedding.BaseURL)
}

func TestTransformEnvKey(t *testing.T) {
	cases := map[string]string{
		"MEMORYD_SERVER_PORT":        "server.port",
		"MEMORYD_AUTH_JWT_SECRET":    "auth.jwt_secret",
		"MEMORYD_AUTH_TOKEN_MAX_TTL": "auth.token_max_ttl",
		"MEMORYD_EMBEDDING_BASE_URL": "embedding.base_url",
	}
	for in, want := range cases {
		assert.Equal(t, want, transformEnvKey(in), in)
	}
}

func TestLoadWithFile_Malformed(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := LoadWithFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Auth.JWTSecret = "s"
		cfg.Auth.TokenSalt = "salt"
		return cfg
	}

	require.NoError(t, base().Validate())

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.Auth.JWTSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing token salt", func(t *testing.T) {
		cfg := base()
		cfg.Auth.TokenSalt = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("default ttl beyond max", func(t *testing.T) {
		cfg := base()
		cfg.Auth.TokenMaxTTL = Duration(time.Hour)
		cfg.Auth.TokenDefaultTTL = Duration(2 * time.Hour)
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad logging format", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Format = "xml"
		assert.Error(t, cfg.Validate())
	})
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestSecret_NeverPrintsValue(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "super-secret", s.Value())

	out, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "super-secret")

	assert.Empty(t, Secret("").String())
	assert.False(t, Secret("").IsSet())
}
