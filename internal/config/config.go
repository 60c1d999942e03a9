// Package config provides configuration loading for memoryd.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file
// (~/.config/memoryd/config.yaml), then environment variables. Config is
// read-only after boot; the auth engine receives its values by copy.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Vector    VectorConfig    `koanf:"vector"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// AuthConfig configures the credential engine.
type AuthConfig struct {
	// JWTSecret signs and verifies access/refresh tokens (HS256).
	JWTSecret Secret `koanf:"jwt_secret"`

	// Issuer is the iss claim for issued tokens.
	Issuer string `koanf:"issuer"`

	// AccessTTL / RefreshTTL bound JWT lifetimes.
	AccessTTL  Duration `koanf:"access_ttl"`
	RefreshTTL Duration `koanf:"refresh_ttl"`

	// AdminKey is the privileged environment-configured key. Optional.
	AdminKey Secret `koanf:"admin_key"`

	// StaticKeys are additional opaque keys that resolve to the same
	// privileged identity as AdminKey.
	StaticKeys []string `koanf:"static_keys"`

	// TokenSalt is the server-side salt for CAT/PAT secret hashing.
	TokenSalt Secret `koanf:"token_salt"`

	// TokenDefaultTTL applies when a token is issued without an expiry;
	// zero means issued tokens default to non-expiring.
	TokenDefaultTTL Duration `koanf:"token_default_ttl"`

	// TokenMaxTTL caps caller-requested token expiries; requests beyond
	// it are rejected. Zero means unbounded.
	TokenMaxTTL Duration `koanf:"token_max_ttl"`

	// LocalToken is the credential used by the stdio MCP transport, which
	// has no Authorization header to read. It flows through the same
	// classifier/verifier pipeline as any bearer token.
	LocalToken Secret `koanf:"local_token"`
}

// VectorConfig configures the embedded vector store.
type VectorConfig struct {
	// Path is the persistence directory for chromem.
	Path string `koanf:"path"`

	// VectorSize must match the embedder's output dimension.
	VectorSize int `koanf:"vector_size"`

	// Compress enables gzip compression of stored data.
	Compress bool `koanf:"compress"`
}

// EmbeddingConfig configures the embedding backend (TEI or any
// OpenAI-compatible API).
type EmbeddingConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// Default returns the hardcoded defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8750,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Auth: AuthConfig{
			Issuer:      "memoryd",
			AccessTTL:   Duration(15 * time.Minute),
			RefreshTTL:  Duration(14 * 24 * time.Hour),
			TokenMaxTTL: Duration(365 * 24 * time.Hour),
		},
		Vector: VectorConfig{
			Path:       "~/.local/share/memoryd/vectorstore",
			VectorSize: 384,
		},
		Embedding: EmbeddingConfig{
			BaseURL: "http://localhost:8080/v1",
			Model:   "BAAI/bge-small-en-v1.5",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks invariants the rest of the process relies on.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if !c.Auth.JWTSecret.IsSet() {
		return errors.New("auth.jwt_secret is required")
	}
	if !c.Auth.TokenSalt.IsSet() {
		return errors.New("auth.token_salt is required")
	}
	if c.Auth.TokenMaxTTL.Duration() > 0 &&
		c.Auth.TokenDefaultTTL.Duration() > c.Auth.TokenMaxTTL.Duration() {
		return errors.New("auth.token_default_ttl exceeds auth.token_max_ttl")
	}
	if c.Vector.VectorSize <= 0 {
		return fmt.Errorf("invalid vector size: %d", c.Vector.VectorSize)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}
	return nil
}
