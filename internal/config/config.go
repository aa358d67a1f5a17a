// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables (COURSECHAT_* plus DATABASE_URL)
//  2. .env file in the working directory
//  3. Config file (./config.yaml or ~/.coursechat/config.yaml)
//  4. Default values
//
// Sensitive values (the database password) are masked in MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default values for document processing and retrieval.
const (
	// DefaultChunkSize is the target chunk size in characters.
	DefaultChunkSize = 800

	// DefaultChunkOverlap is the number of trailing characters carried
	// into the next chunk.
	DefaultChunkOverlap = 100

	// DefaultMaxResults is the number of search results returned per query.
	DefaultMaxResults = 5

	// DefaultMaxHistory is the number of (query, answer) exchanges kept
	// per session.
	DefaultMaxHistory = 2

	// DefaultMaxToolRounds is the number of sequential tool-calling rounds
	// the generator performs before forcing a final answer.
	DefaultMaxToolRounds = 2

	// DefaultModelName is the Genkit model used for generation.
	DefaultModelName = "googleai/gemini-2.5-flash"

	// DefaultEmbedderModel is the Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions, which is
	// what the pgvector schema uses; see store.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultMaxTokens caps generation output length.
	DefaultMaxTokens = 800
)

// Config stores application configuration.
type Config struct {
	// Generation
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	MaxToolRounds int     `mapstructure:"max_tool_rounds" json:"max_tool_rounds"`

	// Document processing
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	DocsDir      string `mapstructure:"docs_dir" json:"docs_dir"`

	// Retrieval and sessions
	MaxResults int `mapstructure:"max_results" json:"max_results"`
	MaxHistory int `mapstructure:"max_history" json:"max_history"`

	// Storage
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server
	ServerAddr  string   `mapstructure:"server_addr" json:"server_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit" json:"rate_limit"` // requests per second per IP (0 disables)
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For
}

// Load loads configuration.
// A .env file in the working directory is applied first so that plain
// environment-style deployments (the common case for this app) work without
// a config file.
func Load() (*Config, error) {
	// Missing .env is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("no .env file loaded", "error", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(home, ".coursechat"))

	setDefaults(v)

	v.SetEnvPrefix("COURSECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides the individual Postgres fields when set.
	if err := cfg.applyDatabaseURL(os.Getenv("DATABASE_URL")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("max_tool_rounds", DefaultMaxToolRounds)

	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("docs_dir", "./docs")

	v.SetDefault("max_results", DefaultMaxResults)
	v.SetDefault("max_history", DefaultMaxHistory)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "coursechat")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db_name", "coursechat")
	v.SetDefault("postgres_ssl_mode", "prefer")

	v.SetDefault("server_addr", "127.0.0.1:8000")
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("rate_burst", 20)
	v.SetDefault("trust_proxy", false)
}

// applyDatabaseURL parses a postgres:// URL into the individual fields.
// An empty URL is a no-op.
func (c *Config) applyDatabaseURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("%w: unsupported scheme %q in DATABASE_URL", ErrInvalidDatabaseURL, u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		c.PostgresHost = host
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: invalid port %q", ErrInvalidDatabaseURL, port)
		}
		c.PostgresPort = p
	}
	if u.User != nil {
		c.PostgresUser = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.PostgresPassword = pw
		}
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		c.PostgresDBName = db
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.PostgresSSLMode = mode
	}
	return nil
}

// PostgresURL returns the connection string in URL form,
// as used by golang-migrate.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// PostgresConnectionString returns the keyword/value connection string
// used by pgxpool.
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword,
		c.PostgresDBName, c.PostgresSSLMode)
}

// MarshalJSON masks sensitive fields so configs can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(c)
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	return json.Marshal(masked)
}
