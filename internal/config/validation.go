package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration validation.
// Check with errors.Is().
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidChunkSize indicates the chunk size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the overlap is negative or not
	// smaller than the chunk size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidMaxResults indicates the search result limit is not positive.
	ErrInvalidMaxResults = errors.New("invalid max results")

	// ErrInvalidMaxHistory indicates the session history depth is not positive.
	ErrInvalidMaxHistory = errors.New("invalid max history")

	// ErrInvalidMaxToolRounds indicates the tool round limit is not positive.
	ErrInvalidMaxToolRounds = errors.New("invalid max tool rounds")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidMaxTokens indicates the output token limit is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidDatabaseURL indicates DATABASE_URL could not be applied.
	ErrInvalidDatabaseURL = errors.New("invalid DATABASE_URL")

	// ErrInvalidRateLimit indicates the rate limit settings are inconsistent.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// MaxAllowedTokens is a sanity ceiling for the output token limit.
const MaxAllowedTokens = 65536

// Validate checks the configuration for internally consistent values.
// Limits must be strictly positive: a search limit of zero would silently
// disable retrieval instead of failing loudly.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: %d, must be positive", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: %d, must be in [0, chunk_size)", ErrInvalidChunkOverlap, c.ChunkOverlap)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: %d, must be positive", ErrInvalidMaxResults, c.MaxResults)
	}
	if c.MaxHistory <= 0 {
		return fmt.Errorf("%w: %d, must be positive", ErrInvalidMaxHistory, c.MaxHistory)
	}
	if c.MaxToolRounds <= 0 {
		return fmt.Errorf("%w: %d, must be positive", ErrInvalidMaxToolRounds, c.MaxToolRounds)
	}
	if c.ModelName == "" {
		return fmt.Errorf("%w: empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEmbedderModel)
	}
	if c.MaxTokens <= 0 || c.MaxTokens > MaxAllowedTokens {
		return fmt.Errorf("%w: %d, must be in (0, %d]", ErrInvalidMaxTokens, c.MaxTokens, MaxAllowedTokens)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d, must be in (0, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPostgresDBName)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate %v", ErrInvalidRateLimit, c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("%w: burst must be positive when rate limiting is enabled", ErrInvalidRateLimit)
	}

	return nil
}
