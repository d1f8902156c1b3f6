package kb

import (
	"os"
	"strconv"
)

// Config holds the configuration for a local knowledge-base backend.
type Config struct {
	URL        string
	AuthToken  string
	QueryLimit int
	// Connection pool tuning (0 leaves the driver default).
	MaxOpenConns   int
	MaxIdleConns   int
	ConnMaxIdleSec int
	ConnMaxLifeSec int
}

const defaultQueryLimit = 1000

// NewConfig creates a new Config from environment variables.
func NewConfig() *Config {
	url := os.Getenv("LINKER_LIBSQL_URL")
	if url == "" {
		url = "file:./linker.db"
	}

	limit := defaultQueryLimit
	if v := os.Getenv("LINKER_QUERY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	return &Config{
		URL:        url,
		AuthToken:  os.Getenv("LINKER_AUTH_TOKEN"),
		QueryLimit: limit,
	}
}
