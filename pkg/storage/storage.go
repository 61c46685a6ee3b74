// Package storage holds backend configuration and the error sentinels
// shared by all store implementations.
package storage

import (
	"errors"
	"time"
)

// Sentinel errors returned by store implementations. Callers map these
// to HTTP status codes at the boundary.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a unique constraint violation
	ErrConflict = errors.New("record already exists")
)

// Config for the storage backend
type Config struct {
	// PostgreSQL config
	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	// Redis config
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Cache config
	CacheEnabled bool
	CacheTTL     time.Duration
	L1CacheSize  int
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  10 * time.Second,
		RedisDB:          0,
		RedisPoolSize:    10,
		CacheEnabled:     true,
		CacheTTL:         15 * time.Minute,
		L1CacheSize:      1024,
	}
}
