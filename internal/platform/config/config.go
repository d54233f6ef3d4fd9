package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Built once in main and passed
// by reference; nothing here mutates after FromEnv returns.
type Server struct {
	Addr          string
	JWTSigningKey string

	Mongo   Mongo
	Redis   Redis
	Archive Archive
}

// Mongo configures the primary document store.
type Mongo struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Redis configures the optional record-summary cache. Empty URL disables it.
type Redis struct {
	URL string
	TTL time.Duration
}

// Archive configures the optional Postgres history archive. Empty DSN disables it.
type Archive struct {
	DSN        string
	BufferSize int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("GEOATLAS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DATABASE")
	if mongoDB == "" {
		mongoDB = "geoatlas"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		Mongo: Mongo{
			URI:      mongoURI,
			Database: mongoDB,
			Timeout:  10 * time.Second,
		},
		Redis: Redis{
			URL: os.Getenv("REDIS_URL"),
			TTL: 5 * time.Minute,
		},
		Archive: Archive{
			DSN:        os.Getenv("HISTORY_ARCHIVE_DSN"),
			BufferSize: 256,
		},
	}
}
