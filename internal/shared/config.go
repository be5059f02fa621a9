package shared

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"restate_api/internal/domain"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// document-store backend: "appwrite" (hosted) or "mysql" (self-hosted/dev)
	Backend string

	AppwriteEndpoint string
	AppwriteProject  string
	AppwriteKey      string
	DatabaseID       string
	Collections      domain.Collections

	MySQLDSN string

	RedisAddr string
	RedisDB   int
	RedisPass string

	Workers   int
	SeedCount int
	CacheTTL  time.Duration
}

func Load() Config {
	// .env is a dev convenience; absence is normal
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		Backend: env("DOCSTORE_BACKEND", "appwrite"),

		AppwriteEndpoint: env("APPWRITE_ENDPOINT", "https://cloud.appwrite.io/v1"),
		AppwriteProject:  env("APPWRITE_PROJECT_ID", ""),
		AppwriteKey:      env("APPWRITE_API_KEY", ""),
		DatabaseID:       env("APPWRITE_DATABASE_ID", ""),
		Collections: domain.Collections{
			Properties: env("COLLECTION_PROPERTIES", ""),
			Agents:     env("COLLECTION_AGENTS", ""),
			Galleries:  env("COLLECTION_GALLERIES", ""),
			Reviews:    env("COLLECTION_REVIEWS", ""),
		},

		MySQLDSN: env("MYSQL_DSN", "root:root@tcp(localhost:3306)/restate?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		Workers:   atoi("SEED_WORKERS", 8),
		SeedCount: atoi("SEED_COUNT", 20),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

// Validate rejects broken wiring before any request is served. Missing
// collection identifiers are fatal here, not per call.
func (c Config) Validate() error {
	switch c.Backend {
	case "appwrite":
		if c.AppwriteProject == "" {
			return fmt.Errorf("APPWRITE_PROJECT_ID is required")
		}
		if c.DatabaseID == "" {
			return fmt.Errorf("APPWRITE_DATABASE_ID is required")
		}
	case "mysql":
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required")
		}
	default:
		return fmt.Errorf("unknown DOCSTORE_BACKEND %q", c.Backend)
	}

	missing := func(name, v string) error {
		if v == "" {
			return fmt.Errorf("collection id %s is required", name)
		}
		return nil
	}
	if err := missing("COLLECTION_PROPERTIES", c.Collections.Properties); err != nil {
		return err
	}
	if err := missing("COLLECTION_AGENTS", c.Collections.Agents); err != nil {
		return err
	}
	if err := missing("COLLECTION_GALLERIES", c.Collections.Galleries); err != nil {
		return err
	}
	return missing("COLLECTION_REVIEWS", c.Collections.Reviews)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
