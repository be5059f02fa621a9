package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"restate_api/internal/adapters/appwrite"
	"restate_api/internal/adapters/observability"
	"restate_api/internal/domain"
	"restate_api/internal/shared"
	mysqlstore "restate_api/internal/storage/mysql"
)

var agentNames = []string{
	"Noor Haddad", "Mina Park", "Jonas Weber", "Amira Saleh", "Tom Reyes",
}

var propertyTypes = []string{
	"House", "Condos", "Duplexes", "Studios", "Villa", "Apartments", "Townhomes",
}

var streets = []string{
	"Shore Rd", "Main St", "Lake Dr", "Hilltop Ave", "Cedar Ln", "Palm Blvd",
}

var facilityPool = []string{
	"Laundry", "Parking", "Gym", "Wifi", "Pet-Center", "Swimming pool",
}

var reviewTexts = []string{
	"spotless and quiet",
	"great view from the balcony",
	"host replied within minutes",
	"a short walk to everything",
	"would book again",
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("backend", cfg.Backend).
		Int("workers", cfg.Workers).
		Int("count", cfg.SeedCount).
		Msg("seeder starting")

	store := buildStore(cfg)

	// agents first; properties reference them by id
	agentIDs := make([]string, 0, len(agentNames))
	for _, name := range agentNames {
		id := uuid.NewString()
		_, err := store.CreateDocument(ctx, cfg.Collections.Agents, id, map[string]any{
			"name":   name,
			"email":  fmt.Sprintf("%s@restate.example", id[:8]),
			"avatar": fmt.Sprintf("https://cloud.appwrite.io/v1/avatars/initials?name=%s", shared.Initials(name)),
		})
		if err != nil {
			log.Fatal().Str("agent", name).Err(err).Msg("seed agent failed")
		}
		agentIDs = append(agentIDs, id)
	}
	log.Info().Int("agents", len(agentIDs)).Msg("agents seeded")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for i := 0; i < cfg.SeedCount; i++ {
		i := i

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(int64(1))

			id, err := seedProperty(ctx, store, cfg.Collections, i, agentIDs)
			if err != nil {
				log.Warn().Int("n", i).Err(err).Msg("seed failed")
				return
			}
			log.Info().Int("n", i).Str("id", id).Msg("seed ok")
		}()
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}

// seedProperty writes one property plus its review documents. Reviews are
// referenced from the property by id, gallery images are embedded.
func seedProperty(ctx context.Context, store domain.DocumentStore, cols domain.Collections, n int, agentIDs []string) (string, error) {
	kind := propertyTypes[rand.Intn(len(propertyTypes))]
	name := fmt.Sprintf("%s %s %d", adjective(n), kind, n+1)

	reviewIDs := make([]any, 0, 3)
	total := 0.0
	for r := 0; r < 1+rand.Intn(3); r++ {
		id := uuid.NewString()
		rating := 3.0 + rand.Float64()*2
		author := agentNames[rand.Intn(len(agentNames))]
		_, err := store.CreateDocument(ctx, cols.Reviews, id, map[string]any{
			"name":   author,
			"avatar": fmt.Sprintf("https://cloud.appwrite.io/v1/avatars/initials?name=%s", shared.Initials(author)),
			"review": reviewTexts[rand.Intn(len(reviewTexts))],
			"rating": rating,
		})
		if err != nil {
			return "", fmt.Errorf("review: %w", err)
		}
		reviewIDs = append(reviewIDs, id)
		total += rating
	}

	gallery := make([]any, 0, 4)
	for g := 0; g < 2+rand.Intn(3); g++ {
		gallery = append(gallery, fmt.Sprintf("https://picsum.photos/seed/%d-%d/800/600", n, g))
	}

	id := uuid.NewString()
	_, err := store.CreateDocument(ctx, cols.Properties, id, map[string]any{
		"name":        name,
		"type":        kind,
		"address":     fmt.Sprintf("%d %s", 1+rand.Intn(99), streets[rand.Intn(len(streets))]),
		"description": fmt.Sprintf("A %s with %d recent reviews.", kind, len(reviewIDs)),
		"price":       float64(200 + rand.Intn(1800)),
		"rating":      total / float64(len(reviewIDs)),
		"area":        float64(40 + rand.Intn(360)),
		"bedrooms":    1 + rand.Intn(5),
		"bathrooms":   1 + rand.Intn(3),
		"facilities":  pick(facilityPool, 2+rand.Intn(3)),
		"image":       fmt.Sprintf("https://picsum.photos/seed/%d/800/600", n),
		"agent":       agentIDs[rand.Intn(len(agentIDs))],
		"gallery":     gallery,
		"reviews":     reviewIDs,
	})
	if err != nil {
		return "", fmt.Errorf("property: %w", err)
	}
	return id, nil
}

func buildStore(cfg shared.Config) domain.DocumentStore {
	switch cfg.Backend {
	case "appwrite":
		client, err := appwrite.New(cfg.AppwriteEndpoint, cfg.AppwriteProject, cfg.AppwriteKey, 10)
		if err != nil {
			log.Fatal().Err(err).Msg("appwrite client init failed")
		}
		return client.Database(cfg.DatabaseID)
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		return mysqlstore.New(db)
	}
	log.Fatal().Str("backend", cfg.Backend).Msg("unknown backend")
	return nil
}

func adjective(n int) string {
	words := []string{"Sunny", "Quiet", "Modern", "Cozy", "Bright", "Grand"}
	return words[n%len(words)]
}

func pick(pool []string, n int) []any {
	idx := rand.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]any, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}
