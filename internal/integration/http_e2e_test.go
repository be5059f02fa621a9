//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	httpserver "restate_api/internal/adapters/http_server"
	redisad "restate_api/internal/adapters/redis"
	"restate_api/internal/app"
	"restate_api/internal/domain"
	mysqlstore "restate_api/internal/storage/mysql"
)

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = filepath.Join("..", "..", "migrations")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

type noopIdentity struct{}

func (noopIdentity) Login(ctx context.Context, email, password string) (domain.Session, error) {
	return domain.Session{}, domain.ErrUnauthorized
}
func (noopIdentity) Logout(ctx context.Context, secret string) error { return nil }
func (noopIdentity) CurrentUser(ctx context.Context, secret string) (*domain.UserProfile, error) {
	return nil, nil
}

func TestHTTP_EndToEnd_FilteredListAndDetail(t *testing.T) {
	// isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=restate",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/restate?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)

	store := mysqlstore.New(db)
	ctx := context.Background()

	// seed: agent, reviews, and two properties
	if _, err := store.CreateDocument(ctx, "agents", "a1", map[string]any{
		"name": "Noor Haddad", "email": "noor@example.com",
	}); err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	for i, text := range []string{"spotless", "great view"} {
		id := fmt.Sprintf("r%d", i+1)
		if _, err := store.CreateDocument(ctx, "reviews", id, map[string]any{
			"name": "Guest", "review": text, "rating": 4.5,
		}); err != nil {
			t.Fatalf("seed review %s: %v", id, err)
		}
	}
	if _, err := store.CreateDocument(ctx, "properties", "p1", map[string]any{
		"name": "Sea Villa", "type": "Villa", "address": "1 Shore Rd",
		"price": 950.0, "rating": 4.8,
		"agent":   "a1",
		"gallery": []any{"https://img/1.jpg", "https://img/2.jpg"},
		"reviews": []any{"r1", "r2"},
	}); err != nil {
		t.Fatalf("seed p1: %v", err)
	}
	if _, err := store.CreateDocument(ctx, "properties", "p2", map[string]any{
		"name": "City Condo", "type": "Condos", "address": "2 Main St", "price": 450.0,
	}); err != nil {
		t.Fatalf("seed p2: %v", err)
	}

	// real cache in front of the service
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	cols := domain.Collections{Properties: "properties", Agents: "agents", Galleries: "galleries", Reviews: "reviews"}
	svc := app.NewPropertyService(store, cols, cache, 5*time.Minute)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Q: svc, Identity: noopIdentity{}})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// filtered list hits only the villa
	res, err := http.Get(ts.URL + "/v1/properties?filter=Villa&limit=6")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", res.StatusCode)
	}
	var list []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0]["name"] != "Sea Villa" {
		t.Fatalf("unexpected list: %+v", list)
	}

	// composite detail resolves agent, gallery and reviews
	res2, err := http.Get(ts.URL + "/v1/properties/p1")
	if err != nil {
		t.Fatalf("GET detail: %v", err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("detail status %d", res2.StatusCode)
	}
	var detail struct {
		Name    string            `json:"name"`
		Agent   map[string]string `json:"agent"`
		Gallery []string          `json:"gallery"`
		Reviews []map[string]any  `json:"reviews"`
	}
	if err := json.NewDecoder(res2.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Name != "Sea Villa" || detail.Agent["name"] != "Noor Haddad" {
		t.Fatalf("agent not resolved: %+v", detail)
	}
	if len(detail.Gallery) != 2 || len(detail.Reviews) != 2 {
		t.Fatalf("relations not resolved: %+v", detail)
	}
	if detail.Reviews[0]["text"] != "spotless" {
		t.Fatalf("review order not preserved: %+v", detail.Reviews)
	}
}
