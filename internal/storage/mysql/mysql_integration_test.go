//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"restate_api/internal/domain"
	mysqlstore "restate_api/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

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

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
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
	return db
}

func TestStore_MySQL_CreateGetList(t *testing.T) {
	db := startMySQL(t)
	store := mysqlstore.New(db)
	ctx := context.Background()

	seed := []struct {
		id     string
		fields map[string]any
	}{
		{"p1", map[string]any{"name": "Sea Villa", "type": "Villa", "address": "1 Shore Rd", "price": 950.0}},
		{"p2", map[string]any{"name": "City Condo", "type": "Condos", "address": "2 Main St", "price": 450.0}},
		{"p3", map[string]any{"name": "Lake House", "type": "House", "address": "3 Lake Dr", "price": 700.0}},
	}
	for _, s := range seed {
		if _, err := store.CreateDocument(ctx, "properties", s.id, s.fields); err != nil {
			t.Fatalf("CreateDocument %s: %v", s.id, err)
		}
	}

	// point read
	doc, err := store.GetDocument(ctx, "properties", "p2")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Fields["name"] != "City Condo" || doc.CreatedAt.IsZero() {
		t.Fatalf("unexpected document: %+v", doc)
	}

	// missing id
	if _, err := store.GetDocument(ctx, "properties", "nope"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// equality filter
	docs, err := store.ListDocuments(ctx, "properties", []domain.Predicate{
		domain.OrderDesc("$createdAt"),
		domain.Equal("type", "Villa"),
	})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "p1" {
		t.Fatalf("equality filter wrong: %+v", docs)
	}

	// OR search across name/address/type
	docs, err = store.ListDocuments(ctx, "properties", []domain.Predicate{
		domain.OrderDesc("$createdAt"),
		domain.SearchAny([]string{"name", "address", "type"}, "Lake"),
	})
	if err != nil {
		t.Fatalf("ListDocuments search: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "p3" {
		t.Fatalf("search wrong: %+v", docs)
	}

	// limit caps the result
	docs, err = store.ListDocuments(ctx, "properties", []domain.Predicate{
		domain.OrderDesc("$createdAt"),
		domain.LimitTo(2),
	})
	if err != nil {
		t.Fatalf("ListDocuments limit: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("limit not applied: %d docs", len(docs))
	}
}
