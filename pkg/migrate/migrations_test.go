package migrate_test

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.Validate(migrate.Embedded()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEmbeddedMatchesDisk(t *testing.T) {
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	embedded, err := fs.Glob(migrate.Embedded(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(onDisk) != len(embedded) || len(embedded) == 0 {
		t.Fatalf("expected embedded set to mirror disk, got %d vs %d", len(embedded), len(onDisk))
	}
}

func TestRunnerListsVersionsInOrder(t *testing.T) {
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	runner, err := migrate.NewRunner(sqlDB, migrate.Embedded())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	versions := runner.Versions()
	if len(versions) != 3 {
		t.Fatalf("expected 3 migrations, got %v", versions)
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Fatalf("versions out of order: %v", versions)
		}
	}
	if err := runner.MigrateTo(context.Background(), "latest"); err == nil {
		t.Fatalf("expected invalid version to fail")
	}
}

func TestNewRunnerRequiresDB(t *testing.T) {
	if _, err := migrate.NewRunner(nil, migrate.Embedded()); err == nil {
		t.Fatalf("expected error without db")
	}
}

func TestCheckoutTablesMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"*_create_catalog.sql": {
			"CREATE TABLE IF NOT EXISTS products",
			"CREATE TABLE IF NOT EXISTS shipping_methods",
			"price numeric(10,2) NOT NULL",
			"CHECK (stock IS NULL OR stock >= 0)",
			"DROP TABLE IF EXISTS products",
		},
		"*_create_addresses.sql": {
			"CREATE TABLE IF NOT EXISTS addresses",
			"CHECK (type IN ('shipping', 'billing'))",
			"DROP TABLE IF EXISTS addresses",
		},
		"*_create_carts.sql": {
			"CREATE TABLE IF NOT EXISTS carts",
			"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
			"CHECK (quantity >= 1)",
			"DROP TABLE IF EXISTS cart_items",
		},
	}

	for pattern, checks := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %d", pattern, len(matches))
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Shipping Zones!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_shipping_zones.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.Validate(os.DirFS(dir)); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}
