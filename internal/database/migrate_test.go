package database

import (
	"io/fs"
	"strings"
	"testing"
)

// 埋め込みマイグレーションにup/downのペアが揃っていることを検証
func TestMigrationsFS_UpDownPairs(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("no up migrations embedded")
	}
	for base := range ups {
		if !downs[base] {
			t.Errorf("missing down migration for %s", base)
		}
	}
}

// 初期マイグレーションに全テーブルが含まれることを検証
func TestInitialMigration_CreatesAllTables(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read initial migration: %v", err)
	}
	content := string(data)

	tables := []string{
		"users",
		"user_settings",
		"assets",
		"liabilities",
		"income_certificates",
		"rank_certificates",
	}
	for _, table := range tables {
		if !strings.Contains(content, "CREATE TABLE "+table) {
			t.Errorf("initial migration should create table %s", table)
		}
	}

	// 憑証重複排除用の部分ユニークインデックス
	if !strings.Contains(content, "WHERE uuid IS NOT NULL") {
		t.Error("initial migration should define partial unique indexes on (user_id, uuid)")
	}
}
