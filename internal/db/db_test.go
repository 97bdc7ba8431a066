package db

import (
	"strings"
	"testing"

	"github.com/zulandar/worktrack/internal/config"
	"github.com/zulandar/worktrack/internal/models"
)

func TestDSN(t *testing.T) {
	got := DSN("127.0.0.1", 3306, "worktrack_depot7")
	want := "root@tcp(127.0.0.1:3306)/worktrack_depot7?parseTime=true"
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestConnectSQLite_InMemory(t *testing.T) {
	db, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("ConnectSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpen_SQLiteDriver(t *testing.T) {
	cfg, err := config.Parse([]byte("site: depot7\ndatabase:\n  driver: sqlite\n  path: \":memory:\"\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if db == nil {
		t.Fatal("Open returned nil DB")
	}
}

func TestAutoMigrate(t *testing.T) {
	db, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("ConnectSQLite: %v", err)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, tbl := range []string{
		"work_plan_jobs",
		"job_assignments",
		"job_trackings",
		"pause_requests",
		"daily_reviews",
		"job_ratings",
		"carry_overs",
		"site_configs",
	} {
		if !db.Migrator().HasTable(tbl) {
			t.Errorf("expected table %q after migrate", tbl)
		}
	}
}

func TestAutoMigrate_Idempotent(t *testing.T) {
	db, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("ConnectSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate (1st): %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate (2nd): %v", err)
	}
}

func TestSeedConfig_Upsert(t *testing.T) {
	db, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("ConnectSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	cfg := &config.Config{Site: "depot7", Timezone: "UTC"}
	if err := SeedConfig(db, cfg); err != nil {
		t.Fatalf("SeedConfig (1st): %v", err)
	}

	cfg.Timezone = "Europe/Warsaw"
	if err := SeedConfig(db, cfg); err != nil {
		t.Fatalf("SeedConfig (2nd): %v", err)
	}

	var count int64
	db.Model(&models.SiteConfig{}).Count(&count)
	if count != 1 {
		t.Errorf("site config count = %d after double seed, want 1", count)
	}

	var sc models.SiteConfig
	if err := db.Where("site = ?", "depot7").First(&sc).Error; err != nil {
		t.Fatalf("query site config: %v", err)
	}
	if sc.Timezone != "Europe/Warsaw" {
		t.Errorf("Timezone = %q after upsert, want Europe/Warsaw", sc.Timezone)
	}
}

func TestSeedConfig_Error(t *testing.T) {
	db, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("ConnectSQLite: %v", err)
	}
	// No migration, so the table is missing and create must fail.
	err = SeedConfig(db, &config.Config{Site: "depot7"})
	if err == nil {
		t.Fatal("expected error from SeedConfig without tables")
	}
	if !strings.Contains(err.Error(), "db: seed config") {
		t.Errorf("error = %q, want to contain 'db: seed config'", err)
	}
}
