package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"

	"github.com/dukerupert/shoplist/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// chdir moves into a fresh directory so no stray shoplist.yaml or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Store.Backend != store.BackendFile || cfg.Currency != "R$" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("addr = %q", cfg.Addr())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
port: "9000"
store:
  backend: bolt
  data_dir: /var/lib/shoplist
  s3:
    bucket: lists
currency: "€"
`)
	t.Setenv("SHOPLIST_PORT", "9100")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("port = %q, env should win over file", cfg.Port)
	}
	if cfg.Store.Backend != store.BackendBolt || cfg.Store.DataDir != "/var/lib/shoplist" || cfg.Store.S3.Bucket != "lists" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("mongo uri = %q", cfg.Store.Mongo.URI)
	}
	if cfg.Currency != "€" || cfg.Locale != "pt-BR" {
		t.Errorf("currency/locale = %q/%q", cfg.Currency, cfg.Locale)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	writeFile(t, filepath.Join(dir, ".env"), "SHOPLIST_STORE=sqlite\nSHOPLIST_CREATE_RATE_LIMIT=5\n")
	t.Cleanup(func() {
		os.Unsetenv("SHOPLIST_STORE")
		os.Unsetenv("SHOPLIST_CREATE_RATE_LIMIT")
	})

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != store.BackendSQLite || cfg.CreateRateLimit != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := chdir(t)
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "port: [")
	if _, err := Load(bad); err == nil {
		t.Error("malformed yaml should fail")
	}

	t.Setenv("SHOPLIST_CREATE_RATE_LIMIT", "lots")
	if _, err := Load(""); err == nil {
		t.Error("non-numeric rate limit should fail")
	}
}

func TestRenderer(t *testing.T) {
	r, err := Config{Locale: "en-US", Currency: "$"}.Renderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	if r.Locale != language.AmericanEnglish || r.Currency != "$" {
		t.Errorf("renderer = %+v", r)
	}
	if _, err := (Config{Locale: "not a locale!"}).Renderer(); err == nil {
		t.Error("expected error for bad locale")
	}
}
