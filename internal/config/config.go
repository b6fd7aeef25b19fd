package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
)

// DefaultFile is read when Load is given no explicit path.
const DefaultFile = "shoplist.yaml"

// Config is the settings shared by the server and the CLI.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Store store.Config `yaml:"store"`

	Locale   string `yaml:"locale"`
	Currency string `yaml:"currency"`

	CORSOrigin      string `yaml:"cors_origin"`
	CreateRateLimit int    `yaml:"create_rate_limit"`

	// ServerURL is the API the CLI talks to unless it runs offline.
	ServerURL string `yaml:"server_url"`
	// StatePath is where the CLI keeps the ID of the list it holds.
	StatePath string `yaml:"state_path"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:     "8080",
		LogLevel: "info",
		Store: store.Config{
			Backend: store.BackendFile,
			DataDir: "data",
		},
		Locale:          "pt-BR",
		Currency:        "R$",
		CORSOrigin:      "*",
		CreateRateLimit: 30,
		ServerURL:       "http://localhost:8080",
		StatePath:       defaultStatePath(),
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (DefaultFile if path is empty and it exists), then a .env file in the
// working directory, then SHOPLIST_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "SHOPLIST_PORT")
	setString(&c.LogLevel, "SHOPLIST_LOG_LEVEL")
	setString(&c.LogFile, "SHOPLIST_LOG_FILE")

	setString(&c.Store.Backend, "SHOPLIST_STORE")
	setString(&c.Store.DataDir, "SHOPLIST_DATA_DIR")
	setString(&c.Store.DBPath, "SHOPLIST_DB_PATH")
	setString(&c.Store.BoltPath, "SHOPLIST_BOLT_PATH")
	setString(&c.Store.Mongo.URI, "MONGODB_URI")
	setString(&c.Store.Mongo.URI, "SHOPLIST_MONGO_URI")
	setString(&c.Store.Mongo.Database, "SHOPLIST_MONGO_DATABASE")
	setString(&c.Store.S3.Endpoint, "SHOPLIST_S3_ENDPOINT")
	setString(&c.Store.S3.Bucket, "SHOPLIST_S3_BUCKET")
	setString(&c.Store.S3.Region, "SHOPLIST_S3_REGION")
	setString(&c.Store.S3.AccessKey, "SHOPLIST_S3_ACCESS_KEY")
	setString(&c.Store.S3.SecretKey, "SHOPLIST_S3_SECRET_KEY")
	setString(&c.Store.S3.Prefix, "SHOPLIST_S3_PREFIX")

	setString(&c.Locale, "SHOPLIST_LOCALE")
	setString(&c.Currency, "SHOPLIST_CURRENCY")
	setString(&c.CORSOrigin, "SHOPLIST_CORS_ORIGIN")
	setString(&c.ServerURL, "SHOPLIST_SERVER")
	setString(&c.StatePath, "SHOPLIST_STATE")

	if v := os.Getenv("SHOPLIST_CREATE_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOPLIST_CREATE_RATE_LIMIT: %w", err)
		}
		c.CreateRateLimit = n
	}
	return nil
}

// Renderer returns the view renderer for the configured locale and currency.
func (c Config) Renderer() (shoplist.Renderer, error) {
	r := shoplist.DefaultRenderer()
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return shoplist.Renderer{}, fmt.Errorf("locale %q: %w", c.Locale, err)
		}
		r.Locale = tag
	}
	if c.Currency != "" {
		r.Currency = c.Currency
	}
	return r, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shoplist.json"
	}
	return filepath.Join(dir, "shoplist", "state.json")
}
