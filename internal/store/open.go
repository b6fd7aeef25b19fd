package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukerupert/shoplist/internal/database"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMongo  = "mongo"
	BackendS3     = "s3"
)

// Config selects and configures a repository backend.
type Config struct {
	Backend  string      `yaml:"backend"`
	DataDir  string      `yaml:"data_dir"`
	DBPath   string      `yaml:"db_path"`
	BoltPath string      `yaml:"bolt_path"`
	Mongo    MongoConfig `yaml:"mongo"`
	S3       S3Config    `yaml:"s3"`
}

func noopClose() error { return nil }

// Open builds the repository named by cfg.Backend. The returned function
// releases the backend's resources.
func Open(ctx context.Context, cfg Config) (Repository, func() error, error) {
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), noopClose, nil

	case BackendFile, "":
		dir := cfg.DataDir
		if dir == "" {
			dir = "data"
		}
		s, err := NewFileStore(filepath.Join(dir, "lists"))
		if err != nil {
			return nil, nil, err
		}
		return s, noopClose, nil

	case BackendSQLite:
		path := cfg.DBPath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "shoplist.db")
		}
		db, err := database.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLStore(db), db.Close, nil

	case BackendBolt:
		path := cfg.BoltPath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "shoplist.bolt")
		}
		b, err := OpenBolt(path)
		if err != nil {
			return nil, nil, err
		}
		return NewDocumentStore(b), b.Close, nil

	case BackendMongo:
		s, err := OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case BackendS3:
		b, err := NewObjectBackend(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return NewDocumentStore(b), noopClose, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
