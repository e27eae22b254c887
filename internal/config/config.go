// Package config loads the run configuration. A built-in YAML default is
// embedded in the binary; a -config file overrides it, and individual flags
// override both.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var embeddedConfig []byte

// StoreBackend names a ledger store implementation.
type StoreBackend string

const (
	StoreMemory    StoreBackend = "memory"
	StoreSQLite    StoreBackend = "sqlite"
	StoreFirestore StoreBackend = "firestore"
)

// Config is the full run configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Output OutputConfig `yaml:"output"`
}

// StoreConfig selects and parameterizes the ledger store.
type StoreConfig struct {
	Backend   StoreBackend    `yaml:"backend"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Firestore FirestoreConfig `yaml:"firestore"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// FirestoreConfig configures the firestore backend.
type FirestoreConfig struct {
	ProjectID        string `yaml:"project_id"`
	CredentialsFile  string `yaml:"credentials_file"`
	CollectionPrefix string `yaml:"collection_prefix"`
}

// OutputConfig configures the snapshot writer.
type OutputConfig struct {
	Format           string `yaml:"format"`
	Path             string `yaml:"path"`
	DumpTransactions bool   `yaml:"dump_transactions"`
}

// LoadEmbedded parses the built-in default configuration.
func LoadEmbedded() (*Config, error) {
	return parse(embeddedConfig)
}

// LoadFromFile parses a configuration file. Fields absent from the file keep
// their embedded defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := LoadEmbedded()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite, StoreFirestore:
	default:
		return fmt.Errorf("unknown store backend %q (want memory, sqlite, or firestore)", c.Store.Backend)
	}
	if c.Store.Backend == StoreSQLite && c.Store.SQLite.Path == "" {
		return fmt.Errorf("sqlite backend requires store.sqlite.path")
	}
	if c.Store.Backend == StoreFirestore && c.Store.Firestore.ProjectID == "" {
		return fmt.Errorf("firestore backend requires store.firestore.project_id")
	}
	switch c.Output.Format {
	case "csv", "json":
	default:
		return fmt.Errorf("unknown output format %q (want csv or json)", c.Output.Format)
	}
	return nil
}
