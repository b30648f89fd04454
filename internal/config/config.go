// Package config loads campaign_agent settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"campaign_agent/internal/chunker"
	"campaign_agent/internal/memory"
	"campaign_agent/internal/oracle"
	"campaign_agent/internal/policy"
	"campaign_agent/internal/summary"
	"campaign_agent/internal/tokens"
)

const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

type Config struct {
	Model         ModelConfig         `yaml:"model"`
	Memory        MemoryConfig        `yaml:"memory"`
	Tokenizer     TokenizerConfig     `yaml:"tokenizer"`
	Storage       StorageConfig       `yaml:"storage"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Debug         bool                `yaml:"debug"`
}

type ModelConfig struct {
	APIKey  string        `yaml:"api_key"`
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	// Retries is the number of extra attempts per oracle request. Unset
	// uses oracle.DefaultRetries.
	Retries       *int          `yaml:"retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`

	// Verbose logs full prompts and replies.
	Verbose bool `yaml:"verbose"`
}

func (m ModelConfig) GetRetries() int {
	if m.Retries == nil {
		return oracle.DefaultRetries
	}
	return *m.Retries
}

type MemoryConfig struct {
	ChunkTokens   int           `yaml:"chunk_tokens"`
	MinEvents     int           `yaml:"min_events"`
	TailSize      int           `yaml:"tail_size"`
	MaxDepth      int           `yaml:"max_depth"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
}

type TokenizerConfig struct {
	// Name is "chars" or a tiktoken encoding.
	Name string `yaml:"name"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// SaveDir holds one YAML save file per campaign for the file driver.
	SaveDir string `yaml:"save_dir"`
}

type ElasticsearchConfig struct {
	Addresses   []string `yaml:"addresses"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	EventsIndex string   `yaml:"events_index"`
}

// Home is the directory holding the default config and data files.
func Home() string {
	if v := os.Getenv("CAMPAIGN_HOME"); v != "" {
		return v
	}
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".campaign_agent")
	}
	return ".campaign_agent"
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Home(), "config.yaml")
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Model.Timeout <= 0 {
		c.Model.Timeout = 2 * time.Minute
	}
	if c.Model.RetryInterval <= 0 {
		c.Model.RetryInterval = 500 * time.Millisecond
	}
	if c.Memory.ChunkTokens <= 0 {
		c.Memory.ChunkTokens = chunker.DefaultMaxTokens
	}
	if c.Memory.MinEvents <= 0 {
		c.Memory.MinEvents = policy.DefaultMinEvents
	}
	if c.Memory.TailSize <= 0 {
		c.Memory.TailSize = memory.DefaultTailSize
	}
	if c.Memory.MaxDepth <= 0 {
		c.Memory.MaxDepth = summary.DefaultMaxDepth
	}
	if c.Tokenizer.Name == "" {
		c.Tokenizer.Name = tokens.DefaultEncoding
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(Home(), "campaigns.db")
	}
	if c.Storage.SaveDir == "" {
		c.Storage.SaveDir = filepath.Join(Home(), "saves")
	}
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("ARK_API_KEY", &c.Model.APIKey)
	set("ARK_MODEL_NAME", &c.Model.Name)
	set("ARK_BASE_URL", &c.Model.BaseURL)
	set("CAMPAIGN_TOKENIZER", &c.Tokenizer.Name)
	set("CAMPAIGN_STORAGE", &c.Storage.Driver)
	set("CAMPAIGN_DB", &c.Storage.Path)
	set("CAMPAIGN_SAVE_DIR", &c.Storage.SaveDir)
	set("CAMPAIGN_ES_USERNAME", &c.Elasticsearch.Username)
	set("CAMPAIGN_ES_PASSWORD", &c.Elasticsearch.Password)

	if v := getenv("CAMPAIGN_ES_ADDRESSES"); v != "" {
		c.Elasticsearch.Addresses = nil
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				c.Elasticsearch.Addresses = append(c.Elasticsearch.Addresses, a)
			}
		}
	}
	if v := getenv("CAMPAIGN_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CAMPAIGN_DEBUG: %w", err)
		}
		c.Debug = b
	}
	if v := getenv("CAMPAIGN_ORACLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CAMPAIGN_ORACLE_TIMEOUT: %w", err)
		}
		c.Memory.OracleTimeout = d
	}
	return nil
}

// Validate checks settings that would only fail later at use.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageSQLite, StorageFile:
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", StorageSQLite, StorageFile, c.Storage.Driver))
	}
	if c.Model.Retries != nil && *c.Model.Retries < 0 {
		errs = append(errs, errors.New("model.retries must not be negative"))
	}
	if c.Memory.TailSize >= c.Memory.MinEvents {
		errs = append(errs, fmt.Errorf("memory.tail_size (%d) must be smaller than memory.min_events (%d)", c.Memory.TailSize, c.Memory.MinEvents))
	}
	return errors.Join(errs...)
}

// Load reads path (or DefaultPath when empty), then applies environment
// overrides, defaults and validation. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	c := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
