// Package config handles texpack configuration loading and management.
package config

import (
	"path/filepath"
	"strings"
)

// Config holds all texpack settings.
type Config struct {
	Input   InputConfig   `yaml:"input" toml:"input"`
	Packing PackingConfig `yaml:"packing" toml:"packing"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Rewrite RewriteConfig `yaml:"rewrite" toml:"rewrite"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// InputConfig selects the textures to pack.
type InputConfig struct {
	Root           string   `yaml:"root" toml:"root"`                       // pack directory or .zip
	Segment        string   `yaml:"segment" toml:"segment"`                 // required directory segment
	Extensions     []string `yaml:"extensions" toml:"extensions"`           // accepted image extensions
	ExcludedSuffix string   `yaml:"excluded_suffix" toml:"excluded_suffix"` // skipped file stems, e.g. *_portal.png
	Workers        int      `yaml:"workers" toml:"workers"`                 // hashing workers
}

// PackingConfig holds atlas page settings.
type PackingConfig struct {
	PageSize int `yaml:"page_size" toml:"page_size"`
	MaxBatch int `yaml:"max_batch" toml:"max_batch"` // candidates attempted per page
}

// OutputConfig controls where pages are written and how entries reference them.
type OutputConfig struct {
	Dir            string `yaml:"dir" toml:"dir"`             // empty: <root>/atlases
	Reference      string `yaml:"reference" toml:"reference"` // prefix of entry texture paths
	ComposeWorkers int    `yaml:"compose_workers" toml:"compose_workers"`
}

// RewriteConfig holds model rewriting settings.
type RewriteConfig struct {
	ModelsDir  string `yaml:"models_dir" toml:"models_dir"`
	TextureKey string `yaml:"texture_key" toml:"texture_key"`
	DryRun     bool   `yaml:"dry_run" toml:"dry_run"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default page sizes.
const (
	DefaultPageSize = 8192
	HalfPageSize    = 4096
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Root:           "assets",
			Segment:        "textures",
			Extensions:     []string{".png"},
			ExcludedSuffix: "_portal",
			Workers:        4,
		},
		Packing: PackingConfig{
			PageSize: DefaultPageSize,
			MaxBatch: 2048,
		},
		Output: OutputConfig{
			Dir:            "",
			Reference:      "atlases",
			ComposeWorkers: 2,
		},
		Rewrite: RewriteConfig{
			ModelsDir:  "models/item",
			TextureKey: "layer0",
			DryRun:     false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// OutputDir returns the directory pages are written to. Unless configured,
// it is "atlases" inside the pack directory, or next to a zipped pack.
func (c *Config) OutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	if strings.EqualFold(filepath.Ext(c.Input.Root), ".zip") {
		return filepath.Join(filepath.Dir(c.Input.Root), "atlases")
	}
	return filepath.Join(c.Input.Root, "atlases")
}
