package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Input defaults
	if cfg.Input.Root != "assets" {
		t.Errorf("expected root 'assets', got %s", cfg.Input.Root)
	}
	if cfg.Input.Segment != "textures" {
		t.Errorf("expected segment 'textures', got %s", cfg.Input.Segment)
	}
	if !reflect.DeepEqual(cfg.Input.Extensions, []string{".png"}) {
		t.Errorf("expected extensions [.png], got %v", cfg.Input.Extensions)
	}
	if cfg.Input.ExcludedSuffix != "_portal" {
		t.Errorf("expected excluded suffix '_portal', got %s", cfg.Input.ExcludedSuffix)
	}

	// Packing defaults
	if cfg.Packing.PageSize != 8192 {
		t.Errorf("expected page size 8192, got %d", cfg.Packing.PageSize)
	}
	if cfg.Packing.MaxBatch != 2048 {
		t.Errorf("expected max batch 2048, got %d", cfg.Packing.MaxBatch)
	}

	// Rewrite defaults
	if cfg.Rewrite.TextureKey != "layer0" {
		t.Errorf("expected texture key 'layer0', got %s", cfg.Rewrite.TextureKey)
	}
	if cfg.Rewrite.DryRun {
		t.Error("expected dry_run to be false by default")
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestOutputDir(t *testing.T) {
	tests := []struct {
		root, dir, want string
	}{
		{"assets", "", filepath.Join("assets", "atlases")},
		{filepath.Join("packs", "pack.zip"), "", filepath.Join("packs", "atlases")},
		{filepath.Join("packs", "PACK.ZIP"), "", filepath.Join("packs", "atlases")},
		{"assets", "out", "out"},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Input.Root = tt.root
		cfg.Output.Dir = tt.dir
		if got := cfg.OutputDir(); got != tt.want {
			t.Errorf("OutputDir(root=%q, dir=%q) = %q, want %q", tt.root, tt.dir, got, tt.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
input:
  root: "resourcepack"
  extensions: [".png", ".tga"]
  excluded_suffix: ""
  workers: 8

packing:
  page_size: 4096
  max_batch: 512

output:
  dir: "build/atlases"
  reference: "item/atlases"

rewrite:
  models_dir: "models/custom"
  dry_run: true

logging:
  level: "debug"
  log_file: "texpack.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Input.Root != "resourcepack" {
		t.Errorf("expected root 'resourcepack', got %s", cfg.Input.Root)
	}
	if !reflect.DeepEqual(cfg.Input.Extensions, []string{".png", ".tga"}) {
		t.Errorf("expected extensions [.png .tga], got %v", cfg.Input.Extensions)
	}
	if cfg.Input.ExcludedSuffix != "" {
		t.Errorf("expected empty excluded suffix, got %s", cfg.Input.ExcludedSuffix)
	}
	if cfg.Input.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Input.Workers)
	}
	// Untouched keys keep their defaults.
	if cfg.Input.Segment != "textures" {
		t.Errorf("expected default segment, got %s", cfg.Input.Segment)
	}

	if cfg.Packing.PageSize != 4096 {
		t.Errorf("expected page size 4096, got %d", cfg.Packing.PageSize)
	}
	if cfg.Packing.MaxBatch != 512 {
		t.Errorf("expected max batch 512, got %d", cfg.Packing.MaxBatch)
	}

	if cfg.Output.Dir != "build/atlases" {
		t.Errorf("expected output dir build/atlases, got %s", cfg.Output.Dir)
	}
	if cfg.Output.Reference != "item/atlases" {
		t.Errorf("expected reference item/atlases, got %s", cfg.Output.Reference)
	}

	if cfg.Rewrite.ModelsDir != "models/custom" {
		t.Errorf("expected models dir models/custom, got %s", cfg.Rewrite.ModelsDir)
	}
	if !cfg.Rewrite.DryRun {
		t.Error("expected dry_run to be true")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "texpack.log" {
		t.Errorf("expected log file 'texpack.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "texpack.toml")

	tomlContent := `
[input]
root = "pack.zip"
segment = "item"

[packing]
page_size = 2048
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Input.Root != "pack.zip" {
		t.Errorf("expected root pack.zip, got %s", cfg.Input.Root)
	}
	if cfg.Input.Segment != "item" {
		t.Errorf("expected segment item, got %s", cfg.Input.Segment)
	}
	if cfg.Packing.PageSize != 2048 {
		t.Errorf("expected page size 2048, got %d", cfg.Packing.PageSize)
	}
	if cfg.Packing.MaxBatch != 2048 {
		t.Errorf("expected default max batch, got %d", cfg.Packing.MaxBatch)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
packing:
  page_size: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty root", func(c *Config) { c.Input.Root = "" }, "input.root"},
		{"empty segment", func(c *Config) { c.Input.Segment = "" }, "input.segment"},
		{"nested segment", func(c *Config) { c.Input.Segment = "a/b" }, "input.segment"},
		{"no extensions", func(c *Config) { c.Input.Extensions = nil }, "input.extensions"},
		{"extension without dot", func(c *Config) { c.Input.Extensions = []string{"png"} }, "input.extensions"},
		{"extension without decoder", func(c *Config) { c.Input.Extensions = []string{".png", ".jpg"} }, "input.extensions"},
		{"zero workers", func(c *Config) { c.Input.Workers = 0 }, "input.workers"},
		{"zero page size", func(c *Config) { c.Packing.PageSize = 0 }, "packing.page_size"},
		{"page size not power of two", func(c *Config) { c.Packing.PageSize = 3000 }, "packing.page_size"},
		{"page size too large", func(c *Config) { c.Packing.PageSize = 32768 }, "packing.page_size"},
		{"zero batch", func(c *Config) { c.Packing.MaxBatch = 0 }, "packing.max_batch"},
		{"zero compose workers", func(c *Config) { c.Output.ComposeWorkers = 0 }, "output.compose_workers"},
		{"empty texture key", func(c *Config) { c.Rewrite.TextureKey = "" }, "rewrite.texture_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}

	cfg := Default()
	cfg.Input.Extensions = []string{".PNG", ".tga", ".bmp", ".webp"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("decodable extensions should be valid: %v", err)
	}

	for _, size := range []int{1, 16, 4096, 8192, 16384} {
		cfg := Default()
		cfg.Packing.PageSize = size
		if err := cfg.Validate(); err != nil {
			t.Errorf("page size %d should be valid: %v", size, err)
		}
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "texpack.toml"), []byte("[packing]\npage_size = 1024\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./texpack.toml" {
		t.Errorf("expected ./texpack.toml, got %q", path)
	}

	// YAML wins over TOML when both exist.
	if err := os.WriteFile(filepath.Join(tmpDir, "texpack.yaml"), []byte("packing:\n  page_size: 1024\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./texpack.yaml" {
		t.Errorf("expected ./texpack.yaml, got %q", path)
	}
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return f
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "root and output flags",
			args: []string{"-r", "pack.zip", "--output", "out"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Input.Root != "pack.zip" {
					t.Errorf("expected root pack.zip, got %s", cfg.Input.Root)
				}
				if cfg.Output.Dir != "out" {
					t.Errorf("expected output out, got %s", cfg.Output.Dir)
				}
			},
		},
		{
			name: "packing flags",
			args: []string{"--page-size", "4096", "--max-batch", "64", "-j", "2"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Packing.PageSize != 4096 {
					t.Errorf("expected page size 4096, got %d", cfg.Packing.PageSize)
				}
				if cfg.Packing.MaxBatch != 64 {
					t.Errorf("expected max batch 64, got %d", cfg.Packing.MaxBatch)
				}
				if cfg.Input.Workers != 2 {
					t.Errorf("expected 2 workers, got %d", cfg.Input.Workers)
				}
			},
		},
		{
			name: "explicit empty suffix",
			args: []string{"--exclude-suffix="},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Input.ExcludedSuffix != "" {
					t.Errorf("expected suffix cleared, got %s", cfg.Input.ExcludedSuffix)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseFlags(t, tt.args...)
			cfg := Default()
			applyFlags(cfg, f)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
packing:
  page_size: 2048
  max_batch: 100
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	f := parseFlags(t, "--config", configPath, "--page-size", "1024")

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Page size should be from flag (1024), not file (2048)
	if cfg.Packing.PageSize != 1024 {
		t.Errorf("expected page size 1024 from flag, got %d", cfg.Packing.PageSize)
	}
	// Max batch should be from file since no flag override
	if cfg.Packing.MaxBatch != 100 {
		t.Errorf("expected max batch 100 from file, got %d", cfg.Packing.MaxBatch)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	f := parseFlags(t, "--page-size", "1000")
	_, err := Load(f)

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "packing.page_size" {
		t.Fatalf("expected page size validation error, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"nested/config.yaml", "nested/config.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Input.Root = "pack.zip"
			cfg.Input.Extensions = []string{".png", ".tga"}
			cfg.Packing.PageSize = 4096

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}

			loaded := Default()
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("loadFromFile: %v", err)
			}
			if !reflect.DeepEqual(loaded, cfg) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
			}
		})
	}
}
