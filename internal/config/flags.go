package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides bound to a flag set.
type Flags struct {
	fs *pflag.FlagSet

	config         string
	debug          bool
	root           string
	output         string
	pageSize       int
	maxBatch       int
	excludedSuffix string
	workers        int
	logFile        string
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.config, "config", "c", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVarP(&f.root, "root", "r", "", "Pack directory or .zip to read textures from")
	fs.StringVarP(&f.output, "output", "o", "", "Directory to write atlas pages to")
	fs.IntVar(&f.pageSize, "page-size", 0, "Atlas page side in pixels (8192, 4096, ...)")
	fs.IntVar(&f.maxBatch, "max-batch", 0, "Maximum candidates attempted per page")
	fs.StringVar(&f.excludedSuffix, "exclude-suffix", "", "Skip textures whose name ends with this suffix")
	fs.IntVarP(&f.workers, "workers", "j", 0, "Hashing workers")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	return f
}

// ConfigPath returns the explicit config path if provided via --config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

// applyFlags applies CLI flag overrides to the config. Only flags set on
// the command line are applied, so an explicit empty suffix disables the
// exclusion.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	changed := func(name string) bool {
		return f.fs != nil && f.fs.Changed(name)
	}

	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if changed("root") {
		cfg.Input.Root = f.root
	}
	if changed("output") {
		cfg.Output.Dir = f.output
	}
	if changed("page-size") {
		cfg.Packing.PageSize = f.pageSize
	}
	if changed("max-batch") {
		cfg.Packing.MaxBatch = f.maxBatch
	}
	if changed("exclude-suffix") {
		cfg.Input.ExcludedSuffix = f.excludedSuffix
	}
	if changed("workers") {
		cfg.Input.Workers = f.workers
	}
	if changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
}
