package config

import (
	"strings"

	"github.com/Faultbox/texpack/pkg/texture"
)

// MaxPageSize bounds the page side; an 16384² RGBA page already needs 1 GiB.
const MaxPageSize = 16384

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "config: invalid " + e.Field + ": " + e.Reason
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Input.Root == "" {
		return &ValidationError{Field: "input.root", Reason: "must not be empty"}
	}
	if c.Input.Segment == "" || strings.Contains(c.Input.Segment, "/") {
		return &ValidationError{Field: "input.segment", Reason: "must be a single path segment"}
	}
	if len(c.Input.Extensions) == 0 {
		return &ValidationError{Field: "input.extensions", Reason: "must list at least one extension"}
	}
	for _, ext := range c.Input.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return &ValidationError{Field: "input.extensions", Reason: "extension " + ext + " must start with a dot"}
		}
		if !texture.Supported(ext) {
			return &ValidationError{Field: "input.extensions", Reason: "no decoder for " + ext}
		}
	}
	if c.Input.Workers < 1 {
		return &ValidationError{Field: "input.workers", Reason: "must be at least 1"}
	}

	size := c.Packing.PageSize
	if size < 1 || size > MaxPageSize {
		return &ValidationError{Field: "packing.page_size", Reason: "must be between 1 and 16384"}
	}
	if size&(size-1) != 0 {
		return &ValidationError{Field: "packing.page_size", Reason: "must be a power of 2"}
	}
	if c.Packing.MaxBatch < 1 {
		return &ValidationError{Field: "packing.max_batch", Reason: "must be at least 1"}
	}

	if c.Output.ComposeWorkers < 1 {
		return &ValidationError{Field: "output.compose_workers", Reason: "must be at least 1"}
	}

	if c.Rewrite.TextureKey == "" {
		return &ValidationError{Field: "rewrite.texture_key", Reason: "must not be empty"}
	}
	return nil
}
