// Package texture provides image decoding for pack textures, selected by
// file extension.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for extensions with no registered decoder.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

type codec struct {
	decode       func(data []byte) (image.Image, error)
	decodeConfig func(data []byte) (image.Config, error)
}

var codecs = map[string]codec{
	".png": {
		decode:       func(data []byte) (image.Image, error) { return png.Decode(bytes.NewReader(data)) },
		decodeConfig: func(data []byte) (image.Config, error) { return png.DecodeConfig(bytes.NewReader(data)) },
	},
	".bmp": {
		decode:       func(data []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(data)) },
		decodeConfig: func(data []byte) (image.Config, error) { return bmp.DecodeConfig(bytes.NewReader(data)) },
	},
	".webp": {
		decode:       func(data []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(data)) },
		decodeConfig: func(data []byte) (image.Config, error) { return webp.DecodeConfig(bytes.NewReader(data)) },
	},
	".tga": {
		decode:       DecodeTGA,
		decodeConfig: DecodeTGAConfig,
	},
}

// Supported reports whether ext (with leading dot, any case) can be decoded.
func Supported(ext string) bool {
	_, ok := codecs[strings.ToLower(ext)]
	return ok
}

// DecodeConfig returns the dimensions of an encoded texture.
// Images with a zero or negative side are rejected.
func DecodeConfig(ext string, data []byte) (image.Config, error) {
	c, ok := codecs[strings.ToLower(ext)]
	if !ok {
		return image.Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	cfg, err := c.decodeConfig(data)
	if err != nil {
		return image.Config{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// Decode decodes an encoded texture.
func Decode(ext string, data []byte) (image.Image, error) {
	c, ok := codecs[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return c.decode(data)
}
