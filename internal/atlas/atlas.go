// Package atlas composites packed pages into images and expands placements
// to every alias of the placed textures.
package atlas

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"path"

	"golang.org/x/image/draw"

	"github.com/Faultbox/texpack/internal/mapping"
	"github.com/Faultbox/texpack/internal/packer"
	"github.com/Faultbox/texpack/pkg/texture"
)

// Reader supplies the encoded bytes of representative texture files.
type Reader interface {
	Read(name string) ([]byte, error)
}

// Compose renders a finalized page: a Size×Size image with a transparent
// background and each representative copied unscaled to its rect.
func Compose(ctx context.Context, page *packer.Page, r Reader) (*image.NRGBA, error) {
	dst := image.NewNRGBA(image.Rect(0, 0, page.Size, page.Size))

	for _, pl := range page.Placed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := r.Read(pl.Texture.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", pl.Texture.Path, err)
		}
		src, err := texture.Decode(path.Ext(pl.Texture.Path), data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", pl.Texture.Path, err)
		}

		b := src.Bounds()
		if b.Dx() != pl.W || b.Dy() != pl.H {
			return nil, fmt.Errorf("%s: decoded size %dx%d does not match indexed size %dx%d",
				pl.Texture.Path, b.Dx(), b.Dy(), pl.W, pl.H)
		}

		blit(dst, image.Pt(pl.X, pl.Y), src)
	}

	return dst, nil
}

// blit copies src to dst at p without blending. Non-premultiplied sources
// are copied value-for-value so semi-transparent pixels survive unchanged.
func blit(dst *image.NRGBA, p image.Point, src image.Image) {
	b := src.Bounds()

	switch s := src.(type) {
	case *image.NRGBA:
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			so := s.PixOffset(b.Min.X, b.Min.Y+y)
			do := dst.PixOffset(p.X, p.Y+y)
			copy(dst.Pix[do:do+rowLen], s.Pix[so:so+rowLen])
		}
	case *image.Paletted:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst.Set(p.X+x, p.Y+y, s.At(b.Min.X+x, b.Min.Y+y))
			}
		}
	default:
		draw.Copy(dst, p, src, b, draw.Src, nil)
	}
}

// Entries expands a page's placements into a mapping table. Every alias of a
// placed texture gets the same rect, image reference and stable id.
func Entries(page *packer.Page, imageRef string) (*mapping.Table, error) {
	table := mapping.NewTable(page.Index)
	for _, pl := range page.Placed {
		for _, alias := range pl.Texture.Aliases {
			err := table.Add(mapping.Entry{
				Alias:           alias,
				Texture:         imageRef,
				X:               pl.X,
				Y:               pl.Y,
				Width:           pl.W,
				Height:          pl.H,
				CustomModelData: pl.StableID,
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return table, nil
}

// EncodePNG writes the page image losslessly.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, img)
}
