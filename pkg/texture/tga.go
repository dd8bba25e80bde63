package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

var (
	ErrTruncatedTGAData   = errors.New("truncated TGA data")
	ErrUnsupportedTGAType = errors.New("unsupported TGA type")
)

// tgaHeader is the subset of the 18-byte TGA header we care about.
type tgaHeader struct {
	idLength      int
	colorMapType  byte
	imageType     byte
	width         int
	height        int
	bytesPerPixel int
	topToBottom   bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, ErrTruncatedTGAData
	}

	h := tgaHeader{
		idLength:     int(data[0]),
		colorMapType: data[1],
		imageType:    data[2],
		width:        int(data[12]) | int(data[13])<<8,
		height:       int(data[14]) | int(data[15])<<8,
		// Bit 5 of the descriptor: origin at the top-left.
		topToBottom: data[17]&0x20 != 0,
	}
	bpp := int(data[16])

	if h.colorMapType != 0 {
		return tgaHeader{}, fmt.Errorf("%w: color-mapped images", ErrUnsupportedTGAType)
	}
	if h.imageType != TGATypeUncompressed && h.imageType != TGATypeRLE {
		return tgaHeader{}, fmt.Errorf("%w: type %d (only uncompressed/RLE true-color)", ErrUnsupportedTGAType, h.imageType)
	}
	if bpp != 24 && bpp != 32 {
		return tgaHeader{}, fmt.Errorf("%w: bit depth %d (only 24/32)", ErrUnsupportedTGAType, bpp)
	}
	h.bytesPerPixel = bpp / 8

	if tgaHeaderSize+h.idLength > len(data) {
		return tgaHeader{}, ErrTruncatedTGAData
	}
	return h, nil
}

// DecodeTGAConfig returns the dimensions of a TGA image without decoding pixels.
func DecodeTGAConfig(data []byte) (image.Config, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      h.width,
		Height:     h.height,
	}, nil
}

// DecodeTGA decodes an uncompressed (type 2) or RLE compressed (type 10)
// true-color TGA image.
func DecodeTGA(data []byte) (image.Image, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, h.width, h.height))
	pixelData := data[tgaHeaderSize+h.idLength:]

	if h.imageType == TGATypeUncompressed {
		if len(pixelData) < h.width*h.height*h.bytesPerPixel {
			return nil, ErrTruncatedTGAData
		}
		for i := 0; i < h.width*h.height; i++ {
			h.setPixel(img, i, pixelData[i*h.bytesPerPixel:])
		}
		return img, nil
	}

	if err := decodeTGARLE(img, h, pixelData); err != nil {
		return nil, err
	}
	return img, nil
}

// decodeTGARLE expands RLE packets into img.
func decodeTGARLE(img *image.NRGBA, h tgaHeader, pixelData []byte) error {
	pixelCount := h.width * h.height
	pixelIdx := 0
	dataIdx := 0

	for pixelIdx < pixelCount {
		if dataIdx >= len(pixelData) {
			return ErrTruncatedTGAData
		}
		packet := pixelData[dataIdx]
		dataIdx++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run packet: one pixel repeated count times.
			if dataIdx+h.bytesPerPixel > len(pixelData) {
				return ErrTruncatedTGAData
			}
			px := pixelData[dataIdx:]
			dataIdx += h.bytesPerPixel
			for i := 0; i < count && pixelIdx < pixelCount; i++ {
				h.setPixel(img, pixelIdx, px)
				pixelIdx++
			}
			continue
		}

		// Raw packet: count literal pixels.
		for i := 0; i < count && pixelIdx < pixelCount; i++ {
			if dataIdx+h.bytesPerPixel > len(pixelData) {
				return ErrTruncatedTGAData
			}
			h.setPixel(img, pixelIdx, pixelData[dataIdx:])
			dataIdx += h.bytesPerPixel
			pixelIdx++
		}
	}

	return nil
}

// setPixel writes the BGR(A) pixel px as the idx-th pixel in file order.
func (h tgaHeader) setPixel(img *image.NRGBA, idx int, px []byte) {
	x := idx % h.width
	y := idx / h.width
	if !h.topToBottom {
		y = h.height - 1 - y
	}
	a := uint8(255)
	if h.bytesPerPixel == 4 {
		a = px[3]
	}
	o := img.PixOffset(x, y)
	img.Pix[o] = px[2]
	img.Pix[o+1] = px[1]
	img.Pix[o+2] = px[0]
	img.Pix[o+3] = a
}
