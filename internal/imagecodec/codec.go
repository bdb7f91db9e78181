package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultQuality = 95

	// Depth is the channel count of every encoded image.
	Depth = 3
)

var ErrDecode = errors.New("cannot decode image")

type EncodedImage struct {
	Bytes  []byte
	Width  int
	Height int
	Depth  int
}

// Codec turns image files into 3 channel RGB JPEG bytes.
type Codec struct {
	quality int
}

func New(quality int) *Codec {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Codec{quality: quality}
}

func (c *Codec) Quality() int {
	return c.quality
}

// Encode reads the image at path. RGB JPEG files are returned byte for byte;
// anything else is converted to RGB and re-encoded as JPEG.
func (c *Codec) Encode(path string) (EncodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("error reading image %s: %w", path, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
	}

	if !isRGBJPEG(format, cfg.ColorModel) {
		data, err = c.recode(data)
		if err != nil {
			return EncodedImage{}, fmt.Errorf("error recoding %s (%s): %w", path, format, err)
		}
	}

	return EncodedImage{
		Bytes:  data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Depth:  Depth,
	}, nil
}

// 3 component JPEGs decode to YCbCr, or to RGBA when the Adobe marker says
// the components are stored untransformed.
func isRGBJPEG(format string, model color.Model) bool {
	return format == "jpeg" && (model == color.YCbCrModel || model == color.RGBAModel)
}

func (c *Codec) recode(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGB(img), &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("error encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// toRGB drops the alpha channel without compositing, keeping the straight
// color values of translucent pixels.
func toRGB(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}
