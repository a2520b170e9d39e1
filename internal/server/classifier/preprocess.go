package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"golang.org/x/image/draw"
)

// MaxSourcePixels bounds decoded image size; larger images are rejected
// from their header before any pixel data is allocated.
const MaxSourcePixels = 40_000_000

var (
	imageNetMean = [Channels]float32{0.485, 0.456, 0.406}
	imageNetStd  = [Channels]float32{0.229, 0.224, 0.225}
)

// Preprocessor decodes JPEG or PNG bytes into a normalized 3x256x256 tensor.
type Preprocessor struct{}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

var mediaTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// sniff checks the image header without decoding pixels and returns the
// media type of the detected format.
func sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", common.ErrInvalidInput)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	mediaType, ok := mediaTypes[format]
	if !ok {
		return "", fmt.Errorf("%w: unsupported format %q", common.ErrInvalidInput, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxSourcePixels {
		return "", fmt.Errorf("%w: unsupported dimensions %dx%d", common.ErrInvalidInput, cfg.Width, cfg.Height)
	}
	return mediaType, nil
}

// Preprocess decodes data, resizes it with bilinear interpolation and
// normalizes each channel with ImageNet statistics. It also returns the
// media type of the decoded format, image/jpeg or image/png.
func (p *Preprocessor) Preprocess(data []byte) (Tensor, string, error) {
	mediaType, err := sniff(data)
	if err != nil {
		return Tensor{}, "", err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Tensor{}, "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, ImageSize, ImageSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	const plane = ImageSize * ImageSize
	out := make([]float32, InputLen)
	for y := 0; y < ImageSize; y++ {
		for x := 0; x < ImageSize; x++ {
			i := dst.PixOffset(x, y)
			px := dst.Pix[i : i+3 : i+3]
			for c := 0; c < Channels; c++ {
				v := float32(px[c]) / 255
				out[c*plane+y*ImageSize+x] = (v - imageNetMean[c]) / imageNetStd[c]
			}
		}
	}

	return Tensor{Shape: []int{Channels, ImageSize, ImageSize}, Data: out}, mediaType, nil
}
