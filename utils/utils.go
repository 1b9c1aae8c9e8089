package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

// MaxSourcePixels bounds what ShrinkImage is willing to decode (about 6300 x 6300)
const MaxSourcePixels = 40_000_000

var ErrImageDimensions = errors.New("image dimensions out of range")

type ImageShrinkResult struct {
	Data []byte
	NewX int
	NewY int
	OldX int
	OldY int
}

// ShrinkImage fits the image into a maxSize x maxSize box, keeping its format.
// Images that already fit (or maxSize 0) are returned unchanged. The header is checked
// before decoding so a small file can't declare a huge canvas.
func ShrinkImage(maxSize uint, mimeType string, data []byte) (result ImageShrinkResult, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return result, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return result, ErrImageDimensions
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return result, err
	}
	imageRect := img.Bounds().Size()
	result.OldX = imageRect.X
	result.OldY = imageRect.Y
	if maxSize == 0 || (uint(imageRect.X) <= maxSize && uint(imageRect.Y) <= maxSize) {
		result.Data = data
		result.NewX, result.NewY = result.OldX, result.OldY
		return result, nil
	}

	var newBuf bytes.Buffer
	newImage := resize.Thumbnail(maxSize, maxSize, img, resize.Lanczos3)
	if mimeType == "image/png" {
		err = png.Encode(&newBuf, newImage)
	} else {
		err = jpeg.Encode(&newBuf, newImage, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return
	}
	imageRect = newImage.Bounds().Size()
	result.NewX = imageRect.X
	result.NewY = imageRect.Y
	result.Data = newBuf.Bytes()
	return
}
