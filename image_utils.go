package cococonv

import (
	"fmt"
	"image"
	_ "image/gif"  // Registers the GIF decoder.
	_ "image/jpeg" // Registers the JPEG decoder.
	_ "image/png"  // Registers the PNG decoder.
	"os"

	_ "golang.org/x/image/bmp"  // Registers the BMP decoder.
	_ "golang.org/x/image/tiff" // Registers the TIFF decoder.
	_ "golang.org/x/image/webp" // Registers the WebP decoder.
)

// ImageSizeFunc returns the pixel width and height of the image at path.
type ImageSizeFunc func(path string) (width, height int, err error)

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", wrapOpenErr(path, err)
	}
	defer file.Close()

	config, format, err = image.DecodeConfig(file)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %q: %v", ErrDecode, path, err)
	}
	return config, format, nil
}

// imageSize is the ImageSizeFunc that decodes the image header from disk.
func imageSize(path string) (width, height int, err error) {
	img, _, err := decodeImageConfig(path)
	if err != nil {
		return 0, 0, err
	}
	return img.Width, img.Height, nil
}
