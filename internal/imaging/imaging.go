// Package imaging checks and shrinks product photos before they are sent
// for background removal.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// MaxUploadBytes caps a single photo, matching the backend's request limit.
const MaxUploadBytes = 16 << 20

// MaxDimension is the largest width or height sent to the backend.
const MaxDimension = 2048

// JPEGQuality is the compression quality for re-encoded JPEGs.
const JPEGQuality = 90

// AllowedExtensions lists the accepted file name extensions.
var AllowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// allowedMIME maps sniffed content types to the format name image.Decode reports.
var allowedMIME = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
}

var (
	ErrUnsupported = errors.New("unsupported image format")
	ErrTooLarge    = errors.New("image too large")
)

// Photo is a validated image ready for upload.
type Photo struct {
	Filename string
	Data     []byte
	MIME     string
	Width    int
	Height   int
	Resized  bool
}

// Prepare validates a photo by extension and sniffed content, and downscales
// it if either side exceeds MaxDimension. PNGs stay PNG so transparency
// survives; JPEGs stay JPEG. Photos already within bounds are returned
// byte for byte.
func Prepare(filename string, r io.Reader) (*Photo, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: missing file name", ErrUnsupported)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !AllowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s (only PNG, JPG and JPEG accepted)", ErrUnsupported, name)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d MB", ErrTooLarge, name, MaxUploadBytes>>20)
	}

	// Sniff the actual type, the extension alone is not trusted.
	detected := http.DetectContentType(data)
	format, ok := allowedMIME[detected]
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupported, name, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	photo := &Photo{Filename: name, Data: data, MIME: detected}
	scaled := downscale(img, MaxDimension)
	if scaled != img {
		var buf bytes.Buffer
		switch format {
		case "png":
			err = png.Encode(&buf, scaled)
		default:
			err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: JPEGQuality})
		}
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		photo.Data = buf.Bytes()
		photo.Resized = true
	}
	b := scaled.Bounds()
	photo.Width, photo.Height = b.Dx(), b.Dy()
	return photo, nil
}

// downscale resizes the image so neither dimension exceeds maxDim,
// preserving aspect ratio. Returns img itself if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
