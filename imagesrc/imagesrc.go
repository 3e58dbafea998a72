// Package imagesrc decodes the images shown on the board from files or
// inline data URIs.
package imagesrc

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"os"
	"strings"

	// registered formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrRemote is returned for network sources, which are not fetched.
var ErrRemote = errors.New("remote image sources are not supported")

// Image is a decoded source with its natural size.
type Image struct {
	image.Image
	Format string
	Width  int
	Height int
}

// Load decodes src, either a "data:" URI or a file path.
func Load(ctx context.Context, src string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.New("empty image source")
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(src, "data:"):
		data, err = decodeDataURI(src)
	case isRemote(src):
		return nil, fmt.Errorf("%s: %w", src, ErrRemote)
	default:
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode decodes raw image bytes in any registered format.
func Decode(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("decoding image: empty bounds")
	}
	return &Image{Image: img, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

func isRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme != "" && u.Scheme != "file"
}

// decodeDataURI returns the payload of "data:[<mediatype>][;base64],<data>".
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("data URI without payload")
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		return data, err
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}
