// Package intake turns a user-selected file into a displayable bitmap.
package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"humandetector/internal/model"
)

// ErrNoFile means the user closed the picker without choosing a file.
var ErrNoFile = errors.New("no file chosen")

// DecodeError means a file was chosen but could not be turned into a bitmap.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// File is a single user-selected file.
type File struct {
	Name string
	Data []byte
}

// Bitmap is a decoded image ready for display and detection.
type Bitmap struct {
	Name    string
	MIME    string
	Data    []byte
	Image   image.Image
	Natural model.Size
}

// DataURL returns the bitmap as an inline data URL for an <img> element.
func (b *Bitmap) DataURL() string {
	return "data:" + b.MIME + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// Decode sniffs and decodes the file. A nil file yields ErrNoFile; every
// other failure is a *DecodeError.
func Decode(ctx context.Context, file *File) (*Bitmap, error) {
	if file == nil {
		return nil, ErrNoFile
	}
	if err := ctx.Err(); err != nil {
		return nil, &DecodeError{Filename: file.Name, Err: err}
	}
	if len(file.Data) == 0 {
		return nil, &DecodeError{Filename: file.Name, Err: errors.New("file is empty")}
	}

	mime := mimetype.Detect(file.Data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, &DecodeError{Filename: file.Name, Err: fmt.Errorf("unsupported content type %s", mime.String())}
	}

	img, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return nil, &DecodeError{Filename: file.Name, Err: err}
	}

	bounds := img.Bounds()
	return &Bitmap{
		Name:    file.Name,
		MIME:    mimeFor(format, mime),
		Data:    file.Data,
		Image:   img,
		Natural: model.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())},
	}, nil
}

// mimeFor prefers the sniffed type and falls back to the decoder's format name.
func mimeFor(format string, sniffed *mimetype.MIME) string {
	if m := sniffed.String(); m != "" && m != "application/octet-stream" {
		// Drop parameters such as "; charset=binary".
		return strings.TrimSpace(strings.SplitN(m, ";", 2)[0])
	}
	return "image/" + format
}
