package app

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"hostel_hub/internal/domain"
)

const MaxImageBytes = 5 << 20

var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type image struct {
	data        []byte
	contentType string
}

// readImage buffers at most MaxImageBytes and sniffs the content type.
func readImage(r io.Reader) (image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return image{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return image{}, domain.NewValidationError(domain.FieldError{Field: "file", Message: "file is empty"})
	}
	if len(data) > MaxImageBytes {
		return image{}, domain.NewValidationError(domain.FieldError{Field: "file", Message: "file must be at most 5 MiB"})
	}
	ct := http.DetectContentType(data)
	if _, ok := imageExt[ct]; !ok {
		return image{}, domain.NewValidationError(domain.FieldError{Field: "file", Message: "file must be a JPEG, PNG or WebP image"})
	}
	return image{data: data, contentType: ct}, nil
}

func (i image) key(prefix string) string {
	return fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), imageExt[i.contentType])
}

func (i image) reader() io.Reader { return bytes.NewReader(i.data) }

func (i image) size() int64 { return int64(len(i.data)) }
