package validators

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/shopfront/storefront-backend/internal/photos"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
)

const (
	// PhotosField is the multipart field carrying product images.
	PhotosField = "photos"

	formOverheadBytes = 1 << 20
	maxMemoryBytes    = 32 << 20
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// ParseImageForm parses a multipart request and returns the image files under PhotosField.
// Text fields remain available through r.FormValue. Files are sniffed by content, so a
// renamed non-image is rejected.
func ParseImageForm(w http.ResponseWriter, r *http.Request, maxFiles int, maxFileBytes int64) ([]photos.Upload, error) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected multipart/form-data body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*maxFileBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "request body too large")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	files := r.MultipartForm.File[PhotosField]
	if len(files) > maxFiles {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d photos are allowed", maxFiles)).
			WithDetails(map[string]any{"field": PhotosField, "max": maxFiles, "got": len(files)})
	}

	uploads := make([]photos.Upload, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxFileBytes {
			return nil, pkgerrors.New(pkgerrors.CodeTooLarge, "photo exceeds the size limit").
				WithDetails(map[string]any{"file": fh.Filename, "maxBytes": maxFileBytes})
		}
		f, err := fh.Open()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded photo")
		}
		data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded photo")
		}
		if int64(len(data)) > maxFileBytes {
			return nil, pkgerrors.New(pkgerrors.CodeTooLarge, "photo exceeds the size limit").
				WithDetails(map[string]any{"file": fh.Filename, "maxBytes": maxFileBytes})
		}

		mtype := mimetype.Detect(data)
		if _, ok := allowedImageTypes[mtype.String()]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnsupported, "only JPG and PNG images are allowed").
				WithDetails(map[string]any{"file": fh.Filename, "detected": mtype.String()})
		}
		uploads = append(uploads, photos.Upload{
			Name:        fh.Filename,
			ContentType: mtype.String(),
			Data:        data,
		})
	}
	return uploads, nil
}
