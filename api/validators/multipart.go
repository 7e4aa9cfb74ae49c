package validators

import (
	"errors"
	"net/http"

	"github.com/lunaplata/joyeria-backend/internal/media"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
)

// multipart overhead allowed on top of the file itself
const multipartSlack = 1 << 20

// FormFile reads the named multipart file. The returned cleanup closes the
// file and removes any temp files written by the parser.
func FormFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (media.File, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return media.File{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large")
		}
		return media.File{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		return media.File{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" is required")
	}
	cleanup := func() {
		_ = file.Close()
		_ = r.MultipartForm.RemoveAll()
	}
	return media.File{Filename: header.Filename, Size: header.Size, Body: file}, cleanup, nil
}
