package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	apierrors "growthdash/internal/errors"
)

// UploadField is the multipart form field carrying the workbook
const UploadField = "file"

// multipartMemory is the part of an upload kept in memory before spilling to disk
const multipartMemory = 8 << 20

// readUpload extracts the workbook from a multipart request. The caller
// closes the returned file.
func readUpload(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, apierrors.ErrPayloadTooLarge
		}
		return nil, nil, apierrors.InvalidRequestWithError(fmt.Errorf("parse multipart form: %w", err))
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, apierrors.ErrMissingFile
		}
		return nil, nil, apierrors.InvalidRequestWithError(err)
	}
	return file, header, nil
}
