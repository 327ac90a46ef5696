package validation

import (
	"bytes"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	apierrors "growthdash/internal/errors"
)

// WorkbookExtension is the only accepted upload extension
const WorkbookExtension = ".xlsx"

// xlsx workbooks are zip archives
var zipSignature = []byte("PK\x03\x04")

// UploadRequest describes an uploaded workbook before it is parsed
type UploadRequest struct {
	FileName string `json:"file_name" validate:"required,filename"`
	Size     int64  `json:"size" validate:"gt=0"`
}

// FileValidator checks uploaded workbooks before they reach the loader
type FileValidator struct {
	validator *Validator
	maxBytes  int64
	logger    *slog.Logger
}

// NewFileValidator creates a file validator. A non-positive maxBytes disables
// the size check.
func NewFileValidator(v *Validator, maxBytes int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = New(logger)
	}
	return &FileValidator{
		validator: v,
		maxBytes:  maxBytes,
		logger:    logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateUpload checks the name, size and leading bytes of an uploaded workbook
func (v *FileValidator) ValidateUpload(fileName string, data []byte) error {
	req := UploadRequest{FileName: fileName, Size: int64(len(data))}
	if err := v.validator.ValidateStruct(req); err != nil {
		return err
	}

	if err := v.ValidateExcelName(fileName); err != nil {
		return err
	}

	if v.maxBytes > 0 && req.Size > v.maxBytes {
		v.logger.Warn("Uploaded workbook too large",
			slog.String("file", fileName),
			slog.Int64("size", req.Size),
			slog.Int64("max_size", v.maxBytes))
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, apierrors.ErrPayloadTooLarge.ErrorCode,
			apierrors.ErrPayloadTooLarge.Message, map[string]interface{}{
				"max_size": v.maxBytes,
				"size":     req.Size,
			})
	}

	if !bytes.HasPrefix(data, zipSignature) {
		v.logger.Warn("Uploaded file is not a zip archive",
			slog.String("file", fileName))
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.ErrUnsupportedFile.ErrorCode,
			apierrors.ErrUnsupportedFile.Message, "file content is not an xlsx workbook")
	}

	v.logger.Debug("Upload validated",
		slog.String("file", fileName),
		slog.Int64("size", req.Size))
	return nil
}

// ValidateExcelName checks the extension and rejects Excel lock files
func (v *FileValidator) ValidateExcelName(fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != WorkbookExtension {
		v.logger.Warn("File is not an xlsx workbook",
			slog.String("file", fileName),
			slog.String("extension", ext))
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.ErrUnsupportedFile.ErrorCode,
			apierrors.ErrUnsupportedFile.Message, map[string]interface{}{
				"file_name": fileName,
				"extension": ext,
			})
	}

	if strings.HasPrefix(filepath.Base(fileName), "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", fileName))
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.ErrUnsupportedFile.ErrorCode,
			"Temporary Excel lock files cannot be loaded", fileName)
	}

	return nil
}
