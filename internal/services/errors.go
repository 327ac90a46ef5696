package services

import "errors"

// Dashboard service errors. Returned errors wrap one of these together with
// the API or application error that describes the failure.
var (
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidUpload    = errors.New("invalid upload")
	ErrWorkbookInvalid  = errors.New("workbook could not be loaded")
)
