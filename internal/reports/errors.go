package reports

import "errors"

var (
	// ErrInvalidUpload rejects uploads that are not non-empty PDF files.
	ErrInvalidUpload = errors.New("invalid upload")

	// ErrNotMedicalReport is the business rejection for documents the
	// classifier judged non-medical. Nothing is persisted for them.
	ErrNotMedicalReport = errors.New("document is not a medical report")

	// ErrExtractionFailed wraps terminal structured-extraction failures.
	ErrExtractionFailed = errors.New("structured extraction failed")

	// ErrPersistenceFailed wraps repository write failures.
	ErrPersistenceFailed = errors.New("report persistence failed")

	ErrNotFound  = errors.New("report not found")
	ErrForbidden = errors.New("report owned by another user")
)
