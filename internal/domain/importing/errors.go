package importing

import "errors"

var (
	ErrInvalidFilePath   = errors.New("invalid or missing file path")
	ErrImportConflict    = errors.New("an import is already running")
	ErrJobNotFound       = errors.New("import job not found")
	ErrInvalidBatchSize  = errors.New("batch size out of range")
	ErrInvalidProgressMs = errors.New("progress interval out of range")
	ErrInvalidTotalRows  = errors.New("total rows out of range")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDuplicateEmail    = errors.New("email already in use")
)
