// Package apperr provides structured error handling for ctxd.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Validation errors
//   - 2XX: Existence errors (not found, already exists)
//   - 3XX: Storage errors
//   - 4XX: Embedding and external service errors
//   - 5XX: Internal errors
package apperr

// Category defines error categories for classification.
type Category string

const (
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryExistence indicates not-found and already-exists errors.
	CategoryExistence Category = "EXISTENCE"
	// CategoryStorage indicates persistence-layer errors.
	CategoryStorage Category = "STORAGE"
	// CategoryEmbedding indicates embedding and external service errors.
	CategoryEmbedding Category = "EMBEDDING"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Validation errors (100-199)
	CodeInvalidInput     = "ERR_101_INVALID_INPUT"
	CodeInvalidConfig    = "ERR_102_INVALID_CONFIG"
	CodeInvalidReference = "ERR_103_INVALID_REFERENCE"

	// Existence errors (200-299)
	CodeContextNotFound  = "ERR_201_CONTEXT_NOT_FOUND"
	CodeChunksNotFound   = "ERR_202_CHUNKS_NOT_FOUND"
	CodeAlreadyExists    = "ERR_203_CONTEXT_ALREADY_EXISTS"

	// Storage errors (300-399)
	CodeStorage       = "ERR_301_STORAGE"
	CodeStorageLocked = "ERR_302_STORAGE_LOCKED"

	// Embedding / external errors (400-499)
	CodeEmbedding       = "ERR_401_EMBEDDING"
	CodeExternalService = "ERR_402_EXTERNAL_SERVICE"

	// Internal errors (500-599)
	CodeInternal = "ERR_501_INTERNAL"
	CodeUnknown  = "ERR_502_UNKNOWN"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryValidation
	case '2':
		return CategoryExistence
	case '3':
		return CategoryStorage
	case '4':
		return CategoryEmbedding
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code. Existence failures are
// expected outcomes of normal operation; everything else is an error.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryExistence, CategoryValidation:
		return SeverityWarning
	case CategoryInternal:
		return SeverityFatal
	default:
		return SeverityError
	}
}
