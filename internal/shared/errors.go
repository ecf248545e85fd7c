package shared

import "errors"

var (
	// ErrValidation indicates input with a bad shape or range.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSKU occurs when a product SKU already exists.
	ErrDuplicateSKU = errors.New("duplicate sku")
	// ErrImmutableField occurs on an attempt to change a frozen field.
	ErrImmutableField = errors.New("immutable field")
	// ErrInsufficientStock occurs when a sale asks for more than is on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrReferentialIntegrity occurs when a delete would orphan sale history.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	// ErrStorageInit occurs when the schema cannot be created.
	ErrStorageInit = errors.New("storage initialization failed")
	// ErrTxAborted occurs when a storage transaction rolled back.
	ErrTxAborted = errors.New("transaction aborted")
	// ErrExportIO occurs when the export target cannot be written.
	ErrExportIO = errors.New("export io failure")
)
