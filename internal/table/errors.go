package table

import "errors"

// Common errors returned by table operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, table.ErrMissingColumn) {
//	    // Handle a table that lacks a required field
//	}
var (
	// ErrMissingColumn is returned when a required canonical field cannot
	// be resolved in a loaded table, even after trying its synonyms and a
	// case-insensitive scan.
	ErrMissingColumn = errors.New("required column not found")

	// ErrUnknownColumn is returned by strict filtering when a predicate
	// names a field the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoHeader is returned when an input file has no header row.
	ErrNoHeader = errors.New("input has no header row")
)
