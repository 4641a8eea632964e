package domain

import "errors"

var (
	// ErrMalformedDate is returned when a date is not a valid YYYY-MM-DD calendar date.
	ErrMalformedDate = errors.New("malformed date")
	// ErrInvalidArgument marks programmer or client errors such as a negative ranking size.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDataUnavailable wraps every data store failure so callers can tell it apart from empty data.
	ErrDataUnavailable = errors.New("data unavailable")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrExportNotFound  = errors.New("export not found")
)
