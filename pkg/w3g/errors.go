package w3g

import "fmt"

// ParseError is the base error type for parsing errors.
type ParseError struct {
	Message string
	Offset  *int
}

func (e *ParseError) Error() string {
	if e.Offset != nil {
		return fmt.Sprintf("%s at offset 0x%X", e.Message, *e.Offset)
	}
	return e.Message
}

// InvalidHeaderError indicates invalid or unrecognized header format.
type InvalidHeaderError struct {
	ParseError
}

// DecompressionError indicates failed to decompress data block.
type DecompressionError struct {
	ParseError
}

// TruncatedDataError indicates data was truncated unexpectedly.
type TruncatedDataError struct {
	ParseError
}

func newInvalidHeaderError(msg string) *InvalidHeaderError {
	return &InvalidHeaderError{ParseError{Message: msg}}
}

func newDecompressionError(msg string, offset int) *DecompressionError {
	return &DecompressionError{ParseError{Message: msg, Offset: &offset}}
}

func newTruncatedDataError(msg string, offset int) *TruncatedDataError {
	return &TruncatedDataError{ParseError{Message: msg, Offset: &offset}}
}
