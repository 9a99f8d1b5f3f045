package common

import "errors"

// CustomError carries a status code next to the message so callers can branch
// on the class of failure with errors.Is.
type CustomError struct {
	error
	code int
}

func (e CustomError) Code() int {
	return e.code
}

// CorruptionError is reported when bytes that should hold an internal key (or
// a record built from internal keys) cannot be decoded.
var CorruptionError = CustomError{
	error: errors.New("corruption"),
	code:  2,
}

// InvalidArgumentError is reported when a caller hands over a record that is
// well-formed but not acceptable to the operation.
var InvalidArgumentError = CustomError{
	error: errors.New("invalid argument"),
	code:  4,
}
