package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyResult       = errors.New("empty result")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrSinkFailure       = errors.New("sink failure")
)
