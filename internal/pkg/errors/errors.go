package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid")
	ErrConfig       = errors.New("invalid configuration")
	ErrUnavailable  = errors.New("backend unavailable")
	ErrInternal     = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}
