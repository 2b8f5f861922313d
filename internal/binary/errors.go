package binary

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedWireData     = errors.New("binary: malformed wire data")
	ErrUnknownType           = errors.New("binary: unknown type")
	ErrDuplicateTypeIdentity = errors.New("binary: duplicate type identity")
	ErrInvalidClass          = errors.New("binary: invalid class")
)

// UnknownTypeError reports a discriminator with no registered class.
type UnknownTypeError struct {
	ID ID
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("binary: unknown type id=%s", e.ID)
}

func (e UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// DuplicateTypeIdentityError reports two different classes claiming one identity.
type DuplicateTypeIdentityError struct {
	ID       ID
	Existing string
	Incoming string
}

func (e DuplicateTypeIdentityError) Error() string {
	return fmt.Sprintf(
		"binary: duplicate type identity id=%s existing=%s incoming=%s",
		e.ID,
		e.Existing,
		e.Incoming,
	)
}

func (e DuplicateTypeIdentityError) Is(target error) bool {
	return target == ErrDuplicateTypeIdentity
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedWireData, fmt.Sprintf(format, args...))
}
