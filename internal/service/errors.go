package service

import (
	"errors"
	"fmt"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/auth"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/store"
)

// Result codes carried by error results.
const (
	CodeMalformed       = "malformed"
	CodeUnknownType     = "unknown_type"
	CodeUnknownCall     = "unknown_call"
	CodeNotFound        = "not_found"
	CodeNotResolvable   = "not_resolvable"
	CodeInvalidArgument = "invalid_argument"
	CodeUnauthorized    = "unauthorized"
	CodeUnsupported     = "unsupported"
	CodeInternal        = "internal"
)

var (
	ErrInvalidPath      = errors.New("service: invalid path")
	ErrNotFound         = errors.New("service: not found")
	ErrNotResolvable    = errors.New("service: path cannot be resolved without replay")
	ErrInvalidArgument  = errors.New("service: invalid argument")
	ErrUnauthorized     = errors.New("service: unauthorized")
	ErrUnsupported      = errors.New("service: call not supported by this server")
	ErrUnexpectedResult = errors.New("service: unexpected result")
	ErrTransportClosed  = errors.New("service: transport closed")
)

var codeErrors = map[string]error{
	CodeNotFound:        ErrNotFound,
	CodeNotResolvable:   ErrNotResolvable,
	CodeInvalidArgument: ErrInvalidArgument,
	CodeUnauthorized:    ErrUnauthorized,
	CodeUnsupported:     ErrUnsupported,
	CodeMalformed:       binary.ErrMalformedWireData,
	CodeUnknownType:     binary.ErrUnknownType,
}

// RemoteError is an error result returned by the service.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("service: remote %s: %s", e.Code, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	sentinel, ok := codeErrors[e.Code]
	return ok && sentinel == target
}

// codeFor maps a resolution error to the code sent back to the client.
func codeFor(err error) string {
	switch {
	case errors.Is(err, binary.ErrUnknownType):
		return CodeUnknownType
	case errors.Is(err, binary.ErrMalformedWireData):
		return CodeMalformed
	case errors.Is(err, store.ErrCaptureNotFound),
		errors.Is(err, atom.ErrIndexOutOfRange),
		errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNotResolvable):
		return CodeNotResolvable
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidPath),
		errors.Is(err, store.ErrInvalidName),
		errors.Is(err, store.ErrEmptyCapture):
		return CodeInvalidArgument
	case errors.Is(err, ErrUnauthorized), errors.Is(err, auth.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrUnsupported):
		return CodeUnsupported
	default:
		return CodeInternal
	}
}
