package fabric

import (
	"errors"
	"fmt"
)

// Fabric error codes. All codes are negative.
const (
	CodeInvalidArgument int32 = -1
	CodeChannelNotFound int32 = -2
	CodeChannelIO       int32 = -3
	CodeNoChannel       int32 = -4
	CodeAlreadyExists   int32 = -5
)

var (
	ErrNoChannel     = errors.New("fabric: no channel is open")
	ErrShortRead     = errors.New("fabric: short read")
	ErrShortWrite    = errors.New("fabric: short write")
	ErrUnknownKind   = errors.New("fabric: unknown channel kind")
	ErrInvalidFlags  = errors.New("fabric: channel cannot be both persistent and ephemeral")
	ErrEmptyName     = errors.New("fabric: empty channel name")
	ErrChannelExists = errors.New("fabric: channel is already being written")
	ErrNotFound      = errors.New("fabric: channel not found")
)

// An Error is returned by every failed channel operation.
type Error struct {
	Code    int32
	Channel string
	Err     error
}

func (e *Error) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("fabric: error %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("fabric: channel %s: error %d: %v", e.Channel, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extract the fabric error code from err. Returns 0 if err is nil and
// CodeChannelIO if err does not originate from the fabric.
func Code(err error) int32 {
	if err == nil {
		return 0
	}
	var fabricErr *Error
	if errors.As(err, &fabricErr) {
		return fabricErr.Code
	}
	return CodeChannelIO
}

func newError(code int32, channel string, err error) *Error {
	return &Error{Code: code, Channel: channel, Err: err}
}
