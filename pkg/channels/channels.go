// Package channels holds small generic helpers for channels shared between
// real-time producers (audio callbacks) and slower consumers.
package channels

import (
	"errors"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelFull   = errors.New("channel full")
)
