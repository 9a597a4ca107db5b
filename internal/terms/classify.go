package terms

import (
	"context"
	"errors"
	"net"
)

// FailureKind is the channel a terms request failed on.
type FailureKind string

const (
	FailureNetwork    FailureKind = "network"
	FailureProtocol   FailureKind = "protocol"
	FailureUnexpected FailureKind = "unexpected"
)

// protocolError is implemented by server-reported errors carrying an error code.
type protocolError interface {
	error
	ErrCode() string
}

// Classify maps a failed terms request to its failure channel.
// Callers collapse all three into one user-facing error; the kind is for logs and metrics.
func Classify(err error) FailureKind {
	var pe protocolError
	if errors.As(err, &pe) {
		return FailureProtocol
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}
	return FailureUnexpected
}
