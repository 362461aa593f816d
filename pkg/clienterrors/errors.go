// Package clienterrors defines the error taxonomy surfaced to callers of the
// verikv client: transport failures are translated into a small set of typed
// sentinels instead of leaking raw RPC status strings.
package clienterrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers should use errors.Is against these, not string
// matching, since the underlying transport message is still attached via %w.
var (
	// ErrKeyNotFound is returned when the server reports a key lookup miss.
	ErrKeyNotFound = errors.New("key not found")

	// ErrTxNotFound is returned when the server reports an unknown transaction id.
	ErrTxNotFound = errors.New("tx not found")

	// ErrCorruptedData indicates the server returned a structurally invalid
	// response (wrong entry count, malformed header, etc).
	ErrCorruptedData = errors.New("corrupted data")

	// ErrVerification indicates a cryptographic proof failed to validate.
	// It is fatal to the operation and never advances local state.
	ErrVerification = errors.New("verification failed")

	// ErrInvalidOperation indicates programmer error: calling an operation
	// before open, opening twice, etc.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Wrap attaches additional context to a sentinel while preserving errors.Is.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// FromTransport classifies a raw transport error per spec §7.1: known
// substrings are translated to the matching sentinel, everything else is
// surfaced unchanged.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "key not found"):
		return Wrap(ErrKeyNotFound, "%s", err.Error())
	case strings.Contains(msg, "tx not found"):
		return Wrap(ErrTxNotFound, "%s", err.Error())
	default:
		return err
	}
}
