package duct

import (
    "errors"
    "fmt"
    "io"
)

// Fault sentinels classify duct failures. Every error returned by this
// package matches exactly one of them under errors.Is, so callers can
// dispatch on the class of fault without matching message strings.
var (
    // ErrLocalFault covers malformed configuration, invalid addresses,
    // oversized outgoing messages and OS-level resource errors.
    ErrLocalFault = errors.New("duct: local fault")
    // ErrCommunicationFault covers transport failures that are not a
    // clean peer close (reset, unreachable, broken pipe mid-write).
    // The duct is unusable afterwards and should be closed.
    ErrCommunicationFault = errors.New("duct: communication fault")
    // ErrStateMisuse is returned when an operation is called from a
    // state that forbids it. Always a caller bug, never retried.
    ErrStateMisuse = errors.New("duct: operation invalid for state")
    // ErrProtocolFault covers framing and deserialization
    // inconsistencies (bad tag byte, truncated frame, undecodable
    // payload). The stream can no longer be trusted.
    ErrProtocolFault = errors.New("duct: protocol fault")
)

// ErrRemoteClosed signals that the peer cleanly closed the connection
// with no partial frame pending. It wraps io.EOF so that receive loops
// can treat it like exhaustion of any input stream.
var ErrRemoteClosed = fmt.Errorf("duct: remote closed: %w", io.EOF)

// Error is the concrete error type returned by duct operations. It
// carries the fault class, the operation that detected it and an
// optional underlying cause; errors.Is matches both.
type Error struct {
    Fault error // one of the Err* sentinels above
    Op    string
    Err   error
}

func (e *Error) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("duct: %s: %v", e.Op, e.Err)
    }
    return fmt.Sprintf("duct: %s", e.Op)
}

func (e *Error) Unwrap() []error {
    if e.Err != nil {
        return []error{e.Fault, e.Err}
    }
    return []error{e.Fault}
}

func localErr(op string, err error) error {
    return &Error{Fault: ErrLocalFault, Op: op, Err: err}
}

func localErrf(op, format string, args ...any) error {
    return &Error{Fault: ErrLocalFault, Op: op, Err: fmt.Errorf(format, args...)}
}

func commErr(op string, err error) error {
    return &Error{Fault: ErrCommunicationFault, Op: op, Err: err}
}

func stateErr(op string, s State) error {
    return &Error{Fault: ErrStateMisuse, Op: op, Err: fmt.Errorf("not allowed in state %s", s)}
}

func protocolErrf(op, format string, args ...any) error {
    return &Error{Fault: ErrProtocolFault, Op: op, Err: fmt.Errorf(format, args...)}
}
