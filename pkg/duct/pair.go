package duct

import (
    "time"
)

// pairHandshakeTimeout bounds the in-process bind/connect/accept
// sequence; both endpoints live in this process, so anything slower
// than this is a fault, not load.
const pairHandshakeTimeout = 10 * time.Second

// CreatePseudoAnonymousDuctPair returns two already-connected message
// ducts over a uniquely named local socket, suitable as a drop-in for
// an inherited anonymous socket pair. It composes the full
// bind → publish-address → connect → accept sequence locally.
func CreatePseudoAnonymousDuctPair(opts ...Option) (*MessageDuctParent, *MessageDuctChild, error) {
    return createPair(KindLocal, opts)
}

// CreatePseudoAnonymousTCPDuctPair is the loopback-TCP variant of
// CreatePseudoAnonymousDuctPair, for hosts where filesystem-named
// sockets are unavailable or filtered.
func CreatePseudoAnonymousTCPDuctPair(opts ...Option) (*MessageDuctParent, *MessageDuctChild, error) {
    return createPair(KindTCP, opts)
}

func createPair(kind Kind, opts []Option) (*MessageDuctParent, *MessageDuctChild, error) {
    parent, err := ListenParentDuct(kind, "", opts...)
    if err != nil {
        return nil, nil, err
    }
    child, err := ConnectChildDuct(parent.ListenerAddr(), pairHandshakeTimeout, opts...)
    if err != nil {
        _ = parent.Close()
        return nil, nil, err
    }
    ok, err := parent.Accept(pairHandshakeTimeout)
    if err == nil && !ok {
        err = commErr("pair", errTimedOut{})
    }
    if err != nil {
        _ = parent.Close()
        _ = child.Close()
        return nil, nil, err
    }
    return parent, child, nil
}

type errTimedOut struct{}

func (errTimedOut) Error() string { return "timed out waiting for local peer" }
