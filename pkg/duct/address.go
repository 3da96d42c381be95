package duct

import (
    "crypto/rand"
    "encoding/hex"
    "net"
    "strings"
)

// Kind identifies the transport a duct address belongs to.
type Kind int

const (
    KindUnknown Kind = iota
    // KindLocal is a filesystem-named stream socket: a unix domain
    // socket, or a named pipe on Windows. Same host only.
    KindLocal
    // KindTCP is a routable host:port stream socket.
    KindTCP
)

func (k Kind) String() string {
    switch k {
    case KindLocal:
        return "local"
    case KindTCP:
        return "tcp"
    default:
        return "unknown"
    }
}

// ParseKind maps a configuration string to a transport Kind.
func ParseKind(s string) (Kind, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "local", "unix", "pipe":
        return KindLocal, nil
    case "tcp":
        return KindTCP, nil
    }
    return KindUnknown, localErrf("parse transport kind", "unsupported transport %q", s)
}

// Addr is a transport-qualified endpoint descriptor. It is immutable
// once returned and satisfies net.Addr.
type Addr struct {
    kind Kind
    addr string
}

// LocalAddr builds a local-named address from a path or pipe name.
func LocalAddr(name string) Addr { return Addr{kind: KindLocal, addr: name} }

// TCPAddr builds a network address from a host:port string.
func TCPAddr(hostport string) Addr { return Addr{kind: KindTCP, addr: hostport} }

func (a Addr) Kind() Kind { return a.kind }

// Network returns the net package network name for the address.
func (a Addr) Network() string {
    if a.kind == KindLocal {
        return localNetwork
    }
    return "tcp"
}

func (a Addr) String() string { return a.addr }

// IsZero reports whether the address has not been resolved yet.
func (a Addr) IsZero() bool { return a.kind == KindUnknown && a.addr == "" }

// ResolveBindAddress turns a transport kind plus an optional hint into
// a concrete bindable address. For the local transport an empty hint
// yields a collision-resistant unique name; for TCP the interface
// defaults to loopback and the port to 0 ("any available"), with the
// actual port assignment deferred to bind.
func ResolveBindAddress(kind Kind, hint string) (Addr, error) {
    switch kind {
    case KindLocal:
        if hint == "" {
            name, err := defaultLocalName()
            if err != nil {
                return Addr{}, localErr("resolve bind address", err)
            }
            return LocalAddr(name), nil
        }
        if strings.TrimSpace(hint) == "" {
            return Addr{}, localErrf("resolve bind address", "blank local socket name")
        }
        return LocalAddr(hint), nil
    case KindTCP:
        if hint == "" {
            return TCPAddr("127.0.0.1:0"), nil
        }
        host, port, err := net.SplitHostPort(hint)
        if err != nil {
            return Addr{}, localErrf("resolve bind address", "malformed host:port %q: %v", hint, err)
        }
        if host == "" {
            host = "127.0.0.1"
        }
        return TCPAddr(net.JoinHostPort(host, port)), nil
    }
    return Addr{}, localErrf("resolve bind address", "unsupported transport kind %d", kind)
}

// publicAddress reads the concrete address a remote connector should
// use back from a bound listener. This is how a requested port of 0
// becomes a discoverable assigned port.
func publicAddress(kind Kind, ln net.Listener) Addr {
    return Addr{kind: kind, addr: ln.Addr().String()}
}

// randomSuffix returns a short collision-resistant hex token for
// generated local socket names.
func randomSuffix() (string, error) {
    var b [8]byte
    if _, err := rand.Read(b[:]); err != nil {
        return "", err
    }
    return hex.EncodeToString(b[:]), nil
}
