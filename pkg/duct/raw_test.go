package duct

import (
    "errors"
    "testing"
    "time"
)

func mustResolve(t *testing.T, kind Kind) Addr {
    t.Helper()
    a, err := ResolveBindAddress(kind, "")
    if err != nil { t.Fatalf("resolve: %v", err) }
    return a
}

func rawHandshake(t *testing.T, kind Kind) (*RawDuctParent, *RawDuctChild) {
    t.Helper()
    parent := NewRawDuctParent(mustResolve(t, kind))
    if err := parent.Bind(); err != nil { t.Fatalf("bind: %v", err) }
    if err := parent.Listen(); err != nil { t.Fatalf("listen: %v", err) }
    child := NewRawDuctChild()
    if err := child.Connect(parent.ListenerAddr(), 5*time.Second); err != nil {
        t.Fatalf("connect: %v", err)
    }
    ok, err := parent.Accept(5 * time.Second)
    if err != nil { t.Fatalf("accept: %v", err) }
    if !ok { t.Fatalf("accept timed out with peer connected") }
    return parent, child
}

func TestRawHandshakeLocal(t *testing.T) {
    parent, child := rawHandshake(t, KindLocal)
    defer parent.Close()
    defer child.Close()

    pc, err := parent.Conn()
    if err != nil { t.Fatalf("parent conn: %v", err) }
    cc, err := child.Conn()
    if err != nil { t.Fatalf("child conn: %v", err) }

    if _, err := cc.Write([]byte("ping")); err != nil { t.Fatalf("write: %v", err) }
    buf := make([]byte, 4)
    if _, err := pc.Read(buf); err != nil { t.Fatalf("read: %v", err) }
    if string(buf) != "ping" { t.Fatalf("got %q", buf) }
}

func TestRawHandshakeTCPResolvesPort(t *testing.T) {
    parent, child := rawHandshake(t, KindTCP)
    defer parent.Close()
    defer child.Close()

    if parent.BindAddr().String() != "127.0.0.1:0" {
        t.Fatalf("bind addr mutated: %q", parent.BindAddr().String())
    }
    la := parent.ListenerAddr()
    if la.String() == "127.0.0.1:0" || la.String() == "" {
        t.Fatalf("ephemeral port not resolved: %q", la.String())
    }
}

func TestParentStateEnforcement(t *testing.T) {
    parent := NewRawDuctParent(mustResolve(t, KindLocal))
    defer parent.Close()

    if err := parent.Listen(); !errors.Is(err, ErrStateMisuse) {
        t.Fatalf("listen before bind: want state misuse, got %v", err)
    }
    if _, err := parent.Accept(0); !errors.Is(err, ErrStateMisuse) {
        t.Fatalf("accept before listen: want state misuse, got %v", err)
    }
    if _, err := parent.Conn(); !errors.Is(err, ErrStateMisuse) {
        t.Fatalf("conn before connect: want state misuse, got %v", err)
    }
    if err := parent.Bind(); err != nil { t.Fatalf("bind: %v", err) }
    if err := parent.Bind(); !errors.Is(err, ErrStateMisuse) {
        t.Fatalf("double bind: want state misuse, got %v", err)
    }
    if parent.State() != StateBound {
        t.Fatalf("state = %s, want bound", parent.State())
    }
}

func TestChildStateEnforcement(t *testing.T) {
    parent, child := rawHandshake(t, KindLocal)
    defer parent.Close()
    defer child.Close()

    if err := child.Connect(parent.ListenerAddr(), time.Second); !errors.Is(err, ErrStateMisuse) {
        t.Fatalf("double connect: want state misuse, got %v", err)
    }
    if err := child.Close(); err != nil { t.Fatalf("close: %v", err) }
    if _, err := child.Conn(); !errors.Is(err, ErrStateMisuse) {
        t.Fatalf("conn after close: want state misuse, got %v", err)
    }
}

func TestAcceptImmediateTimeout(t *testing.T) {
    parent := NewRawDuctParent(mustResolve(t, KindLocal))
    defer parent.Close()
    if err := parent.Bind(); err != nil { t.Fatalf("bind: %v", err) }
    if err := parent.Listen(); err != nil { t.Fatalf("listen: %v", err) }

    ok, err := parent.Accept(0)
    if err != nil { t.Fatalf("accept: %v", err) }
    if ok { t.Fatalf("accept reported a peer with nobody connecting") }
    if parent.State() != StateListening {
        t.Fatalf("state = %s after timed-out accept, want listening", parent.State())
    }
}

func TestConnectUnreachable(t *testing.T) {
    child := NewRawDuctChild()
    defer child.Close()
    addr := mustResolve(t, KindLocal) // never bound
    if err := child.Connect(addr, time.Second); !errors.Is(err, ErrCommunicationFault) {
        t.Fatalf("want communication fault, got %v", err)
    }
}

func TestCloseIdempotentFromEveryState(t *testing.T) {
    fresh := NewRawDuctParent(mustResolve(t, KindLocal))
    if err := fresh.Close(); err != nil { t.Fatalf("close created: %v", err) }
    if err := fresh.Close(); err != nil { t.Fatalf("second close: %v", err) }

    bound := NewRawDuctParent(mustResolve(t, KindLocal))
    if err := bound.Bind(); err != nil { t.Fatalf("bind: %v", err) }
    if err := bound.Close(); err != nil { t.Fatalf("close bound: %v", err) }

    parent, child := rawHandshake(t, KindLocal)
    if err := parent.Close(); err != nil { t.Fatalf("close connected: %v", err) }
    if err := parent.Close(); err != nil { t.Fatalf("second close connected: %v", err) }
    if err := child.Close(); err != nil { t.Fatalf("close child: %v", err) }
    if err := child.Close(); err != nil { t.Fatalf("second close child: %v", err) }
    if parent.State() != StateClosed || child.State() != StateClosed {
        t.Fatalf("states = %s/%s, want closed", parent.State(), child.State())
    }
}

func TestBindAddressInUse(t *testing.T) {
    first := NewRawDuctParent(mustResolve(t, KindTCP))
    if err := first.Bind(); err != nil { t.Fatalf("bind: %v", err) }
    defer first.Close()

    second := NewRawDuctParent(first.ListenerAddr())
    defer second.Close()
    if err := second.Bind(); !errors.Is(err, ErrLocalFault) {
        t.Fatalf("want local fault for address in use, got %v", err)
    }
}
