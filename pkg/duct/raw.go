package duct

import (
    "net"
    "time"

    "go.uber.org/zap"
)

// State is the lifecycle position of a raw duct. Parents walk
// Created → Bound → Listening → Connected → Closed; children walk
// Created → Connected → Closed. Closed is terminal.
type State int

const (
    StateCreated State = iota
    StateBound
    StateListening
    StateConnected
    StateClosed
)

func (s State) String() string {
    switch s {
    case StateCreated:
        return "created"
    case StateBound:
        return "bound"
    case StateListening:
        return "listening"
    case StateConnected:
        return "connected"
    case StateClosed:
        return "closed"
    default:
        return "invalid"
    }
}

// Timeout conventions for Accept, Connect and Poll: a negative timeout
// blocks until completion, zero checks and returns immediately, and a
// positive value bounds the wait.

type acceptResult struct {
    conn net.Conn
    err  error
}

// RawDuctParent owns the listening side of a duct: it binds a stream
// socket, listens, and accepts exactly one peer connection. The
// listening socket is disposed of once a connection completes; a duct
// is a single logical channel, never a server.
type RawDuctParent struct {
    state      State
    bindAddr   Addr
    listenAddr Addr
    ln         net.Listener
    conn       net.Conn
    accepts    chan acceptResult
    log        *zap.Logger
}

// NewRawDuctParent creates a parent duct that will bind to the given
// resolved address. See ResolveBindAddress.
func NewRawDuctParent(bind Addr, opts ...Option) *RawDuctParent {
    o := applyOptions(opts)
    return &RawDuctParent{state: StateCreated, bindAddr: bind, log: o.logger}
}

// State returns the current lifecycle state.
func (d *RawDuctParent) State() State { return d.state }

// BindAddr returns the address the caller asked to bind. It may differ
// from ListenerAddr in the resolved port or interface.
func (d *RawDuctParent) BindAddr() Addr { return d.bindAddr }

// ListenerAddr returns the concrete address a child should connect to.
// Valid after Bind.
func (d *RawDuctParent) ListenerAddr() Addr { return d.listenAddr }

// Bind allocates the listening socket and binds it, transitioning
// Created → Bound and resolving the listener address.
func (d *RawDuctParent) Bind() error {
    if d.state != StateCreated {
        return stateErr("bind", d.state)
    }
    var ln net.Listener
    var err error
    switch d.bindAddr.Kind() {
    case KindLocal:
        ln, err = listenLocal(d.bindAddr.String())
    case KindTCP:
        ln, err = net.Listen("tcp", d.bindAddr.String())
    default:
        return localErrf("bind", "unsupported transport kind %d", d.bindAddr.Kind())
    }
    if err != nil {
        return localErr("bind", err)
    }
    d.ln = ln
    d.listenAddr = publicAddress(d.bindAddr.Kind(), ln)
    d.state = StateBound
    d.log.Debug("duct bound", zap.String("addr", d.listenAddr.String()))
    return nil
}

// Listen transitions Bound → Listening and starts waiting for the one
// incoming connection. Must precede Accept.
func (d *RawDuctParent) Listen() error {
    if d.state != StateBound {
        return stateErr("listen", d.state)
    }
    d.accepts = make(chan acceptResult, 1)
    go func(ln net.Listener, out chan<- acceptResult) {
        c, err := ln.Accept()
        out <- acceptResult{conn: c, err: err}
    }(d.ln, d.accepts)
    d.state = StateListening
    return nil
}

// Accept waits up to timeout for the peer to connect. It returns true
// once the duct is connected and false if the timeout elapsed first;
// an error is returned only for genuine faults, never for a timeout.
// On success the listening socket is closed and the duct owns the
// accepted connection.
func (d *RawDuctParent) Accept(timeout time.Duration) (bool, error) {
    if d.state != StateListening {
        return false, stateErr("accept", d.state)
    }
    switch {
    case timeout == 0:
        select {
        case r := <-d.accepts:
            return d.completeAccept(r)
        default:
            return false, nil
        }
    case timeout < 0:
        return d.completeAccept(<-d.accepts)
    default:
        t := time.NewTimer(timeout)
        defer t.Stop()
        select {
        case r := <-d.accepts:
            return d.completeAccept(r)
        case <-t.C:
            return false, nil
        }
    }
}

func (d *RawDuctParent) completeAccept(r acceptResult) (bool, error) {
    if r.err != nil {
        return false, commErr("accept", r.err)
    }
    d.conn = r.conn
    _ = d.ln.Close()
    d.ln = nil
    d.state = StateConnected
    d.log.Debug("duct accepted peer", zap.String("peer", r.conn.RemoteAddr().String()))
    return true, nil
}

// Conn exposes the connected socket. Valid only in the Connected state.
func (d *RawDuctParent) Conn() (net.Conn, error) {
    if d.state != StateConnected {
        return nil, stateErr("use connection", d.state)
    }
    return d.conn, nil
}

// Close releases the socket(s) from any state. Idempotent.
func (d *RawDuctParent) Close() error {
    if d.state == StateClosed {
        return nil
    }
    if d.ln != nil {
        _ = d.ln.Close()
        d.ln = nil
    }
    if d.accepts != nil {
        // A connection may have raced in between Accept and Close.
        select {
        case r := <-d.accepts:
            if r.conn != nil {
                _ = r.conn.Close()
            }
        default:
        }
        d.accepts = nil
    }
    if d.conn != nil {
        _ = d.conn.Close()
        d.conn = nil
    }
    d.state = StateClosed
    return nil
}

// RawDuctChild owns the connecting side of a duct: it opens one stream
// connection to the address published by a parent.
type RawDuctChild struct {
    state State
    addr  Addr
    conn  net.Conn
    log   *zap.Logger
}

// NewRawDuctChild creates an unconnected child duct.
func NewRawDuctChild(opts ...Option) *RawDuctChild {
    o := applyOptions(opts)
    return &RawDuctChild{state: StateCreated, log: o.logger}
}

// State returns the current lifecycle state.
func (d *RawDuctChild) State() State { return d.state }

// ConnectAddr returns the address Connect was called with.
func (d *RawDuctChild) ConnectAddr() Addr { return d.addr }

// Connect opens a stream connection to addr, transitioning
// Created → Connected. A timeout <= 0 lets the dial block on the OS
// default.
func (d *RawDuctChild) Connect(addr Addr, timeout time.Duration) error {
    if d.state != StateCreated {
        return stateErr("connect", d.state)
    }
    var c net.Conn
    var err error
    switch addr.Kind() {
    case KindLocal:
        c, err = dialLocal(addr.String(), timeout)
    case KindTCP:
        if timeout <= 0 {
            c, err = net.Dial("tcp", addr.String())
        } else {
            c, err = net.DialTimeout("tcp", addr.String(), timeout)
        }
    default:
        return localErrf("connect", "unsupported transport kind %d", addr.Kind())
    }
    if err != nil {
        return commErr("connect", err)
    }
    d.addr = addr
    d.conn = c
    d.state = StateConnected
    d.log.Debug("duct connected", zap.String("addr", addr.String()))
    return nil
}

// Conn exposes the connected socket. Valid only in the Connected state.
func (d *RawDuctChild) Conn() (net.Conn, error) {
    if d.state != StateConnected {
        return nil, stateErr("use connection", d.state)
    }
    return d.conn, nil
}

// Close releases the socket from any state. Idempotent.
func (d *RawDuctChild) Close() error {
    if d.state == StateClosed {
        return nil
    }
    if d.conn != nil {
        _ = d.conn.Close()
        d.conn = nil
    }
    d.state = StateClosed
    return nil
}
