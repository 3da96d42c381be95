package duct

import (
    "encoding/binary"
    "errors"
    "io"
    "net"
    "time"

    "go.uber.org/zap"
)

// Wire format, big-endian: one tag byte, a 4-byte unsigned payload
// length, then the payload. One Send produces exactly one frame; one
// Recv consumes exactly one.
const (
    // protocolTag marks a ductworks-framed stream ('T'). A mismatch
    // means the stream is desynchronized or the peer is not a duct,
    // and is caught before the length field is trusted.
    protocolTag     = 0x54
    frameHeaderSize = 5
)

// DefaultMaxMessageSize bounds a single serialized message (16 MiB).
// Override per duct with WithMaxMessageSize.
const DefaultMaxMessageSize = 1 << 24

// immediatePollWindow approximates a zero-timeout readability check:
// the kernel gets one minimal deadline window to surface already
// buffered bytes.
const immediatePollWindow = time.Millisecond

const readChunkSize = 32 * 1024

// frameCore is the framing state shared by both message duct variants:
// serialize-and-frame on send, buffer-and-deframe on recv. It assumes
// single-threaded use, matching the duct contract.
type frameCore struct {
    serialize   Serializer
    deserialize Deserializer
    maxMessage  int
    rbuf        []byte // unconsumed bytes accumulated across partial reads
    eof         bool   // clean peer close observed
    log         *zap.Logger
}

func newFrameCore(o ductOptions) frameCore {
    return frameCore{
        serialize:   o.serialize,
        deserialize: o.deserialize,
        maxMessage:  o.maxMessage,
        log:         o.logger,
    }
}

func (f *frameCore) send(conn net.Conn, v any) error {
    payload, err := f.serialize(v)
    if err != nil {
        return localErr("serialize message", err)
    }
    if len(payload) > f.maxMessage {
        return localErrf("send", "message of %d bytes exceeds limit of %d", len(payload), f.maxMessage)
    }
    frame := make([]byte, frameHeaderSize+len(payload))
    frame[0] = protocolTag
    binary.BigEndian.PutUint32(frame[1:frameHeaderSize], uint32(len(payload)))
    copy(frame[frameHeaderSize:], payload)
    if _, err := conn.Write(frame); err != nil {
        return commErr("send", err)
    }
    return nil
}

// frameReady inspects the read buffer: it returns the payload length
// and true once a whole frame is buffered, and fails on a bad tag or an
// implausible length before the length field is used for allocation.
func (f *frameCore) frameReady() (int, bool, error) {
    if len(f.rbuf) == 0 {
        return 0, false, nil
    }
    if f.rbuf[0] != protocolTag {
        return 0, false, protocolErrf("recv", "bad protocol tag 0x%02x, want 0x%02x", f.rbuf[0], protocolTag)
    }
    if len(f.rbuf) < frameHeaderSize {
        return 0, false, nil
    }
    n := int(binary.BigEndian.Uint32(f.rbuf[1:frameHeaderSize]))
    if n > f.maxMessage {
        return 0, false, protocolErrf("recv", "frame length %d exceeds limit of %d", n, f.maxMessage)
    }
    if len(f.rbuf) < frameHeaderSize+n {
        return n, false, nil
    }
    return n, true, nil
}

func (f *frameCore) consume(n int) (any, error) {
    payload := append([]byte(nil), f.rbuf[frameHeaderSize:frameHeaderSize+n]...)
    f.rbuf = f.rbuf[frameHeaderSize+n:]
    if len(f.rbuf) == 0 {
        f.rbuf = nil
    }
    v, err := f.deserialize(payload)
    if err != nil {
        return nil, protocolErrf("deserialize message", "%v", err)
    }
    return v, nil
}

func (f *frameCore) recv(conn net.Conn) (any, error) {
    // A previous poll may have left a read deadline behind.
    _ = conn.SetReadDeadline(time.Time{})
    buf := make([]byte, readChunkSize)
    for {
        n, ok, err := f.frameReady()
        if err != nil {
            return nil, err
        }
        if ok {
            return f.consume(n)
        }
        if f.eof {
            if len(f.rbuf) == 0 {
                f.log.Debug("duct remote closed")
                return nil, ErrRemoteClosed
            }
            return nil, protocolErrf("recv", "remote closed mid-frame with %d bytes pending", len(f.rbuf))
        }
        k, err := conn.Read(buf)
        if k > 0 {
            f.rbuf = append(f.rbuf, buf[:k]...)
        }
        if err != nil {
            if errors.Is(err, io.EOF) {
                f.eof = true
                continue
            }
            return nil, commErr("recv", err)
        }
    }
}

// poll reports whether a recv would complete without blocking past
// timeout. Partial bytes are retained in the read buffer, so repeated
// polls never change what recv returns. A closed peer also reads as
// ready, mirroring select(2); the subsequent recv reports the close.
func (f *frameCore) poll(conn net.Conn, timeout time.Duration) (bool, error) {
    if _, ok, err := f.frameReady(); err != nil {
        return false, err
    } else if ok {
        return true, nil
    }
    if f.eof {
        return true, nil
    }
    switch {
    case timeout == 0:
        _ = conn.SetReadDeadline(time.Now().Add(immediatePollWindow))
    case timeout > 0:
        _ = conn.SetReadDeadline(time.Now().Add(timeout))
    default:
        _ = conn.SetReadDeadline(time.Time{})
    }
    buf := make([]byte, readChunkSize)
    for {
        k, err := conn.Read(buf)
        if k > 0 {
            f.rbuf = append(f.rbuf, buf[:k]...)
        }
        if err != nil {
            var ne net.Error
            if errors.As(err, &ne) && ne.Timeout() {
                return false, nil
            }
            if errors.Is(err, io.EOF) {
                f.eof = true
                return true, nil
            }
            return false, commErr("poll", err)
        }
        if _, ok, err := f.frameReady(); err != nil {
            return false, err
        } else if ok {
            return true, nil
        }
    }
}

// MessageDuctParent frames messages over a RawDuctParent it exclusively
// owns. The connection-establishment calls (Bind, Listen, Accept) pass
// through to the raw duct; Send, Recv and Poll require the Connected
// state and behave identically on both duct variants.
type MessageDuctParent struct {
    raw  *RawDuctParent
    core frameCore
}

// NewMessageDuctParent wraps a raw parent duct, taking ownership of it.
func NewMessageDuctParent(raw *RawDuctParent, opts ...Option) *MessageDuctParent {
    return &MessageDuctParent{raw: raw, core: newFrameCore(applyOptions(opts))}
}

// ListenParentDuct resolves a bind address for the given transport,
// then builds, binds and listens a message duct in one call. The
// returned duct's ListenerAddr is ready to publish to a child.
func ListenParentDuct(kind Kind, hint string, opts ...Option) (*MessageDuctParent, error) {
    addr, err := ResolveBindAddress(kind, hint)
    if err != nil {
        return nil, err
    }
    d := NewMessageDuctParent(NewRawDuctParent(addr, opts...), opts...)
    if err := d.Bind(); err != nil {
        return nil, err
    }
    if err := d.Listen(); err != nil {
        _ = d.Close()
        return nil, err
    }
    return d, nil
}

func (d *MessageDuctParent) Bind() error     { return d.raw.Bind() }
func (d *MessageDuctParent) Listen() error   { return d.raw.Listen() }
func (d *MessageDuctParent) State() State    { return d.raw.State() }
func (d *MessageDuctParent) BindAddr() Addr  { return d.raw.BindAddr() }

// ListenerAddr is the concrete post-bind address to hand to the child
// out-of-band (environment, pipe, argv).
func (d *MessageDuctParent) ListenerAddr() Addr { return d.raw.ListenerAddr() }

// Accept completes the connection phase; see RawDuctParent.Accept.
func (d *MessageDuctParent) Accept(timeout time.Duration) (bool, error) {
    return d.raw.Accept(timeout)
}

// Send serializes v and writes it as one frame.
func (d *MessageDuctParent) Send(v any) error {
    conn, err := d.raw.Conn()
    if err != nil {
        return err
    }
    return d.core.send(conn, v)
}

// Recv blocks until one whole frame arrives and returns its decoded
// value. A clean peer close surfaces as ErrRemoteClosed.
func (d *MessageDuctParent) Recv() (any, error) {
    conn, err := d.raw.Conn()
    if err != nil {
        return nil, err
    }
    return d.core.recv(conn)
}

// Poll reports whether Recv would complete without blocking past
// timeout, without consuming buffered data.
func (d *MessageDuctParent) Poll(timeout time.Duration) (bool, error) {
    conn, err := d.raw.Conn()
    if err != nil {
        return false, err
    }
    return d.core.poll(conn, timeout)
}

// Close closes the underlying raw duct. Idempotent.
func (d *MessageDuctParent) Close() error { return d.raw.Close() }

// MessageDuctChild frames messages over a RawDuctChild it exclusively
// owns. Connect passes through to the raw duct; after that the duct is
// symmetric with the parent side.
type MessageDuctChild struct {
    raw  *RawDuctChild
    core frameCore
}

// NewMessageDuctChild wraps a raw child duct, taking ownership of it.
func NewMessageDuctChild(raw *RawDuctChild, opts ...Option) *MessageDuctChild {
    return &MessageDuctChild{raw: raw, core: newFrameCore(applyOptions(opts))}
}

// ConnectChildDuct builds a message duct and connects it to the address
// published by a parent.
func ConnectChildDuct(addr Addr, timeout time.Duration, opts ...Option) (*MessageDuctChild, error) {
    d := NewMessageDuctChild(NewRawDuctChild(opts...), opts...)
    if err := d.Connect(addr, timeout); err != nil {
        return nil, err
    }
    return d, nil
}

func (d *MessageDuctChild) State() State       { return d.raw.State() }
func (d *MessageDuctChild) ConnectAddr() Addr  { return d.raw.ConnectAddr() }

// Connect completes the connection phase; see RawDuctChild.Connect.
func (d *MessageDuctChild) Connect(addr Addr, timeout time.Duration) error {
    return d.raw.Connect(addr, timeout)
}

// Send serializes v and writes it as one frame.
func (d *MessageDuctChild) Send(v any) error {
    conn, err := d.raw.Conn()
    if err != nil {
        return err
    }
    return d.core.send(conn, v)
}

// Recv blocks until one whole frame arrives and returns its decoded
// value. A clean peer close surfaces as ErrRemoteClosed.
func (d *MessageDuctChild) Recv() (any, error) {
    conn, err := d.raw.Conn()
    if err != nil {
        return nil, err
    }
    return d.core.recv(conn)
}

// Poll reports whether Recv would complete without blocking past
// timeout, without consuming buffered data.
func (d *MessageDuctChild) Poll(timeout time.Duration) (bool, error) {
    conn, err := d.raw.Conn()
    if err != nil {
        return false, err
    }
    return d.core.poll(conn, timeout)
}

// Close closes the underlying raw duct. Idempotent.
func (d *MessageDuctChild) Close() error { return d.raw.Close() }
