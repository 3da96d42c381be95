// Package duct implements bidirectional, message-oriented channels
// ("ducts") over stream sockets, for processes that cannot inherit a
// pre-forked anonymous socket pair (exec boundaries, separate hosts).
//
// Layers:
//   - RawDuctParent/RawDuctChild: socket lifecycle. The parent binds,
//     listens and accepts exactly one connection; the child connects to
//     the address the parent publishes. Each owns one socket and walks
//     an explicit state machine.
//   - MessageDuctParent/MessageDuctChild: length-prefixed framing over
//     a connected raw duct, with pluggable serialization. One Send is
//     one frame; one Recv is one whole message, however the underlying
//     stream chunks the bytes.
//
// Two transports are supported: local-named (unix sockets, or named
// pipes on Windows) and TCP. CreatePseudoAnonymousDuctPair wires both
// ends together in-process as a drop-in for an anonymous socket pair.
package duct
