package duct

import (
    "errors"
    "testing"
)

func TestResolveLocalGeneratesUniqueNames(t *testing.T) {
    a, err := ResolveBindAddress(KindLocal, "")
    if err != nil { t.Fatalf("resolve: %v", err) }
    b, err := ResolveBindAddress(KindLocal, "")
    if err != nil { t.Fatalf("resolve: %v", err) }
    if a.Kind() != KindLocal || a.String() == "" {
        t.Fatalf("bad generated address: %#v", a)
    }
    if a.String() == b.String() {
        t.Fatalf("generated names collide: %q", a.String())
    }
}

func TestResolveLocalKeepsHint(t *testing.T) {
    a, err := ResolveBindAddress(KindLocal, "/tmp/my-duct.sock")
    if err != nil { t.Fatalf("resolve: %v", err) }
    if a.String() != "/tmp/my-duct.sock" {
        t.Fatalf("hint not preserved: %q", a.String())
    }
}

func TestResolveTCPDefaults(t *testing.T) {
    a, err := ResolveBindAddress(KindTCP, "")
    if err != nil { t.Fatalf("resolve: %v", err) }
    if a.String() != "127.0.0.1:0" {
        t.Fatalf("unexpected default tcp address: %q", a.String())
    }
    a, err = ResolveBindAddress(KindTCP, ":9000")
    if err != nil { t.Fatalf("resolve: %v", err) }
    if a.String() != "127.0.0.1:9000" {
        t.Fatalf("interface not defaulted: %q", a.String())
    }
    a, err = ResolveBindAddress(KindTCP, "0.0.0.0:0")
    if err != nil { t.Fatalf("resolve: %v", err) }
    if a.String() != "0.0.0.0:0" {
        t.Fatalf("explicit interface not preserved: %q", a.String())
    }
}

func TestResolveRejectsBadHints(t *testing.T) {
    cases := []struct {
        name string
        kind Kind
        hint string
    }{
        {"blank local name", KindLocal, "   "},
        {"tcp without port", KindTCP, "localhost"},
        {"unknown kind", KindUnknown, ""},
    }
    for _, tc := range cases {
        if _, err := ResolveBindAddress(tc.kind, tc.hint); !errors.Is(err, ErrLocalFault) {
            t.Fatalf("%s: want local fault, got %v", tc.name, err)
        }
    }
}

func TestParseKind(t *testing.T) {
    for in, want := range map[string]Kind{"local": KindLocal, "Unix": KindLocal, "tcp": KindTCP} {
        k, err := ParseKind(in)
        if err != nil || k != want {
            t.Fatalf("ParseKind(%q) = %v, %v", in, k, err)
        }
    }
    if _, err := ParseKind("carrier-pigeon"); !errors.Is(err, ErrLocalFault) {
        t.Fatalf("want local fault for unsupported kind, got %v", err)
    }
}
