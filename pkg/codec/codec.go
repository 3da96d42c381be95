package codec

import "sort"

// Codec marshals message payloads for transfer over a duct. Both ends
// must agree on the codec out-of-band; the duct layer only moves the
// resulting bytes.
type Codec interface {
    ContentType() string
    Marshal(v any) ([]byte, error)
    Unmarshal(data []byte, v any) error
}

// Registry maps content types to codecs.
type Registry struct{ byType map[string]Codec }

// NewRegistry constructs a registry preloaded with the built-in codecs
// that need no initialization: JSON and Protobuf. CBOR can be added
// explicitly via Register(CBOR()).
func NewRegistry() *Registry {
    r := &Registry{byType: make(map[string]Codec)}
    r.Register(JSON())
    r.Register(Proto())
    return r
}

// Register adds a codec, replacing any previous one of the same type.
func (r *Registry) Register(c Codec) { r.byType[c.ContentType()] = c }

// Get returns a codec by content type, or nil.
func (r *Registry) Get(contentType string) Codec { return r.byType[contentType] }

// ContentTypes lists registered content types, sorted.
func (r *Registry) ContentTypes() []string {
    out := make([]string, 0, len(r.byType))
    for ct := range r.byType {
        out = append(out, ct)
    }
    sort.Strings(out)
    return out
}
