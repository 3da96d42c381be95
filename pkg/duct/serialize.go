package duct

import (
    "github.com/cope-systems/ductworks/pkg/codec"
)

// Serializer turns a value into the payload bytes of one frame.
type Serializer func(v any) ([]byte, error)

// Deserializer turns one frame's payload bytes back into a value.
type Deserializer func(data []byte) (any, error)

// CodecSerializer adapts a codec.Codec to a Serializer.
func CodecSerializer(c codec.Codec) Serializer {
    return c.Marshal
}

// CodecDeserializer adapts a codec.Codec to a Deserializer decoding
// into a generic value.
func CodecDeserializer(c codec.Codec) Deserializer {
    return func(data []byte) (any, error) {
        var v any
        if err := c.Unmarshal(data, &v); err != nil {
            return nil, err
        }
        return v, nil
    }
}

// The default pair encodes UTF-8 JSON text, which both ends of a duct
// can agree on without out-of-band coordination.
var (
    defaultSerializer   = CodecSerializer(codec.JSON())
    defaultDeserializer = CodecDeserializer(codec.JSON())
)
