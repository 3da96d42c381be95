package duct

import (
    "go.uber.org/zap"
)

type ductOptions struct {
    logger      *zap.Logger
    serialize   Serializer
    deserialize Deserializer
    maxMessage  int
}

func defaultDuctOptions() ductOptions {
    return ductOptions{
        logger:      zap.NewNop(),
        serialize:   defaultSerializer,
        deserialize: defaultDeserializer,
        maxMessage:  DefaultMaxMessageSize,
    }
}

// Option customizes duct construction.
type Option func(*ductOptions)

// WithLogger attaches a zap logger to the duct for debug tracing.
func WithLogger(l *zap.Logger) Option {
    return func(o *ductOptions) {
        if l != nil {
            o.logger = l
        }
    }
}

// WithSerializer replaces the outgoing serializer (default: UTF-8 JSON).
func WithSerializer(s Serializer) Option {
    return func(o *ductOptions) { o.serialize = s }
}

// WithDeserializer replaces the incoming deserializer (default: UTF-8 JSON).
func WithDeserializer(d Deserializer) Option {
    return func(o *ductOptions) { o.deserialize = d }
}

// WithMaxMessageSize bounds the serialized size of a single message in
// bytes. Sends above the bound fail fast with a local fault before any
// bytes are written.
func WithMaxMessageSize(n int) Option {
    return func(o *ductOptions) {
        if n > 0 {
            o.maxMessage = n
        }
    }
}

func applyOptions(opts []Option) ductOptions {
    o := defaultDuctOptions()
    for _, fn := range opts {
        fn(&o)
    }
    return o
}
