package binpack

import "github.com/wippyai/binpack/codec"

// DefaultCode is the serializer code reported by NewSerializer.
const DefaultCode byte = 0x42

// Serializer adapts binpack to transports that select a payload codec by a
// one-byte code, such as RPC frameworks with pluggable serialization.
type Serializer struct {
	engine *Engine
	code   byte
}

// NewSerializer returns a Serializer on the default registry.
func NewSerializer() *Serializer {
	return NewSerializerWithRegistry(DefaultCode, codec.Default())
}

// NewSerializerWithRegistry returns a Serializer reporting code and compiling
// codecs with reg.
func NewSerializerWithRegistry(code byte, reg *codec.Registry) *Serializer {
	return &Serializer{engine: With(reg), code: code}
}

func (s *Serializer) Code() byte {
	return s.code
}

func (s *Serializer) Encode(val any) ([]byte, error) {
	return s.engine.Marshal(val)
}

// Decode decodes data into val, which must be a non-nil pointer.
func (s *Serializer) Decode(data []byte, val any) error {
	return s.engine.Unmarshal(data, val)
}
