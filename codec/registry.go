package codec

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/shape"
	"github.com/wippyai/binpack/codec/internal/wire"
	"github.com/wippyai/binpack/errors"
)

// MapDecodeMode selects how map payloads are decoded.
type MapDecodeMode uint8

const (
	// MapDecodeEnabled decodes map entries.
	MapDecodeEnabled MapDecodeMode = iota
	// MapDecodeUnsupported fails every non-empty map decode with a
	// not-implemented error instead of producing a map.
	MapDecodeUnsupported
)

// Config tunes a Registry. The zero value is valid.
type Config struct {
	// Logger receives build events. Nil uses the package logger.
	Logger *zap.Logger
	// MaxLength caps every decoded element count. Zero means wire.MaxLength.
	MaxLength int
	// ValidateUTF8 rejects decoded text that is not valid UTF-8.
	ValidateUTF8 bool
	MapDecode    MapDecodeMode
}

// Stats is a snapshot of registry counters.
type Stats struct {
	Compiled  uint64 // codecs published
	Failed    uint64 // top-level builds that failed
	Discarded uint64 // codecs dropped because a concurrent build published first
	Hits      uint64
	Misses    uint64
}

// Registry builds and caches one codec per Go type.
// A Registry is safe for concurrent use; published codecs are never replaced.
type Registry struct {
	cfg    Config
	cache  sync.Map // reflect.Type -> Codec
	failed sync.Map // reflect.Type -> error

	compiled  atomic.Uint64
	failures  atomic.Uint64
	discarded atomic.Uint64
	hits      atomic.Uint64
	misses    atomic.Uint64
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// NewRegistry creates an empty registry with the default configuration.
func NewRegistry() *Registry {
	return NewRegistryWithConfig(Config{})
}

// NewRegistryWithConfig creates an empty registry.
func NewRegistryWithConfig(cfg Config) *Registry {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = wire.MaxLength
	}
	return &Registry{cfg: cfg}
}

// Config returns the registry's effective configuration.
func (r *Registry) Config() Config {
	return r.cfg
}

func (r *Registry) logger() *zap.Logger {
	if r.cfg.Logger != nil {
		return r.cfg.Logger
	}
	return Logger()
}

// Stats returns a snapshot of the registry counters.
func (r *Registry) Stats() Stats {
	return Stats{
		Compiled:  r.compiled.Load(),
		Failed:    r.failures.Load(),
		Discarded: r.discarded.Load(),
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
	}
}

// Codec returns the codec for t, building and publishing it on first use.
// Build failures are remembered; later calls return the same error.
func (r *Registry) Codec(t reflect.Type) (Codec, error) {
	if t == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("type cannot be nil").
			Build()
	}

	if c, ok := r.cache.Load(t); ok {
		r.hits.Add(1)
		return c.(Codec), nil
	}
	if err, ok := r.failed.Load(t); ok {
		r.hits.Add(1)
		return nil, err.(error)
	}
	r.misses.Add(1)

	start := time.Now()
	s := &session{
		r:        r,
		building: make(map[reflect.Type]*forward),
		built:    make(map[reflect.Type]Codec),
	}
	c, err := s.resolve(t)
	if err != nil {
		actual, _ := r.failed.LoadOrStore(t, err)
		r.failures.Add(1)
		r.logger().Warn("codec build failed",
			zap.Stringer("type", t),
			zap.Error(err))
		return nil, actual.(error)
	}

	c = s.publish(t)
	r.logger().Debug("compiled codec",
		zap.Stringer("type", t),
		zap.Stringer("shape", c.Shape()),
		zap.Int("codecs", len(s.order)),
		zap.Duration("duration", time.Since(start)))
	return c, nil
}

// Encode appends the encoding of v, using the codec of v's dynamic type.
func (r *Registry) Encode(b *buffer.Buffer, v any) error {
	if v == nil {
		return errors.NilPointer(errors.PhaseEncode, "<nil>")
	}
	rv := reflect.ValueOf(v)
	c, err := r.Codec(rv.Type())
	if err != nil {
		return err
	}
	tmp := reflect.New(rv.Type())
	tmp.Elem().Set(rv)
	return c.encode(b, tmp.UnsafePointer())
}

// Decode reads one value into the variable ptr points to.
func (r *Registry) Decode(c *buffer.Cursor, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer {
		return errors.TypeMismatch(errors.PhaseDecode, nil, typeName(reflect.TypeOf(ptr)), "non-nil pointer")
	}
	if rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, rv.Type().String())
	}
	cd, err := r.Codec(rv.Type().Elem())
	if err != nil {
		return err
	}
	return cd.decode(c, rv.UnsafePointer())
}

// session builds the codec graph reachable from one top-level type.
// Nothing it builds is visible to other goroutines until publish.
type session struct {
	r        *Registry
	building map[reflect.Type]*forward // nil value: in progress, no back reference yet
	built    map[reflect.Type]Codec
	order    []reflect.Type
}

func (s *session) resolve(t reflect.Type) (Codec, error) {
	if c, ok := s.r.cache.Load(t); ok {
		return c.(Codec), nil
	}
	if c, ok := s.built[t]; ok {
		return c, nil
	}
	if f, inProgress := s.building[t]; inProgress {
		if f == nil {
			info, err := shape.Classify(t)
			if err != nil {
				return nil, err
			}
			f = &forward{typ: t, kind: info.Kind}
			s.building[t] = f
		}
		return f, nil
	}

	s.building[t] = nil
	c, err := s.build(t)
	f := s.building[t]
	delete(s.building, t)
	if err != nil {
		return nil, err
	}
	if f != nil {
		f.target = c
	}
	s.built[t] = c
	s.order = append(s.order, t)
	return c, nil
}

func (s *session) build(t reflect.Type) (Codec, error) {
	info, err := shape.Classify(t)
	if err != nil {
		return nil, err
	}
	cfg := &s.r.cfg

	switch info.Kind {
	case shape.Unmanaged:
		return newUnmanagedCodec(t), nil

	case shape.Text:
		return &textCodec{typ: t, nullable: info.Nullable, validate: cfg.ValidateUTF8}, nil

	case shape.Optional:
		elem, err := s.resolve(info.Elem)
		if err != nil {
			return nil, withPath(err, "*")
		}
		return &optionalCodec{typ: t, elemType: info.Elem, elem: elem}, nil

	case shape.Sequence:
		elem, err := s.resolve(info.Elem)
		if err != nil {
			return nil, withPath(err, "[]")
		}
		return newSequenceCodec(t, info, elem, cfg.MaxLength), nil

	case shape.Iterable:
		seq, err := s.resolve(reflect.SliceOf(info.Elem))
		if err != nil {
			return nil, err
		}
		return &iterableCodec{typ: t, sliceType: reflect.SliceOf(info.Elem), seq: seq}, nil

	case shape.Map:
		key, err := s.resolve(info.Key)
		if err != nil {
			return nil, withPath(err, "{key}")
		}
		val, err := s.resolve(info.Value)
		if err != nil {
			return nil, withPath(err, "{value}")
		}
		if info.Slot {
			return &slotMapCodec{
				typ: t, structType: info.Elem, nullable: info.Nullable,
				key: key, val: val, keyType: info.Key, valType: info.Value,
				maxLen: cfg.MaxLength, mode: cfg.MapDecode,
			}, nil
		}
		return newMapCodec(t, info, key, val, cfg.MaxLength, cfg.MapDecode), nil

	case shape.Object:
		structType := t
		if info.Nullable {
			structType = info.Elem
		}
		fields := make([]objectField, len(info.Fields))
		for i, f := range info.Fields {
			fc, err := s.resolve(f.Type)
			if err != nil {
				return nil, withPath(err, f.Name)
			}
			fields[i] = objectField{name: f.Name, offset: f.Offset, codec: fc}
		}
		return &objectCodec{typ: t, structType: structType, nullable: info.Nullable, fields: fields}, nil

	default:
		return nil, errors.UnsupportedType(nil, t.String(), "unknown shape "+info.Kind.String())
	}
}

// publish makes every codec of the session visible. When another goroutine
// published a type first, its codec is kept and ours is dropped.
func (s *session) publish(root reflect.Type) Codec {
	var result Codec
	for _, t := range s.order {
		c := s.built[t]
		actual, loaded := s.r.cache.LoadOrStore(t, c)
		if loaded {
			s.r.discarded.Add(1)
			s.r.logger().Debug("discarded racing codec build", zap.Stringer("type", t))
		} else {
			s.r.compiled.Add(1)
		}
		if t == root {
			result = actual.(Codec)
		}
	}
	return result
}
