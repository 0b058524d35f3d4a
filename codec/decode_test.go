package codec

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	binerrors "github.com/wippyai/binpack/errors"
)

var (
	errInvalidData = &binerrors.Error{Phase: binerrors.PhaseDecode, Kind: binerrors.KindInvalidData}
	errInvalidUTF8 = &binerrors.Error{Phase: binerrors.PhaseDecode, Kind: binerrors.KindInvalidUTF8}
	errOverflow    = &binerrors.Error{Phase: binerrors.PhaseDecode, Kind: binerrors.KindOverflow}
)

func prefix(n int32) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(n))
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func unmarshalErr[T any](r *Registry, data []byte) error {
	c, err := For[T](r)
	if err != nil {
		return err
	}
	_, err = c.Unmarshal(data)
	return err
}

func TestDecodeErrors(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"negative sequence count", unmarshalErr[[]int32](r, prefix(-2)), binerrors.ErrMalformedLength},
		{"absent string", unmarshalErr[string](r, prefix(-1)), binerrors.ErrMalformedLength},
		{"negative nullable text", unmarshalErr[*string](r, prefix(-5)), binerrors.ErrMalformedLength},
		{"negative map count", unmarshalErr[map[string]int](r, prefix(-3)), binerrors.ErrMalformedLength},
		{"absent array", unmarshalErr[[2]string](r, prefix(-1)), binerrors.ErrMalformedLength},
		{"short unmanaged", unmarshalErr[int64](r, []byte{1, 2, 3}), binerrors.ErrTruncatedInput},
		{"short bulk", unmarshalErr[[]int32](r, cat(prefix(3), prefix(1))), binerrors.ErrTruncatedInput},
		{"short text", unmarshalErr[string](r, cat(prefix(5), []byte("abc"))), binerrors.ErrTruncatedInput},
		{"huge count", unmarshalErr[[]string](r, prefix(1<<20)), binerrors.ErrTruncatedInput},
		{"huge map", unmarshalErr[map[int32]int32](r, prefix(1<<20)), binerrors.ErrTruncatedInput},
		{"empty input", unmarshalErr[Order](r, nil), binerrors.ErrTruncatedInput},
		{"missing prefix", unmarshalErr[[]byte](r, []byte{1, 0}), binerrors.ErrTruncatedInput},
		{"bad flag", unmarshalErr[*int](r, []byte{2}), errInvalidData},
		{"bad record flag", unmarshalErr[*Line](r, []byte{7}), errInvalidData},
		{"array length", unmarshalErr[[2]string](r, cat(prefix(3), prefix(0), prefix(0), prefix(0))), errInvalidData},
		{"trailing bytes", unmarshalErr[int32](r, []byte{1, 0, 0, 0, 9}), errInvalidData},
		{"bool byte", unmarshalErr[bool](r, []byte{2}), errInvalidData},
		{"bool in raw record", unmarshalErr[flagged](r, []byte{1, 0, 0, 0, 3, 0, 0, 0}), errInvalidData},
		{"bool in bulk sequence", unmarshalErr[[]bool](r, cat(prefix(2), []byte{1, 7})), errInvalidData},
		{"bool in array", unmarshalErr[[]flagged](r, cat(prefix(1), []byte{0, 0, 0, 0, 0xff, 0, 0, 0})), errInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Fatalf("err = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

type flagged struct {
	N  int32
	On bool
}

func TestDecodeBoolBytes(t *testing.T) {
	got, err := Must[[]flagged](NewRegistry()).Unmarshal(cat(prefix(2), []byte{1, 0, 0, 0, 1, 0, 0, 0}, []byte{2, 0, 0, 0, 0, 0, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].On || got[1].On || got[1].N != 2 {
		t.Errorf("got %+v", got)
	}

	err = unmarshalErr[[]bool](NewRegistry(), cat(prefix(3), []byte{0, 1, 2}))
	var be *binerrors.Error
	if !errors.As(err, &be) || len(be.Path) != 1 || be.Path[0] != "[2]" {
		t.Errorf("err = %v, want invalid data at [2]", err)
	}
}

func TestDecodeErrorPath(t *testing.T) {
	data := cat(
		prefix(2),
		prefix(1), []byte("a"), prefix(1), make([]byte, 8),
		prefix(-4), make([]byte, 12),
	)
	err := unmarshalErr[[]Line](NewRegistry(), data)

	var be *binerrors.Error
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *errors.Error", err)
	}
	if be.Kind != binerrors.KindMalformedLength {
		t.Errorf("Kind = %s", be.Kind)
	}
	want := []string{"[1]", "Sku"}
	if len(be.Path) != 2 || be.Path[0] != want[0] || be.Path[1] != want[1] {
		t.Errorf("Path = %v, want %v", be.Path, want)
	}
}

func TestDecodeMaxLength(t *testing.T) {
	r := NewRegistryWithConfig(Config{MaxLength: 4})
	if err := unmarshalErr[[]byte](r, cat(prefix(5), make([]byte, 5))); !errors.Is(err, errOverflow) {
		t.Errorf("err = %v, want overflow", err)
	}
	if err := unmarshalErr[[]byte](r, cat(prefix(4), make([]byte, 4))); err != nil {
		t.Errorf("count at limit rejected: %v", err)
	}
}

// skipped encodes to nothing but still takes memory when decoded.
type skipped struct {
	X [4]int64 `binpack:"-"`
	Y *string  `binpack:"-"`
}

func TestDecodeZeroWidthElementsBounded(t *testing.T) {
	r := NewRegistry()
	if err := unmarshalErr[[]skipped](r, prefix(1<<24)); !errors.Is(err, errOverflow) {
		t.Errorf("err = %v, want overflow", err)
	}

	got, err := Must[[]skipped](r).Unmarshal(prefix(3))
	if err != nil || len(got) != 3 {
		t.Fatalf("small count: len=%d err=%v", len(got), err)
	}

	small := NewRegistryWithConfig(Config{MaxLength: 64})
	if err := unmarshalErr[[]skipped](small, prefix(2)); !errors.Is(err, errOverflow) {
		t.Errorf("err = %v, want overflow above the byte budget", err)
	}
	if err := unmarshalErr[[]skipped](small, prefix(1)); err != nil {
		t.Errorf("count within budget rejected: %v", err)
	}
	if err := unmarshalErr[[]struct{}](small, prefix(64)); err != nil {
		t.Errorf("zero-size elements rejected: %v", err)
	}
}

func TestDecodeValidateUTF8(t *testing.T) {
	data := cat(prefix(2), []byte{0xff, 0xfe})

	if err := unmarshalErr[string](NewRegistry(), data); err != nil {
		t.Errorf("lenient registry rejected bytes: %v", err)
	}

	strict := NewRegistryWithConfig(Config{ValidateUTF8: true})
	if err := unmarshalErr[string](strict, data); !errors.Is(err, errInvalidUTF8) {
		t.Errorf("err = %v, want invalid utf8", err)
	}
}

func TestMapDecodeUnsupported(t *testing.T) {
	r := NewRegistryWithConfig(Config{MapDecode: MapDecodeUnsupported})
	c := Must[map[string]int](r)

	data, err := c.Marshal(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("encode must still work: %v", err)
	}
	if _, err := c.Unmarshal(data); !errors.Is(err, binerrors.ErrNotImplemented) {
		t.Fatalf("err = %v, want not implemented", err)
	}

	for _, m := range []map[string]int{nil, {}} {
		data, _ := c.Marshal(m)
		got, err := c.Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal(%x): %v", data, err)
		}
		if (got == nil) != (m == nil) {
			t.Errorf("nil-ness not preserved for %v", m)
		}
	}
}

func TestTruncationNeverPanics(t *testing.T) {
	c := Must[Order](NewRegistry())
	data, err := c.Marshal(sampleOrder())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < len(data); i++ {
		if _, err := c.Unmarshal(data[:i]); !errors.Is(err, binerrors.ErrTruncatedInput) {
			t.Fatalf("prefix of %d bytes: err = %v, want truncated input", i, err)
		}
	}
}

func TestGarbageNeverPanics(t *testing.T) {
	c := Must[Order](NewRegistry())
	nodes := Must[*Node](NewRegistry())
	rng := rand.New(rand.NewSource(1))

	buf := make([]byte, 256)
	for i := 0; i < 2000; i++ {
		n := rng.Intn(len(buf))
		rng.Read(buf[:n])
		_, _ = c.Unmarshal(buf[:n])
		_, _ = nodes.Unmarshal(buf[:n])
	}
}
