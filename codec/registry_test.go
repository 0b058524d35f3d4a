package codec

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/dense"
	binerrors "github.com/wippyai/binpack/errors"
)

type Left struct {
	Name  string
	Right *Right
}

type Right struct {
	Count int32
	Left  *Left
	Lefts []Left
}

type withChan struct {
	Name string
	Feed chan int
}

type withTime struct {
	At time.Time
}

type withAny struct {
	Items []any
}

type withSlotMapField struct {
	Index SlotMap
}

// Catalog embeds a slot map; its own fields must still be encoded.
type Catalog struct {
	dense.Map[string, int]
	Name string
}

type Inventory struct {
	Stock   dense.Map[string, int32]
	Aliases *dense.Map[int64, string]
}

func TestRegistry_CachesCodec(t *testing.T) {
	r := NewRegistry()
	typ := reflect.TypeFor[Order]()

	c1, err := r.Codec(typ)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := r.Codec(typ)
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Error("second lookup returned a different codec")
	}
	if c1.Type() != typ || c1.Shape() != ShapeObject {
		t.Errorf("Type=%v Shape=%s", c1.Type(), c1.Shape())
	}

	st := r.Stats()
	if st.Misses != 1 || st.Hits != 1 {
		t.Errorf("Hits=%d Misses=%d", st.Hits, st.Misses)
	}
	if st.Compiled < 5 {
		t.Errorf("Compiled = %d, nested codecs should be published too", st.Compiled)
	}

	nested, err := r.Codec(reflect.TypeFor[[]Line]())
	if err != nil {
		t.Fatal(err)
	}
	if r.Stats().Misses != 1 {
		t.Error("nested codec was not published with its root")
	}
	_ = nested
}

func TestRegistry_Shapes(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		typ  reflect.Type
		want Shape
	}{
		{reflect.TypeFor[int16](), ShapeUnmanaged},
		{reflect.TypeFor[string](), ShapeText},
		{reflect.TypeFor[*int](), ShapeOptional},
		{reflect.TypeFor[[]string](), ShapeSequence},
		{reflect.TypeFor[func(func(int) bool)](), ShapeIterable},
		{reflect.TypeFor[map[int]int](), ShapeMap},
		{reflect.TypeFor[*dense.Map[int, int]](), ShapeMap},
		{reflect.TypeFor[*Line](), ShapeObject},
	}
	for _, tt := range tests {
		c, err := r.Codec(tt.typ)
		if err != nil {
			t.Fatalf("Codec(%s): %v", tt.typ, err)
		}
		if c.Shape() != tt.want {
			t.Errorf("Codec(%s).Shape() = %s, want %s", tt.typ, c.Shape(), tt.want)
		}
	}
}

func TestRegistry_String(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[[]int32](), "sequence<unmanaged(int32)>"},
		{reflect.TypeFor[*string](), "text(*string)"},
		{reflect.TypeFor[map[string]*int](), "map<text(string), optional<unmanaged(int)>>"},
		{reflect.TypeFor[[2]string](), "sequence[2]<text(string)>"},
		{reflect.TypeFor[*Node](), "object(*codec.Node)"},
	}
	for _, tt := range tests {
		c, err := r.Codec(tt.typ)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRegistry_MutualRecursion(t *testing.T) {
	v := &Left{
		Name: "root",
		Right: &Right{
			Count: 2,
			Left:  &Left{Name: "inner"},
			Lefts: []Left{{Name: "a"}, {Name: "b", Right: &Right{Count: 1}}},
		},
	}
	got := roundTrip(t, NewRegistry(), v)
	if !reflect.DeepEqual(got, v) {
		t.Errorf("got %+v", got)
	}
}

func TestRegistry_ConcurrentBuild(t *testing.T) {
	r := NewRegistry()
	typ := reflect.TypeFor[*Node]()

	const workers = 32
	codecs := make([]Codec, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			c, err := r.Codec(typ)
			if err != nil {
				t.Error(err)
				return
			}
			codecs[i] = c
		}(i)
	}
	close(start)
	wg.Wait()

	for i, c := range codecs {
		if c != codecs[0] {
			t.Fatalf("worker %d got a different codec instance", i)
		}
	}

	st := r.Stats()
	if st.Compiled+st.Discarded < 1 || st.Hits+st.Misses != workers {
		t.Errorf("stats = %+v", st)
	}

	got := roundTrip(t, r, &Node{Value: 1, Children: []*Node{{Value: 2}}})
	if got.Children[0].Value != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestRegistry_BuildErrors(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		typ  reflect.Type
		want error
		path string
	}{
		{reflect.TypeFor[any](), binerrors.ErrUnsupportedType, ""},
		{reflect.TypeFor[chan int](), binerrors.ErrUnsupportedType, ""},
		{reflect.TypeFor[func() int](), binerrors.ErrUnsupportedType, ""},
		{reflect.TypeFor[withChan](), binerrors.ErrUnsupportedType, "Feed"},
		{reflect.TypeFor[*withChan](), binerrors.ErrUnsupportedType, "Feed"},
		{reflect.TypeFor[withAny](), binerrors.ErrUnsupportedType, "Items[]"},
		{reflect.TypeFor[map[string]any](), binerrors.ErrUnsupportedType, "{value}"},
		{reflect.TypeFor[SlotMap](), binerrors.ErrUnsupportedType, ""},
		{reflect.TypeFor[withSlotMapField](), binerrors.ErrUnsupportedType, "Index"},
		{reflect.TypeFor[time.Time](), binerrors.ErrConstruction, ""},
		{reflect.TypeFor[withTime](), binerrors.ErrConstruction, "At"},
		{reflect.TypeFor[[]*withTime](), binerrors.ErrConstruction, "[].At"},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			_, err := r.Codec(tt.typ)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.path != "" && !strings.Contains(err.Error(), " at "+tt.path) {
				t.Errorf("error %q does not name path %q", err, tt.path)
			}
		})
	}
}

func TestRegistry_FailureMemoized(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRegistryWithConfig(Config{Logger: zap.New(core)})
	typ := reflect.TypeFor[withChan]()

	_, err1 := r.Codec(typ)
	_, err2 := r.Codec(typ)
	if err1 == nil || err1 != err2 {
		t.Fatalf("errors differ: %v / %v", err1, err2)
	}
	if st := r.Stats(); st.Failed != 1 || st.Compiled != 0 {
		t.Errorf("stats = %+v", st)
	}
	if n := logs.FilterMessage("codec build failed").Len(); n != 1 {
		t.Errorf("logged %d build failures, want 1", n)
	}
}

func TestRegistry_LogsCompiledCodec(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRegistryWithConfig(Config{Logger: zap.New(core)})
	if _, err := r.Codec(reflect.TypeFor[Line]()); err != nil {
		t.Fatal(err)
	}
	entries := logs.FilterMessage("compiled codec").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if got := entries[0].ContextMap()["type"]; got != "codec.Line" {
		t.Errorf("type field = %v", got)
	}
}

func TestRegistry_NilType(t *testing.T) {
	if _, err := NewRegistry().Codec(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestRegistry_EncodeDecodeAny(t *testing.T) {
	r := NewRegistry()
	b := buffer.New(0)
	if err := r.Encode(b, sampleOrder()); err != nil {
		t.Fatal(err)
	}

	var got Order
	if err := r.Decode(buffer.NewCursor(b.Bytes()), &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, sampleOrder()) {
		t.Errorf("got %+v", got)
	}

	if err := r.Encode(b, nil); err == nil {
		t.Error("Encode(nil) succeeded")
	}
	if err := r.Decode(buffer.NewCursor(nil), got); err == nil {
		t.Error("Decode into non-pointer succeeded")
	}
	var nilPtr *Order
	if err := r.Decode(buffer.NewCursor(nil), nilPtr); err == nil {
		t.Error("Decode into nil pointer succeeded")
	}
}

func TestSlotMapRoundTrip(t *testing.T) {
	inv := Inventory{Aliases: dense.New[int64, string](0)}
	inv.Stock.Set("bolt", 10)
	inv.Stock.Set("nut", 0)
	inv.Stock.Set("gear", 3)
	inv.Stock.Delete("nut")
	inv.Aliases.Set(2, "two")
	inv.Aliases.Set(1, "one")

	got := roundTrip(t, NewRegistry(), inv)
	if keys := got.Stock.Keys(); !reflect.DeepEqual(keys, []string{"bolt", "gear"}) {
		t.Errorf("Stock keys = %v", keys)
	}
	if v, _ := got.Stock.Get("gear"); v != 3 {
		t.Errorf("Stock[gear] = %d", v)
	}
	if keys := got.Aliases.Keys(); !reflect.DeepEqual(keys, []int64{2, 1}) {
		t.Errorf("Aliases keys = %v, slot order must be kept", keys)
	}

	empty := roundTrip(t, NewRegistry(), Inventory{})
	if empty.Aliases != nil || empty.Stock.Len() != 0 {
		t.Errorf("empty inventory = %+v", empty)
	}
}

func TestSlotMapMatchesMapBytes(t *testing.T) {
	if !HostLittleEndian {
		t.Skip("expected bytes assume a little-endian host")
	}
	m := dense.New[string, int32](0)
	m.Set("a", 1)
	m.Set("b", 2)
	if got, want := marshalHex(t, m), marshalHex(t, map[string]int32{"a": 1, "b": 2}); got != want {
		t.Errorf("slot map %s != map %s", got, want)
	}
	if got := marshalHex[*dense.Map[string, int32]](t, nil); got != "ffffffff" {
		t.Errorf("nil slot map = %s", got)
	}
}

func TestEmbeddedSlotMapKeepsFields(t *testing.T) {
	r := NewRegistry()
	c, err := r.Codec(reflect.TypeFor[Catalog]())
	if err != nil {
		t.Fatal(err)
	}
	if c.Shape() != ShapeObject {
		t.Fatalf("shape = %s, want object", c.Shape())
	}

	var catalog Catalog
	catalog.Set("a", 1)
	catalog.Set("b", 2)
	catalog.Name = "kept"

	got := roundTrip(t, r, catalog)
	if got.Name != "kept" {
		t.Errorf("Name = %q, want %q", got.Name, "kept")
	}
	if keys := got.Keys(); !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("keys = %v", keys)
	}

	ptr := roundTrip(t, r, &catalog)
	if ptr == nil || ptr.Name != "kept" || ptr.Len() != 2 {
		t.Errorf("pointer form = %+v", ptr)
	}
}
