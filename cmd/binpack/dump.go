package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/term"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wippyai/binpack"
)

// report describes the encoding of one fixture.
type report struct {
	Fixture Fixture
	Codec   string
	Data    []byte
	Digest  [32]byte
	Sizes   []formatSize
}

type formatSize struct {
	Format string
	Bytes  int
	Err    error
}

// inspect encodes f, decodes it back and checks the result matches.
func inspect(e *binpack.Engine, f Fixture, compare bool) (*report, error) {
	t := reflect.TypeOf(f.Value)
	c, err := e.Registry().Codec(t)
	if err != nil {
		return nil, err
	}

	data, err := e.Marshal(f.Value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.Name, err)
	}

	back := reflect.New(t)
	if err := e.Unmarshal(data, back.Interface()); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name, err)
	}
	if !reflect.DeepEqual(back.Elem().Interface(), f.Value) {
		return nil, fmt.Errorf("round trip %s: decoded value differs", f.Name)
	}

	r := &report{
		Fixture: f,
		Codec:   c.String(),
		Data:    data,
		Digest:  blake3.Sum256(data),
	}
	if compare {
		r.Sizes = compareSizes(f.Value, len(data))
	}
	return r, nil
}

var canonicalCBOR cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	canonicalCBOR = em
}

// compareSizes encodes v with the general-purpose formats for reference.
func compareSizes(v any, binpackSize int) []formatSize {
	sizes := []formatSize{{Format: "binpack", Bytes: binpackSize}}

	cb, err := canonicalCBOR.Marshal(v)
	sizes = append(sizes, formatSize{Format: "cbor", Bytes: len(cb), Err: err})

	js, err := json.Marshal(v)
	sizes = append(sizes, formatSize{Format: "json", Bytes: len(js), Err: err})

	pb, err := protoSize(js)
	sizes = append(sizes, formatSize{Format: "protobuf", Bytes: pb, Err: err})

	return sizes
}

// protoSize measures the value as a google.protobuf.Value built from its
// JSON form, the closest schema-less protobuf rendition.
func protoSize(js []byte) (int, error) {
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return 0, err
	}
	pv, err := structpb.NewValue(generic)
	if err != nil {
		return 0, err
	}
	out, err := proto.Marshal(pv)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}

func (r *report) header() string {
	return fmt.Sprintf("%s/%s  %s  %d bytes  blake3:%s",
		r.Fixture.Type, r.Fixture.Name, r.Codec, len(r.Data), hex.EncodeToString(r.Digest[:8]))
}

func (r *report) sizeTable() string {
	if len(r.Sizes) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %8s %7s\n", "format", "bytes", "ratio")
	base := r.Sizes[0].Bytes
	for _, s := range r.Sizes {
		if s.Err != nil {
			fmt.Fprintf(&b, "%-10s %8s %v\n", s.Format, "-", s.Err)
			continue
		}
		ratio := 0.0
		if base > 0 {
			ratio = float64(s.Bytes) / float64(base)
		}
		fmt.Fprintf(&b, "%-10s %8d %7.2f\n", s.Format, s.Bytes, ratio)
	}
	return b.String()
}

// bytesPerLine picks how many bytes fit on a hex dump line of the given width.
// Each byte takes three columns in the hex part and one in the text part.
func bytesPerLine(width int) int {
	const overhead = 8 + 2 + 2 + 2
	n := (width - overhead) / 4
	n -= n % 8
	switch {
	case n < 8:
		return 8
	case n > 32:
		return 32
	}
	return n
}

// hexDump formats data as offset, hex bytes and printable text.
func hexDump(data []byte, perLine int) string {
	if perLine <= 0 {
		perLine = 16
	}
	var b strings.Builder
	for off := 0; off < len(data); off += perLine {
		end := min(off+perLine, len(data))
		row := data[off:end]

		fmt.Fprintf(&b, "%08x  ", off)
		for i := 0; i < perLine; i++ {
			if i > 0 && i%8 == 0 {
				b.WriteByte(' ')
			}
			if i < len(row) {
				fmt.Fprintf(&b, "%02x ", row[i])
			} else {
				b.WriteString("   ")
			}
		}
		b.WriteString(" |")
		for _, c := range row {
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}
	return b.String()
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
