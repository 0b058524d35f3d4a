package shape

type Kind uint8

const (
	Unmanaged Kind = iota
	Text
	Optional
	Sequence
	Iterable
	Map
	Object
)

var kindNames = [...]string{
	Unmanaged: "unmanaged",
	Text:      "text",
	Optional:  "optional",
	Sequence:  "sequence",
	Iterable:  "iterable",
	Map:       "map",
	Object:    "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// HasPrefix reports whether values of this kind start with a 4-byte length prefix.
func (k Kind) HasPrefix() bool {
	switch k {
	case Text, Sequence, Iterable, Map:
		return true
	default:
		return false
	}
}
