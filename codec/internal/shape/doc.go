// Package shape classifies Go types into the closed set of encoding shapes.
//
// Classification looks at one level of a type only: it reports the kind and
// the element, key, value or field types a codec for it has to be composed
// from. Recursive types therefore never make Classify recurse; the codec
// registry walks the graph and breaks cycles itself.
//
// This package is internal to codec.
package shape
