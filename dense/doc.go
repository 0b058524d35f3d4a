// Package dense provides an insertion-ordered map backed by a slot array.
//
// Deleted entries leave tombstones in the slot array until compaction, and
// iteration walks the slots in physical order. The binpack codecs encode a
// Map in that order, so two maps built by the same sequence of operations
// always produce the same bytes.
package dense
