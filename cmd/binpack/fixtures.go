package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sample types the inspector knows how to build from YAML.

type Order struct {
	ID       int64            `yaml:"id" json:"id"`
	Customer string           `yaml:"customer" json:"customer"`
	Note     *string          `yaml:"note" json:"note"`
	Lines    []Line           `yaml:"lines" json:"lines"`
	Tags     map[string]int32 `yaml:"tags" json:"tags"`
}

type Line struct {
	Sku   string  `yaml:"sku" json:"sku"`
	Qty   int32   `yaml:"qty" json:"qty"`
	Price float64 `yaml:"price" json:"price"`
}

type Telemetry struct {
	Source  string   `yaml:"source" json:"source"`
	Samples []Sample `yaml:"samples" json:"samples"`
}

// Sample is fixed-layout and travels as raw bytes.
type Sample struct {
	At    int64   `yaml:"at" json:"at"`
	Value float64 `yaml:"value" json:"value"`
}

type Tree struct {
	Name     string  `yaml:"name" json:"name"`
	Weight   int32   `yaml:"weight" json:"weight"`
	Children []*Tree `yaml:"children" json:"children"`
}

type sampleType struct {
	decode func(n *yaml.Node) (any, error)
}

var sampleTypes = map[string]sampleType{
	"order":     sampleOf[Order](),
	"telemetry": sampleOf[Telemetry](),
	"tree":      sampleOf[Tree](),
}

func sampleOf[T any]() sampleType {
	return sampleType{
		decode: func(n *yaml.Node) (any, error) {
			var v T
			if n.Kind != 0 {
				if err := n.Decode(&v); err != nil {
					return nil, err
				}
			}
			return v, nil
		},
	}
}

func sampleTypeNames() []string {
	names := make([]string, 0, len(sampleTypes))
	for name := range sampleTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fixture is one named sample value.
type Fixture struct {
	Name  string
	Type  string
	Value any
}

type fixtureFile struct {
	Fixtures []fixtureEntry `yaml:"fixtures"`
}

type fixtureEntry struct {
	Name  string    `yaml:"name"`
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// parseFixtures decodes a YAML fixture document.
func parseFixtures(data []byte) ([]Fixture, error) {
	var doc fixtureFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	seen := make(map[string]bool, len(doc.Fixtures))
	out := make([]Fixture, 0, len(doc.Fixtures))
	for i, e := range doc.Fixtures {
		if e.Name == "" {
			return nil, fmt.Errorf("fixture %d: missing name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("fixture %q: duplicate name", e.Name)
		}
		seen[e.Name] = true

		st, ok := sampleTypes[e.Type]
		if !ok {
			return nil, fmt.Errorf("fixture %q: unknown type %q (want one of %s)",
				e.Name, e.Type, strings.Join(sampleTypeNames(), ", "))
		}
		v, err := st.decode(&e.Value)
		if err != nil {
			return nil, fmt.Errorf("fixture %q: %w", e.Name, err)
		}
		out = append(out, Fixture{Name: e.Name, Type: e.Type, Value: v})
	}
	return out, nil
}

func loadFixtures(path string) ([]Fixture, error) {
	if path == "" {
		return parseFixtures([]byte(builtinFixtures))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return parseFixtures(data)
}

// selectFixtures keeps fixtures of the given type (empty means any) whose
// names are listed (no names means all).
func selectFixtures(all []Fixture, typ string, names []string) ([]Fixture, error) {
	if typ != "" {
		if _, ok := sampleTypes[typ]; !ok {
			return nil, fmt.Errorf("unknown type %q (want one of %s)", typ, strings.Join(sampleTypeNames(), ", "))
		}
	}
	found := make(map[string]bool, len(names))
	for _, n := range names {
		found[n] = false
	}

	var out []Fixture
	for _, f := range all {
		if typ != "" && f.Type != typ {
			continue
		}
		if _, listed := found[f.Name]; len(names) > 0 && !listed {
			continue
		}
		found[f.Name] = true
		out = append(out, f)
	}
	for _, n := range names {
		if !found[n] {
			return nil, fmt.Errorf("fixture %q not found", n)
		}
	}
	return out, nil
}

const builtinFixtures = `
fixtures:
  - name: empty-order
    type: order
    value:
      id: 1
  - name: small-order
    type: order
    value:
      id: 7
      customer: ada
      note: leave at the door
      lines:
        - {sku: A-100, qty: 2, price: 9.5}
        - {sku: B-200, qty: 1, price: 120}
      tags: {priority: 2, gift: 1}
  - name: telemetry
    type: telemetry
    value:
      source: sensor-3
      samples:
        - {at: 1700000000, value: 21.5}
        - {at: 1700000060, value: 21.75}
        - {at: 1700000120, value: 22}
        - {at: 1700000180, value: 21.25}
  - name: tree
    type: tree
    value:
      name: root
      weight: 3
      children:
        - name: left
          weight: 1
        - name: right
          weight: 2
          children:
            - {name: leaf, weight: 1}
`
