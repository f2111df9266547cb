package pipelineconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Ordered is a YAML mapping that remembers key order. Feature, dataset,
// score and profile order all matter downstream (merge order, column order),
// so plain Go maps cannot be used.
type Ordered[T any] struct {
	keys   []string
	values map[string]T
}

// NewOrdered returns an empty mapping
func NewOrdered[T any]() Ordered[T] {
	return Ordered[T]{values: make(map[string]T)}
}

// Set appends key, or replaces its value keeping the original position
func (o *Ordered[T]) Set(key string, v T) {
	if o.values == nil {
		o.values = make(map[string]T)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key
func (o Ordered[T]) Get(key string) (T, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns keys in document order
func (o Ordered[T]) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of entries
func (o Ordered[T]) Len() int {
	return len(o.keys)
}

// UnmarshalYAML decodes a mapping node, keeping key order. A null node
// decodes to an empty mapping. Values are decoded strictly: unknown fields
// in nested structs are errors.
func (o *Ordered[T]) UnmarshalYAML(node *yaml.Node) error {
	*o = NewOrdered[T]()
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		if _, dup := o.values[key]; dup {
			return fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
		}
		var v T
		if err := decodeStrict(valNode, &v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		o.Set(key, v)
	}
	return nil
}

// MarshalJSON writes entries in key order, keeping Hash deterministic
func (o Ordered[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeStrict re-encodes node and decodes it with KnownFields, since
// yaml.Node.Decode does not carry the parent decoder's strictness
func decodeStrict(node *yaml.Node, out interface{}) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}
