package types

import (
	"encoding/json"
	"fmt"
)

// NamedArg is a single runtime argument
type NamedArg struct {
	Name  string
	Value CLValue
}

// Args is an insertion-ordered set of runtime arguments. Inserting an existing
// name replaces its value in place.
type Args struct {
	items []NamedArg
}

func NewArgs() *Args {
	return &Args{}
}

// Insert sets name to v and returns the receiver for chaining
func (a *Args) Insert(name string, v CLValue) *Args {
	for i := range a.items {
		if a.items[i].Name == name {
			a.items[i].Value = v
			return a
		}
	}
	a.items = append(a.items, NamedArg{Name: name, Value: v})
	return a
}

// Err returns the first argument whose value cannot be encoded
func (a *Args) Err() error {
	if a == nil {
		return nil
	}
	for _, it := range a.items {
		if it.Value.err != nil {
			return fmt.Errorf("argument %q: %w", it.Name, it.Value.err)
		}
	}
	return nil
}

func (a *Args) Get(name string) (CLValue, bool) {
	if a == nil {
		return CLValue{}, false
	}
	for _, it := range a.items {
		if it.Name == name {
			return it.Value, true
		}
	}
	return CLValue{}, false
}

func (a *Args) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

func (a *Args) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// Names lists argument names in insertion order
func (a *Args) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.items))
	for _, it := range a.items {
		names = append(names, it.Name)
	}
	return names
}

func (a *Args) Bytes() []byte {
	buf := appendU32(nil, uint32(a.Len()))
	if a == nil {
		return buf
	}
	for _, it := range a.items {
		buf = appendString(buf, it.Name)
		buf = append(buf, it.Value.serialize()...)
	}
	return buf
}

// MarshalJSON renders args as [[name, value], ...]
func (a *Args) MarshalJSON() ([]byte, error) {
	out := make([][2]any, 0, a.Len())
	if a != nil {
		for _, it := range a.items {
			out = append(out, [2]any{it.Name, it.Value})
		}
	}
	return json.Marshal(out)
}
