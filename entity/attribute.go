package entity

import (
	"fmt"
	"slices"
)

// Policy controls how an attribute may be written on an entity instance.
type Policy int

const (
	// Mutable attributes accept any number of writes.
	Mutable Policy = iota

	// ReadOnly attributes are server-assigned (identifiers, timestamps,
	// counters) and reject every local write.
	ReadOnly

	// WriteOnce attributes accept exactly one local write per instance.
	// This protects identity-defining fields (object class, distinguished
	// name) from being silently overwritten after initial assignment while
	// still allowing them to be set during construction.
	WriteOnce
)

// String returns the string representation of a policy.
func (p Policy) String() string {
	switch p {
	case Mutable:
		return "mutable"
	case ReadOnly:
		return "read-only"
	case WriteOnce:
		return "write-once"
	default:
		return "unknown"
	}
}

// Value is a directory-encoded attribute value: a string scalar, a []string
// for multi-valued attributes, or nil when unset.
type Value any

// Spec describes one attribute of an entity type: the name calling code
// uses, the wire-protocol key, and the write policy. Specs are immutable and
// shared by reference between a schema and everything extending it.
type Spec struct {
	Name   string // local name used by calling code, e.g. "given_name"
	Key    string // directory key used on the wire, e.g. "givenName"
	Policy Policy
}

// slot is the per-instance state of one attribute. The tri-state matters for
// reconciliation: an unset slot (value nil, cleared false) may adopt a remote
// value, while an explicitly cleared one is a pending local edit. written
// records that the slot was ever assigned locally, outliving the modified
// flag across refreshes.
type slot struct {
	value    Value
	cleared  bool
	modified bool
	written  bool
}

// set applies a policy-checked write and records the modification.
func (sl *slot) set(spec *Spec, v Value) error {
	switch v.(type) {
	case nil, string, []string:
	default:
		return fmt.Errorf("attribute %q: unsupported value type %T", spec.Name, v)
	}

	switch spec.Policy {
	case ReadOnly:
		return &PolicyError{Attribute: spec.Name, Policy: spec.Policy}
	case WriteOnce:
		// Locked once the slot has ever held a value, whether written
		// locally or adopted from the directory.
		if sl.written || sl.value != nil {
			return &PolicyError{Attribute: spec.Name, Policy: spec.Policy}
		}
	}

	if v == nil {
		sl.value = nil
		sl.cleared = true
	} else {
		sl.value = v
		sl.cleared = false
	}
	sl.modified = true
	sl.written = true
	return nil
}

// load overwrites the slot with authoritative remote state, unmodified.
func (sl *slot) load(v Value) {
	sl.value = v
	sl.cleared = false
	sl.modified = false
}

// valueEqual compares two directory-encoded values. Scalars compare by
// string equality, lists element-wise in order.
func valueEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}

	al, aok := a.([]string)
	bl, bok := b.([]string)
	if aok && bok {
		return slices.Equal(al, bl)
	}

	return false
}

// wireValues flattens a value into the list form the wire protocol expects.
// A nil value yields an empty list, which replace semantics treat as
// attribute removal.
func wireValues(v Value) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		return []string{val}
	case []string:
		return val
	default:
		return []string{}
	}
}

// collapseValues converts a wire value list to the entity representation:
// singletons become scalars, longer lists stay ordered lists, empty lists
// become nil.
func collapseValues(values []string) Value {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return slices.Clone(values)
	}
}
