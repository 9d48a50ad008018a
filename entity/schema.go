package entity

import (
	"fmt"
	"maps"
)

// Schema describes an entity type: its attribute specs (base attributes plus
// everything inherited), the search filter locating entries of the type, the
// preset values applied to fresh instances, and the rule deriving a
// distinguished name for new entries.
//
// Schemas are built once at package init through Extend and shared read-only
// by every instance, so they carry no locking.
type Schema struct {
	name    string
	specs   []*Spec
	byName  map[string]*Spec
	byKey   map[string]*Spec
	filter  string
	presets map[string]Value
	rdn     RDNRule
}

// RDNRule derives the leading RDN of a new entry, e.g. "CN=jdoe", from the
// entity's attributes. DeriveDN appends the parent DN (or the directory root)
// to the result. A nil rule means the type cannot derive DNs.
type RDNRule func(e *Entity) (string, error)

// Base is the root schema all entity types extend. It carries the attributes
// every directory object exposes; all except objectClass and
// distinguishedName are server-assigned.
var Base = newBaseSchema()

func newBaseSchema() *Schema {
	s := &Schema{
		name: "object",
		specs: []*Spec{
			{Name: "object_class", Key: "objectClass", Policy: WriteOnce},
			{Name: "object_guid", Key: "objectGUID", Policy: ReadOnly},
			{Name: "distinguished_name", Key: "distinguishedName", Policy: WriteOnce},
			{Name: "instance_type", Key: "instanceType", Policy: ReadOnly},
			{Name: "object_category", Key: "objectCategory", Policy: ReadOnly},
			{Name: "ds_core_propagation_data", Key: "dSCorePropagationData", Policy: ReadOnly},
			{Name: "name", Key: "name", Policy: ReadOnly},
			{Name: "usn_created", Key: "uSNCreated", Policy: ReadOnly},
			{Name: "usn_changed", Key: "uSNChanged", Policy: ReadOnly},
			{Name: "when_created", Key: "whenCreated", Policy: ReadOnly},
			{Name: "when_changed", Key: "whenChanged", Policy: ReadOnly},
		},
		filter: "(objectClass=*)",
	}
	s.index()
	return s
}

// index rebuilds the name and key lookup tables from the spec list.
func (s *Schema) index() {
	s.byName = make(map[string]*Spec, len(s.specs))
	s.byKey = make(map[string]*Spec, len(s.specs))
	for _, spec := range s.specs {
		s.byName[spec.Name] = spec
		s.byKey[spec.Key] = spec
	}
}

// Extension declares what a derived schema adds to its parent.
type Extension struct {
	Name string

	// Attributes are appended after the parent's specs; declaration order
	// is preserved and becomes the order Diff and Save iterate in.
	Attributes []*Spec

	// Filter is AND-combined with the parent filter when both are set.
	Filter string

	// Presets seed fresh instances; on key collision the extension wins
	// over inherited presets.
	Presets map[string]Value

	// RDN replaces the parent's DN derivation rule when non-nil.
	RDN RDNRule
}

// Extend derives a new schema from s. Attribute names and keys must not
// collide with inherited ones.
func (s *Schema) Extend(ext Extension) (*Schema, error) {
	child := &Schema{
		name:   ext.Name,
		specs:  make([]*Spec, 0, len(s.specs)+len(ext.Attributes)),
		filter: s.filter,
		rdn:    s.rdn,
	}
	child.specs = append(child.specs, s.specs...)
	child.index()

	// Checking against the child's own tables catches collisions both with
	// inherited attributes and between specs of this extension.
	for _, spec := range ext.Attributes {
		if prev, ok := child.byName[spec.Name]; ok {
			return nil, fmt.Errorf("schema %s: attribute name %q already declared as %q", ext.Name, spec.Name, prev.Key)
		}
		if prev, ok := child.byKey[spec.Key]; ok {
			return nil, fmt.Errorf("schema %s: attribute key %q already declared as %q", ext.Name, spec.Key, prev.Name)
		}
		child.specs = append(child.specs, spec)
		child.byName[spec.Name] = spec
		child.byKey[spec.Key] = spec
	}

	switch {
	case ext.Filter == "":
	case child.filter == "":
		child.filter = ext.Filter
	default:
		child.filter = fmt.Sprintf("(&%s%s)", child.filter, ext.Filter)
	}

	if len(s.presets) > 0 || len(ext.Presets) > 0 {
		child.presets = make(map[string]Value, len(s.presets)+len(ext.Presets))
		maps.Copy(child.presets, s.presets)
		maps.Copy(child.presets, ext.Presets)
	}

	if ext.RDN != nil {
		child.rdn = ext.RDN
	}

	return child, nil
}

// MustExtend is Extend for package-level schema construction; it panics on
// declaration conflicts.
func (s *Schema) MustExtend(ext Extension) *Schema {
	child, err := s.Extend(ext)
	if err != nil {
		panic(err)
	}
	return child
}

// Name returns the schema's type name.
func (s *Schema) Name() string {
	return s.name
}

// Filter returns the accumulated search filter for the type.
func (s *Schema) Filter() string {
	return s.filter
}

// Keys returns the directory keys of all attributes in declaration order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.specs))
	for i, spec := range s.specs {
		keys[i] = spec.Key
	}
	return keys
}

// lookup resolves a field identifier against local names first, then
// directory keys.
func (s *Schema) lookup(name string) (*Spec, error) {
	if spec, ok := s.byName[name]; ok {
		return spec, nil
	}
	if spec, ok := s.byKey[name]; ok {
		return spec, nil
	}
	return nil, &UnknownAttributeError{Name: name}
}
