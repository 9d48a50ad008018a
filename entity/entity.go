package entity

import (
	"context"
	"fmt"

	"github.com/isometry/adentity/session"
)

// Directory is the subset of session.Session the entity layer depends on.
// Declaring it here keeps entities testable against a mock transport.
type Directory interface {
	Search(ctx context.Context, req *session.SearchRequest) (*session.SearchResult, error)
	Add(ctx context.Context, req *session.AddRequest) error
	Modify(ctx context.Context, req *session.ModifyRequest) error
	Delete(ctx context.Context, dn string) error
	RootDN() string
}

// Entity is one directory object held locally: a schema, a transport, an
// optional parent for DN derivation, and per-attribute slots tracking value
// and modification state.
//
// Entities are not safe for concurrent use; directory requests execute one
// at a time on the session they were built with.
type Entity struct {
	dir    Directory
	schema *Schema
	parent *Entity
	slots  map[string]*slot
}

// instance is satisfied by *Entity and by any type embedding one, letting
// typed wrappers like User pass through APIs that need the underlying
// entity.
type instance interface {
	base() *Entity
}

func (e *Entity) base() *Entity { return e }

// New creates an instance of a schema on the given directory. Presets are
// applied as local modifications, then attrs on top of them; the reserved
// "parent" field attaches a parent entity instead of setting an attribute.
func New(dir Directory, schema *Schema, attrs map[string]Value) (*Entity, error) {
	e := &Entity{
		dir:    dir,
		schema: schema,
		slots:  make(map[string]*slot, len(schema.specs)),
	}
	for _, spec := range schema.specs {
		e.slots[spec.Name] = &slot{}
	}

	for name, v := range schema.presets {
		if err := e.Set(name, v); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
	}
	if err := e.Apply(attrs); err != nil {
		return nil, err
	}

	return e, nil
}

// Apply sets multiple attributes, failing on the first policy or lookup
// error. The reserved "parent" field accepts an entity (or a typed wrapper)
// and attaches it for DN derivation.
func (e *Entity) Apply(attrs map[string]Value) error {
	for name, v := range attrs {
		if name == "parent" {
			parent, err := asEntity(v)
			if err != nil {
				return err
			}
			e.parent = parent
			continue
		}
		if err := e.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func asEntity(v Value) (*Entity, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case *Entity:
		return p, nil
	case instance:
		return p.base(), nil
	default:
		return nil, fmt.Errorf("parent must be an entity, got %T", v)
	}
}

// Schema returns the entity's type schema.
func (e *Entity) Schema() *Schema {
	return e.schema
}

// Parent returns the entity DNs are derived under, if any.
func (e *Entity) Parent() *Entity {
	return e.parent
}

// Get returns the current value of an attribute by local name or directory
// key. Unset and cleared attributes read as nil.
func (e *Entity) Get(name string) (Value, error) {
	spec, err := e.schema.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.slots[spec.Name].value, nil
}

// GetString is Get for scalar string attributes; non-string and unset values
// read as empty.
func (e *Entity) GetString(name string) string {
	v, err := e.Get(name)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Set writes an attribute by local name or directory key, subject to its
// policy. Setting nil records an explicit clear, which Save translates to
// attribute removal.
func (e *Entity) Set(name string, v Value) error {
	spec, err := e.schema.lookup(name)
	if err != nil {
		return err
	}
	return e.slots[spec.Name].set(spec, v)
}

// Modified returns the pending local changes keyed by directory key. Cleared
// attributes appear with a nil value.
func (e *Entity) Modified() map[string]Value {
	changes := make(map[string]Value)
	for _, spec := range e.schema.specs {
		if sl := e.slots[spec.Name]; sl.modified {
			changes[spec.Key] = sl.value
		}
	}
	return changes
}

// IsModified reports whether any attribute has a pending local change.
func (e *Entity) IsModified() bool {
	for _, sl := range e.slots {
		if sl.modified {
			return true
		}
	}
	return false
}

// resetModified clears every modification flag, leaving values in place.
func (e *Entity) resetModified() {
	for _, sl := range e.slots {
		sl.modified = false
	}
}

// GUID returns the entity's objectGUID in UUID text form, empty until the
// entity has been loaded or saved.
func (e *Entity) GUID() string {
	return e.GetString("object_guid")
}

// DN returns the entity's distinguished name, deriving and storing it on
// first use when the schema has an RDN rule. New entities derive under their
// parent's DN, or the directory root when parentless.
func (e *Entity) DN() (string, error) {
	if dn := e.GetString("distinguished_name"); dn != "" {
		return dn, nil
	}
	if e.schema.rdn == nil {
		return "", fmt.Errorf("%s entity has no distinguished name", e.schema.name)
	}

	rdn, err := e.schema.rdn(e)
	if err != nil {
		return "", err
	}

	base := e.dir.RootDN()
	if e.parent != nil {
		base, err = e.parent.DN()
		if err != nil {
			return "", fmt.Errorf("parent DN: %w", err)
		}
	}

	dn := fmt.Sprintf("%s,%s", rdn, base)
	if err := e.Set("distinguished_name", dn); err != nil {
		return "", err
	}
	return dn, nil
}

// loadRemote overwrites the entity's slots from a remote entry. Attributes
// the entry lacks become unset; nothing remains marked modified.
func (e *Entity) loadRemote(attrs map[string][]string) {
	for _, spec := range e.schema.specs {
		e.slots[spec.Name].load(collapseValues(attrs[spec.Key]))
	}
}
