package entity

import (
	"errors"
	"fmt"
)

// ErrNoRemoteEntry reports that the directory holds no entry for an
// instance's distinguished name. Save recovers from it by switching to the
// create path; callers refreshing manually must do the same.
var ErrNoRemoteEntry = errors.New("no matching entry in the directory")

// ErrSchemaMismatch reports an operation across entities of different types.
var ErrSchemaMismatch = errors.New("entities have different schemas")

// PolicyError reports a write rejected by an attribute's policy: any write
// to a read-only attribute, or a second write to a write-once attribute.
type PolicyError struct {
	Attribute string
	Policy    Policy
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("attribute %q is %s", e.Attribute, e.Policy)
}

// UnknownAttributeError reports a field name that matches neither a local
// name nor a directory key in the entity's schema.
type UnknownAttributeError struct {
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute %q", e.Name)
}
