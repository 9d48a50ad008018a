package entity

// State is one side of a diff: an attribute's value and whether it carries a
// pending local modification.
type State struct {
	Value    Value
	Modified bool
}

// Delta is a per-attribute difference between two entities of the same type.
type Delta struct {
	A State
	B State
}

// Diff compares two entities attribute by attribute and returns the
// differing ones keyed by directory key. Entities of different schemas do
// not compare.
func (e *Entity) Diff(other *Entity) (map[string]Delta, error) {
	if other == nil || e.schema != other.schema {
		return nil, ErrSchemaMismatch
	}

	deltas := make(map[string]Delta)
	for _, spec := range e.schema.specs {
		a := e.slots[spec.Name]
		b := other.slots[spec.Name]
		if valueEqual(a.value, b.value) {
			continue
		}
		deltas[spec.Key] = Delta{
			A: State{Value: a.value, Modified: a.modified},
			B: State{Value: b.value, Modified: b.modified},
		}
	}
	return deltas, nil
}
