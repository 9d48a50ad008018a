package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		writes []Value
		fails  int // index of the first failing write, -1 for none
	}{
		{
			name:   "mutable accepts repeated writes",
			policy: Mutable,
			writes: []Value{"a", "b", "c"},
			fails:  -1,
		},
		{
			name:   "read-only rejects the first write",
			policy: ReadOnly,
			writes: []Value{"a"},
			fails:  0,
		},
		{
			name:   "write-once rejects the second write",
			policy: WriteOnce,
			writes: []Value{"a", "b"},
			fails:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &Spec{Name: "attr", Key: "attr", Policy: tt.policy}
			sl := &slot{}

			for i, v := range tt.writes {
				err := sl.set(spec, v)
				if i == tt.fails {
					var policyErr *PolicyError
					require.ErrorAs(t, err, &policyErr)
					assert.Equal(t, "attr", policyErr.Attribute)
					assert.Equal(t, tt.policy, policyErr.Policy)
					return
				}
				require.NoError(t, err)
				assert.True(t, sl.modified)
				assert.Equal(t, v, sl.value)
			}
		})
	}
}

func TestSlotRejectsUnsupportedTypes(t *testing.T) {
	spec := &Spec{Name: "attr", Key: "attr", Policy: Mutable}
	sl := &slot{}

	assert.Error(t, sl.set(spec, 42))
	assert.Error(t, sl.set(spec, []byte("raw")))
	assert.Error(t, sl.set(spec, map[string]string{}))

	assert.Nil(t, sl.value)
	assert.False(t, sl.modified)
}

func TestWriteOnceLocksAfterLoad(t *testing.T) {
	spec := &Spec{Name: "attr", Key: "attr", Policy: WriteOnce}
	sl := &slot{}
	sl.load("remote")

	var policyErr *PolicyError
	assert.ErrorAs(t, sl.set(spec, "other"), &policyErr)
	assert.Equal(t, Value("remote"), sl.value)
}

func TestWriteOnceStaysLockedAcrossFlagReset(t *testing.T) {
	spec := &Spec{Name: "attr", Key: "attr", Policy: WriteOnce}
	sl := &slot{}

	require.NoError(t, sl.set(spec, "first"))
	sl.modified = false

	var policyErr *PolicyError
	assert.ErrorAs(t, sl.set(spec, "second"), &policyErr)
	assert.Equal(t, Value("first"), sl.value)
}

func TestSlotClear(t *testing.T) {
	spec := &Spec{Name: "mail", Key: "mail", Policy: Mutable}
	sl := &slot{}

	require.NoError(t, sl.set(spec, "user@example.com"))
	require.NoError(t, sl.set(spec, nil))

	assert.Nil(t, sl.value)
	assert.True(t, sl.cleared)
	assert.True(t, sl.modified)
}

func TestSlotLoadResetsState(t *testing.T) {
	spec := &Spec{Name: "mail", Key: "mail", Policy: Mutable}
	sl := &slot{}

	require.NoError(t, sl.set(spec, nil))
	sl.load("remote@example.com")

	assert.Equal(t, Value("remote@example.com"), sl.value)
	assert.False(t, sl.cleared)
	assert.False(t, sl.modified)
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs scalar", nil, "x", false},
		{"equal scalars", "x", "x", true},
		{"different scalars", "x", "y", false},
		{"equal lists", []string{"a", "b"}, []string{"a", "b"}, true},
		{"reordered lists", []string{"a", "b"}, []string{"b", "a"}, false},
		{"scalar vs list", "a", []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, valueEqual(tt.a, tt.b))
		})
	}
}

func TestWireValues(t *testing.T) {
	assert.Empty(t, wireValues(nil))
	assert.Equal(t, []string{"x"}, wireValues("x"))
	assert.Equal(t, []string{"a", "b"}, wireValues([]string{"a", "b"}))
}

func TestCollapseValues(t *testing.T) {
	assert.Nil(t, collapseValues(nil))
	assert.Nil(t, collapseValues([]string{}))
	assert.Equal(t, Value("x"), collapseValues([]string{"x"}))
	assert.Equal(t, Value([]string{"a", "b"}), collapseValues([]string{"a", "b"}))
}
