package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/isometry/adentity/session"
)

// OrgUnitSchema describes an organizational unit. Critical system containers
// are excluded from searches; they are not managed through this layer.
var OrgUnitSchema = Base.MustExtend(Extension{
	Name: "organizational_unit",
	Attributes: []*Spec{
		{Name: "ou", Key: "ou", Policy: Mutable},
	},
	Filter: "(&(objectClass=organizationalUnit)(instanceType=4)(!(isCriticalSystemObject=TRUE)))",
	Presets: map[string]Value{
		"object_class": "organizationalUnit",
	},
	RDN: func(e *Entity) (string, error) {
		ou := e.GetString("ou")
		if ou == "" {
			return "", fmt.Errorf("organizational unit has no ou attribute")
		}
		return fmt.Sprintf("OU=%s", session.EscapeDNValue(ou)), nil
	},
})

// OrgUnit is an organizational unit entity, the container users live under.
type OrgUnit struct {
	*Entity
}

// NewOrgUnit creates a local organizational unit instance. The ou attribute
// names the unit and determines its DN directly under the directory root.
func NewOrgUnit(dir Directory, attrs map[string]Value) (*OrgUnit, error) {
	e, err := New(dir, OrgUnitSchema, attrs)
	if err != nil {
		return nil, err
	}
	return &OrgUnit{Entity: e}, nil
}

// OU returns the unit's name.
func (o *OrgUnit) OU() string {
	return o.GetString("ou")
}

// Users returns the user entities under this unit, each parented to it. A
// unit not yet present in the directory has no users.
func (o *OrgUnit) Users(ctx context.Context) ([]*User, error) {
	dn, err := o.DN()
	if err != nil {
		return nil, err
	}

	entities, err := Find(ctx, o.dir, UserSchema, dn, "")
	if err != nil {
		if session.IsNotFound(err) || errors.Is(err, ErrNoRemoteEntry) {
			return nil, nil
		}
		return nil, err
	}

	users := make([]*User, len(entities))
	for i, e := range entities {
		e.parent = o.Entity
		users[i] = &User{Entity: e}
	}
	return users, nil
}

// FindOrgUnits returns every managed organizational unit in the directory.
func FindOrgUnits(ctx context.Context, dir Directory) ([]*OrgUnit, error) {
	entities, err := Find(ctx, dir, OrgUnitSchema, dir.RootDN(), "")
	if err != nil {
		return nil, err
	}

	units := make([]*OrgUnit, len(entities))
	for i, e := range entities {
		units[i] = &OrgUnit{Entity: e}
	}
	return units, nil
}
