package entity

import (
	"context"
	"errors"

	"github.com/isometry/adentity/session"
)

// Save persists pending local modifications to the directory.
//
// The entity is refreshed first so only genuine differences are written.
// When no remote entry exists the entity is created with an Add carrying
// every non-null attribute; otherwise a Modify replaces exactly the modified
// attributes, translating pending clears to attribute removal. A save with
// no pending changes against an existing entry issues no write.
//
// On success all modification flags are cleared and the entity is refreshed
// again to pick up server-assigned attributes.
func (e *Entity) Save(ctx context.Context) error {
	err := e.Refresh(ctx)
	switch {
	case errors.Is(err, ErrNoRemoteEntry):
		// Create path: everything locally populated goes into the new
		// entry. The DN is addressing, not payload.
		for _, spec := range e.schema.specs {
			if spec.Key == "distinguishedName" {
				continue
			}
			if sl := e.slots[spec.Name]; sl.value != nil {
				sl.modified = true
			}
		}
	case err != nil:
		return err
	}

	dn, err := e.DN()
	if err != nil {
		return err
	}
	changes := e.Modified()

	if e.GUID() == "" {
		attrs := make(map[string][]string, len(changes))
		for key, v := range changes {
			if key == "distinguishedName" {
				continue
			}
			if vals := wireValues(v); len(vals) > 0 {
				attrs[key] = vals
			}
		}
		if err := e.dir.Add(ctx, &session.AddRequest{DN: dn, Attributes: attrs}); err != nil {
			return err
		}
	} else {
		replace := make(map[string][]string, len(changes))
		for key, v := range changes {
			if key == "distinguishedName" {
				continue
			}
			replace[key] = wireValues(v)
		}
		if len(replace) > 0 {
			if err := e.dir.Modify(ctx, &session.ModifyRequest{DN: dn, ReplaceAttributes: replace}); err != nil {
				return err
			}
		}
	}

	e.resetModified()
	return e.Refresh(ctx)
}

// Delete removes the entity's entry from the directory. Local state is left
// as-is; a subsequent Save would recreate the entry.
func (e *Entity) Delete(ctx context.Context) error {
	dn, err := e.DN()
	if err != nil {
		return err
	}
	return e.dir.Delete(ctx, dn)
}
