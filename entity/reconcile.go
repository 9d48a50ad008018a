package entity

import (
	"context"

	"github.com/isometry/adentity/session"
)

// Refresh reconciles the entity with its directory entry, found by a
// base-scope search at the entity's DN. Attributes without pending local
// modifications adopt the remote value; locally modified attributes keep
// their value and stay marked for the next Save. Attributes whose local and
// remote values already agree come out clean.
//
// ErrNoRemoteEntry is returned when the directory has no entry at the DN;
// local state is left untouched so the entity can still be created.
func (e *Entity) Refresh(ctx context.Context) error {
	dn, err := e.DN()
	if err != nil {
		return err
	}

	remote, err := e.fetch(ctx, dn)
	if err != nil {
		return err
	}

	for _, spec := range e.schema.specs {
		sl := e.slots[spec.Name]
		rv := collapseValues(remote[spec.Key])

		// Server-assigned attributes mirror the directory exactly.
		if spec.Policy == ReadOnly {
			sl.load(rv)
			continue
		}

		if valueEqual(sl.value, rv) {
			// Converged, including a pending clear against an already
			// absent remote attribute.
			sl.cleared = false
			sl.modified = false
			continue
		}

		switch {
		case !sl.modified && rv != nil:
			sl.load(rv)
		case sl.value != nil || sl.cleared:
			sl.modified = true
		default:
			sl.modified = false
		}
	}

	return nil
}

// fetch retrieves the entity's entry by DN and returns its attributes in
// wire form, with binary identifiers decoded to text.
func (e *Entity) fetch(ctx context.Context, dn string) (map[string][]string, error) {
	res, err := e.dir.Search(ctx, &session.SearchRequest{
		BaseDN:     dn,
		Scope:      session.ScopeBaseObject,
		Filter:     e.schema.filter,
		Attributes: e.schema.Keys(),
	})
	if err != nil {
		if session.IsNotFound(err) {
			return nil, ErrNoRemoteEntry
		}
		return nil, err
	}
	if len(res.Entries) == 0 {
		return nil, ErrNoRemoteEntry
	}

	return entryAttributes(res.Entries[0]), nil
}
