package entity

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/isometry/adentity/session"
)

// Find runs a subtree search under baseDN for entities of a schema,
// AND-combining the schema's filter with an optional caller filter, and
// materializes each entry as an unmodified entity.
func Find(ctx context.Context, dir Directory, schema *Schema, baseDN, filter string) ([]*Entity, error) {
	combined := schema.filter
	switch {
	case combined == "":
		combined = filter
	case filter != "":
		combined = fmt.Sprintf("(&%s%s)", combined, filter)
	}

	res, err := dir.Search(ctx, &session.SearchRequest{
		BaseDN:     baseDN,
		Scope:      session.ScopeWholeSubtree,
		Filter:     combined,
		Attributes: schema.Keys(),
	})
	if err != nil {
		return nil, err
	}

	entities := make([]*Entity, 0, len(res.Entries))
	for _, entry := range res.Entries {
		e := &Entity{
			dir:    dir,
			schema: schema,
			slots:  make(map[string]*slot, len(schema.specs)),
		}
		for _, spec := range schema.specs {
			e.slots[spec.Name] = &slot{}
		}
		e.loadRemote(entryAttributes(entry))
		entities = append(entities, e)
	}
	return entities, nil
}

// entryAttributes converts a directory entry to wire-form attribute lists,
// decoding the binary identifier attributes to their text forms.
func entryAttributes(entry *ldap.Entry) map[string][]string {
	attrs := make(map[string][]string, len(entry.Attributes)+1)
	for _, attr := range entry.Attributes {
		switch attr.Name {
		case "objectGUID":
			if guid := session.GUIDFromEntry(entry); guid != "" {
				attrs[attr.Name] = []string{guid}
			}
		case "objectSid":
			if sid := session.SIDFromEntry(entry); sid != "" {
				attrs[attr.Name] = []string{sid}
			}
		default:
			attrs[attr.Name] = attr.Values
		}
	}
	if entry.DN != "" {
		attrs["distinguishedName"] = []string{entry.DN}
	}
	return attrs
}
