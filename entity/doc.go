/*
Package entity maps Active Directory objects to local instances with
attribute-level change tracking.

Every entity type is described by a Schema: the attribute set with per
attribute write policies, a search filter, preset values for new instances
and a rule deriving distinguished names. Schemas extend each other, so the
OrgUnit and User types inherit the base object attributes.

An instance tracks which attributes were modified locally. Refresh reconciles
it with the directory — unmodified attributes adopt the remote value, local
edits survive — and Save writes exactly the modified attributes back,
creating the entry when it does not exist yet:

	user, err := entity.NewUser(sess, map[string]entity.Value{
		"parent":            engineering,
		"s_am_account_name": "jdoe",
		"given_name":        "Jane",
		"sn":                "Doe",
	})
	if err != nil {
		return err
	}
	if err := user.Save(ctx); err != nil {
		return err
	}

The package talks to the directory through the Directory interface, normally
a *session.Session.
*/
package entity
