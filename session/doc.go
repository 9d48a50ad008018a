/*
Package session maintains a bound LDAP connection to an Active Directory
server and executes the blocking directory requests that entities are built
on: search, add, modify (selective attribute replace) and delete.

A Session is opened from a Config, authenticates via simple bind or Kerberos
GSSAPI, and derives its search root from the bind DN when none is given:

	log := zerolog.New(os.Stderr)
	sess, err := session.Open(ctx, &session.Config{
		URLs:     []string{"ldaps://dc1.example.com"},
		BindDN:   "CN=Administrator,CN=Users,DC=example,DC=com",
		Password: "password",
		Logger:   &log,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

Transient failures (server busy, connection lost) are retried with
exponential backoff and transparent reconnection; every other failure
propagates to the caller wrapped in a categorized DirectoryError.

The package also carries the wire-format helpers the entity layer needs:
RFC 4514 DN value escaping, the mixed-endian objectGUID codec, and binary
objectSid decoding.
*/
package session
