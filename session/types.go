package session

import (
	"crypto/tls"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

// Config holds everything needed to open a directory session.
type Config struct {
	// Connection settings
	URLs    []string      // LDAP endpoints (ldap:// or ldaps://), tried in order
	Domain  string        // AD domain for DNS SRV endpoint discovery when URLs is empty
	RootDN  string        // Search root; derived from Domain or BindDN when empty
	Timeout time.Duration `default:"30s"` // Per-request network timeout

	// Authentication settings
	BindDN   string // Bind identity (DN or UPN)
	Password string // Password for simple bind

	// Kerberos settings (GSSAPI bind)
	KerberosRealm  string // Realm; derived from a user@REALM BindDN when empty
	KerberosKeytab string // Path to a keytab file
	KerberosCCache string // Path to a credential cache
	KerberosConfig string `default:"/etc/krb5.conf"` // Path to krb5.conf
	KerberosSPN    string // Explicit service principal, overrides ldap/<host>

	// TLS settings
	UseTLS             bool        `default:"true"` // Upgrade plain connections via StartTLS
	InsecureSkipVerify bool        // Skip certificate verification (not recommended)
	TLSConfig          *tls.Config // Custom TLS configuration, overrides the above

	// Retry settings
	MaxRetries     int           `default:"3"`
	InitialBackoff time.Duration `default:"500ms"`
	MaxBackoff     time.Duration `default:"30s"`
	BackoffFactor  float64       `default:"2.0"`

	// Logger for structured operation logging; a no-op logger is used when nil.
	Logger *zerolog.Logger
}

// DefaultConfig returns a Config with every defaulted field populated.
func DefaultConfig() *Config {
	config := &Config{}
	if err := defaults.Set(config); err != nil {
		panic(err)
	}
	return config
}

// AuthMethod defines authentication method types.
type AuthMethod int

const (
	AuthSimpleBind AuthMethod = iota // DN/password bind
	AuthKerberos                     // GSSAPI/Kerberos bind
	AuthAnonymous                    // Unauthenticated bind
)

// String returns the string representation of an authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthSimpleBind:
		return "simple"
	case AuthKerberos:
		return "kerberos"
	case AuthAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// AuthMethod determines the authentication method from the configuration.
// Kerberos takes precedence when a realm or credential source is configured.
func (c *Config) AuthMethod() AuthMethod {
	if c.KerberosRealm != "" || c.KerberosKeytab != "" || c.KerberosCCache != "" {
		return AuthKerberos
	}
	if c.BindDN != "" {
		return AuthSimpleBind
	}
	return AuthAnonymous
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns the string representation of a search scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}

// SearchRequest encapsulates directory search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// SearchResult contains the entries the server returned for a search.
// The entry sequence is complete once returned; it is not restartable.
type SearchResult struct {
	Entries []*ldap.Entry
}

// AddRequest encapsulates directory entry creation parameters.
type AddRequest struct {
	DN         string
	Attributes map[string][]string
}

// ModifyRequest encapsulates a selective attribute update. Replace semantics
// only touch the named attributes; an empty value list removes the attribute.
type ModifyRequest struct {
	DN                string
	ReplaceAttributes map[string][]string
}
