package session

import (
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	config := &Config{}
	require.NoError(t, defaults.Set(config))

	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.True(t, config.UseTLS)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, config.InitialBackoff)
	assert.Equal(t, 30*time.Second, config.MaxBackoff)
	assert.Equal(t, 2.0, config.BackoffFactor)
	assert.Equal(t, "/etc/krb5.conf", config.KerberosConfig)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.True(t, config.UseTLS)
	assert.Equal(t, 3, config.MaxRetries)
}

func TestConfigDefaultsKeepExplicitValues(t *testing.T) {
	config := &Config{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	}
	require.NoError(t, defaults.Set(config))

	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.Equal(t, 1, config.MaxRetries)
}

func TestConfigAuthMethod(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected AuthMethod
	}{
		{
			name:     "anonymous by default",
			config:   Config{},
			expected: AuthAnonymous,
		},
		{
			name:     "simple bind with DN",
			config:   Config{BindDN: "CN=svc,DC=example,DC=com", Password: "secret"},
			expected: AuthSimpleBind,
		},
		{
			name:     "kerberos via realm",
			config:   Config{BindDN: "svc@EXAMPLE.COM", KerberosRealm: "EXAMPLE.COM"},
			expected: AuthKerberos,
		},
		{
			name:     "kerberos via keytab",
			config:   Config{BindDN: "svc@EXAMPLE.COM", KerberosKeytab: "/etc/svc.keytab"},
			expected: AuthKerberos,
		},
		{
			name:     "kerberos via ccache",
			config:   Config{KerberosCCache: "/tmp/krb5cc_0"},
			expected: AuthKerberos,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.AuthMethod())
		})
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		host    string
		useTLS  bool
		wantErr bool
	}{
		{"plain ldap", "ldap://dc1.example.com", "dc1.example.com", false, false},
		{"ldaps", "ldaps://dc1.example.com:636", "dc1.example.com", true, false},
		{"explicit port", "ldap://dc1.example.com:389", "dc1.example.com", false, false},
		{"unsupported scheme", "http://dc1.example.com", "", false, true},
		{"missing host", "ldap://", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := parseURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.host, server.host)
			assert.Equal(t, tt.useTLS, server.useTLS)
			assert.Equal(t, tt.input, server.url)
		})
	}
}

func TestRootDNFromBindDN(t *testing.T) {
	tests := []struct {
		name     string
		bindDN   string
		expected string
	}{
		{"typical DN", "CN=Administrator,CN=Users,DC=example,DC=com", "DC=example,DC=com"},
		{"lowercase components", "cn=svc,dc=example,dc=com", "dc=example,dc=com"},
		{"root only", "DC=example,DC=com", "DC=example,DC=com"},
		{"UPN form", "svc@example.com", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RootDNFromBindDN(tt.bindDN))
		})
	}
}

func TestSearchScopeString(t *testing.T) {
	assert.Equal(t, "base", ScopeBaseObject.String())
	assert.Equal(t, "one", ScopeSingleLevel.String())
	assert.Equal(t, "sub", ScopeWholeSubtree.String())
}

func TestAuthMethodString(t *testing.T) {
	assert.Equal(t, "simple", AuthSimpleBind.String())
	assert.Equal(t, "kerberos", AuthKerberos.String())
	assert.Equal(t, "anonymous", AuthAnonymous.String())
}
