package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

// kerberosBind authenticates a connection via GSSAPI using whichever
// credential source the configuration provides. Credential precedence:
// credential cache, then keytab, then password.
func kerberosBind(conn *ldap.Conn, cfg *Config, host string) error {
	if err := prepareKerberosConfig(cfg); err != nil {
		return fmt.Errorf("kerberos configuration error: %w", err)
	}

	client, err := newGSSAPIClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = client.DeleteSecContext()
	}()

	spn := cfg.KerberosSPN
	if spn == "" {
		// SPNs never carry a port.
		if colon := strings.Index(host, ":"); colon != -1 {
			host = host[:colon]
		}
		spn = fmt.Sprintf("ldap/%s", host)
	}

	if err := conn.GSSAPIBind(client, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}

	return nil
}

// newGSSAPIClient builds a GSSAPI client from the first available credential
// source.
func newGSSAPIClient(cfg *Config) (ldap.GSSAPIClient, error) {
	if cfg.KerberosCCache != "" && fileExists(cfg.KerberosCCache) {
		return gssapi.NewClientFromCCache(cfg.KerberosCCache, cfg.KerberosConfig, krb5client.DisablePAFXFAST(true))
	}

	if ccache := defaultCCachePath(); fileExists(ccache) {
		return gssapi.NewClientFromCCache(ccache, cfg.KerberosConfig, krb5client.DisablePAFXFAST(true))
	}

	if cfg.KerberosKeytab != "" && fileExists(cfg.KerberosKeytab) {
		return gssapi.NewClientWithKeytab(cfg.BindDN, cfg.KerberosRealm, cfg.KerberosKeytab, cfg.KerberosConfig, krb5client.DisablePAFXFAST(true))
	}

	if cfg.BindDN != "" && cfg.Password != "" {
		return gssapi.NewClientWithPassword(cfg.BindDN, cfg.KerberosRealm, cfg.Password, cfg.KerberosConfig, krb5client.DisablePAFXFAST(true))
	}

	return nil, fmt.Errorf("no suitable credentials for Kerberos authentication: provide KerberosCCache, KerberosKeytab, or a password")
}

// prepareKerberosConfig validates the Kerberos settings and fills in the
// realm from a user@REALM bind identity when possible.
func prepareKerberosConfig(cfg *Config) error {
	if cfg.KerberosConfig == "" {
		cfg.KerberosConfig = "/etc/krb5.conf"
	}

	if !fileExists(cfg.KerberosConfig) {
		return fmt.Errorf("kerberos configuration file not found at %s", cfg.KerberosConfig)
	}

	if cfg.KerberosRealm == "" && strings.Contains(cfg.BindDN, "@") {
		parts := strings.SplitN(cfg.BindDN, "@", 2)
		cfg.BindDN = parts[0]
		cfg.KerberosRealm = parts[1]
	}

	if cfg.KerberosRealm == "" {
		return fmt.Errorf("kerberos realm is required (set KerberosRealm or use a user@REALM bind identity)")
	}

	return nil
}

// defaultCCachePath returns the credential cache location the environment
// points at, falling back to the conventional per-UID file.
func defaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

// fileExists checks that a file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
