package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
)

// Session maintains a single bound connection to a directory server and
// executes blocking search/add/modify/delete requests against it. It is the
// authoritative side of every entity operation: entities borrow a Session for
// their lifetime but never own it.
//
// A Session serializes nothing internally; callers that share one across
// goroutines must provide their own coordination.
type Session struct {
	config *Config
	conn   *ldap.Conn
	server *serverInfo
	rootDN string
	log    zerolog.Logger
}

// serverInfo describes one parsed endpoint from Config.URLs.
type serverInfo struct {
	url    string
	host   string
	useTLS bool
}

// Open validates the configuration, connects to the first reachable endpoint
// and authenticates. The returned session is ready for requests.
func Open(ctx context.Context, config *Config) (*Session, error) {
	if config == nil {
		return nil, errors.New("session configuration is required")
	}
	if err := defaults.Set(config); err != nil {
		return nil, fmt.Errorf("applying configuration defaults: %w", err)
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	if len(config.URLs) == 0 {
		if config.Domain == "" {
			return nil, errors.New("at least one LDAP URL or a domain is required")
		}
		urls, err := DiscoverURLs(ctx, config.Domain, logger)
		if err != nil {
			return nil, fmt.Errorf("endpoint discovery failed: %w", err)
		}
		config.URLs = urls
	}

	rootDN := config.RootDN
	if rootDN == "" {
		rootDN = RootDNFromBindDN(config.BindDN)
	}
	if rootDN == "" {
		rootDN = RootDNFromDomain(config.Domain)
	}
	if rootDN == "" {
		return nil, errors.New("root DN is required (set RootDN, Domain, or a DN-form BindDN)")
	}

	s := &Session{
		config: config,
		rootDN: rootDN,
		log:    logger.With().Str("component", "session").Logger(),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// RootDN returns the search root for this session.
func (s *Session) RootDN() string {
	return s.rootDN
}

// Close terminates the underlying connection. The session must not be used
// afterwards.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Search executes a search request and returns all entries the server
// produced before reporting done.
func (s *Session) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil {
		return nil, errors.New("search request cannot be nil")
	}

	start := time.Now()
	timeLimit := req.TimeLimit
	if timeLimit == 0 {
		timeLimit = s.config.Timeout
	}

	var result *ldap.SearchResult
	err := s.withRetry(ctx, "search", func(conn *ldap.Conn) error {
		ldapReq := ldap.NewSearchRequest(
			req.BaseDN,
			int(req.Scope),
			ldap.NeverDerefAliases,
			req.SizeLimit,
			int(timeLimit.Seconds()),
			false,
			req.Filter,
			req.Attributes,
			nil,
		)
		var searchErr error
		result, searchErr = conn.Search(ldapReq)
		return searchErr
	})

	if err != nil {
		s.log.Debug().
			Str("operation", "search").
			Str("base_dn", req.BaseDN).
			Str("filter", req.Filter).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("search failed")
		return nil, wrapError("search", req.BaseDN, err)
	}

	s.log.Debug().
		Str("operation", "search").
		Str("base_dn", req.BaseDN).
		Str("scope", req.Scope.String()).
		Str("filter", req.Filter).
		Int("entries", len(result.Entries)).
		Dur("duration", time.Since(start)).
		Msg("search completed")

	return &SearchResult{Entries: result.Entries}, nil
}

// Add creates a new directory entry.
func (s *Session) Add(ctx context.Context, req *AddRequest) error {
	if req == nil {
		return errors.New("add request cannot be nil")
	}

	err := s.withRetry(ctx, "add", func(conn *ldap.Conn) error {
		ldapReq := ldap.NewAddRequest(req.DN, nil)
		for attr, values := range req.Attributes {
			ldapReq.Attribute(attr, values)
		}
		return conn.Add(ldapReq)
	})

	if err != nil {
		return wrapError("add", req.DN, err)
	}

	s.log.Info().
		Str("operation", "add").
		Str("dn", req.DN).
		Int("attributes", len(req.Attributes)).
		Msg("entry created")

	return nil
}

// Modify replaces the named attributes of an existing entry. Attributes
// outside the request are never touched.
func (s *Session) Modify(ctx context.Context, req *ModifyRequest) error {
	if req == nil {
		return errors.New("modify request cannot be nil")
	}

	err := s.withRetry(ctx, "modify", func(conn *ldap.Conn) error {
		ldapReq := ldap.NewModifyRequest(req.DN, nil)
		for attr, values := range req.ReplaceAttributes {
			ldapReq.Replace(attr, values)
		}
		return conn.Modify(ldapReq)
	})

	if err != nil {
		return wrapError("modify", req.DN, err)
	}

	s.log.Info().
		Str("operation", "modify").
		Str("dn", req.DN).
		Int("attributes", len(req.ReplaceAttributes)).
		Msg("entry modified")

	return nil
}

// Delete removes an entry from the directory.
func (s *Session) Delete(ctx context.Context, dn string) error {
	if dn == "" {
		return errors.New("DN cannot be empty")
	}

	err := s.withRetry(ctx, "delete", func(conn *ldap.Conn) error {
		return conn.Del(ldap.NewDelRequest(dn, nil))
	})

	if err != nil {
		return wrapError("delete", dn, err)
	}

	s.log.Info().
		Str("operation", "delete").
		Str("dn", dn).
		Msg("entry deleted")

	return nil
}

// WhoAmI performs the LDAP Who Am I? extended operation and returns the
// server-reported authorization identity.
func (s *Session) WhoAmI(ctx context.Context) (string, error) {
	var result *ldap.WhoAmIResult
	err := s.withRetry(ctx, "whoami", func(conn *ldap.Conn) error {
		var opErr error
		result, opErr = conn.WhoAmI(nil)
		return opErr
	})
	if err != nil {
		return "", wrapError("whoami", "", err)
	}
	return result.AuthzID, nil
}

// Ping verifies connectivity by reading the root DSE.
func (s *Session) Ping(ctx context.Context) error {
	return s.withRetry(ctx, "ping", func(conn *ldap.Conn) error {
		req := ldap.NewSearchRequest(
			"",
			ldap.ScopeBaseObject,
			ldap.NeverDerefAliases,
			1, 5, false,
			"(objectClass=*)",
			[]string{"defaultNamingContext"},
			nil,
		)
		_, err := conn.Search(req)
		return err
	})
}

// connect dials the configured endpoints in order and authenticates against
// the first one that accepts a connection.
func (s *Session) connect(ctx context.Context) error {
	var lastErr error

	for _, raw := range s.config.URLs {
		server, err := parseURL(raw)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := s.dial(server)
		if err != nil {
			s.log.Warn().Str("url", server.url).Err(err).Msg("endpoint unreachable")
			lastErr = err
			continue
		}

		if err := s.authenticate(conn, server); err != nil {
			conn.Close()
			return wrapError("bind", s.config.BindDN, err)
		}

		s.conn = conn
		s.server = server
		s.log.Info().
			Str("url", server.url).
			Str("auth_method", s.config.AuthMethod().String()).
			Msg("session established")
		return nil
	}

	return wrapError("connect", "", fmt.Errorf("no reachable endpoint: %w", lastErr))
}

// dial opens a connection to one endpoint, upgrading plain connections with
// StartTLS unless disabled.
func (s *Session) dial(server *serverInfo) (*ldap.Conn, error) {
	tlsConfig := s.config.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			ServerName:         server.host,
			InsecureSkipVerify: s.config.InsecureSkipVerify,
		}
	}

	var conn *ldap.Conn
	var err error

	if server.useTLS {
		conn, err = ldap.DialURL(server.url, ldap.DialWithTLSConfig(tlsConfig))
	} else {
		conn, err = ldap.DialURL(server.url)
		if err == nil && s.config.UseTLS {
			err = conn.StartTLS(tlsConfig)
			if err != nil {
				conn.Close()
				conn = nil
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", server.url, err)
	}

	conn.SetTimeout(s.config.Timeout)
	return conn, nil
}

// authenticate binds the connection using the configured method.
func (s *Session) authenticate(conn *ldap.Conn, server *serverInfo) error {
	switch s.config.AuthMethod() {
	case AuthKerberos:
		return kerberosBind(conn, s.config, server.host)
	case AuthSimpleBind:
		return conn.Bind(s.config.BindDN, s.config.Password)
	default:
		return conn.UnauthenticatedBind("")
	}
}

// withRetry runs one request against the live connection, reconnecting and
// retrying with exponential backoff on retryable failures. Non-retryable
// failures propagate immediately.
func (s *Session) withRetry(ctx context.Context, operation string, fn func(*ldap.Conn) error) error {
	backoff := s.config.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(time.Duration(float64(backoff)*s.config.BackoffFactor), s.config.MaxBackoff)

			s.log.Debug().
				Str("operation", operation).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("retrying request")
		}

		if s.conn == nil || s.conn.IsClosing() {
			if err := s.connect(ctx); err != nil {
				lastErr = err
				if !IsRetryable(err) {
					return err
				}
				continue
			}
		}

		err := fn(s.conn)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}

		// Drop the connection so the next attempt redials.
		s.conn.Close()
		s.conn = nil
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, s.config.MaxRetries+1, lastErr)
}

// parseURL parses an ldap:// or ldaps:// endpoint.
func parseURL(raw string) (*serverInfo, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid LDAP URL %q: %w", raw, err)
	}

	switch u.Scheme {
	case "ldap", "ldaps":
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q in %q", u.Scheme, raw)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("no hostname in LDAP URL %q", raw)
	}

	return &serverInfo{
		url:    raw,
		host:   u.Hostname(),
		useTLS: u.Scheme == "ldaps",
	}, nil
}

// RootDNFromBindDN derives the naming context from a DN-form bind identity by
// taking everything from its first domain component onwards, e.g.
// "CN=Administrator,CN=Users,DC=example,DC=com" yields "DC=example,DC=com".
func RootDNFromBindDN(bindDN string) string {
	idx := strings.Index(strings.ToUpper(bindDN), "DC=")
	if idx < 0 {
		return ""
	}
	return bindDN[idx:]
}
