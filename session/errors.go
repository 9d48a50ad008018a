package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Category represents broad classes of directory errors.
type Category string

const (
	CategoryConnection     Category = "connection"
	CategoryAuthentication Category = "authentication"
	CategoryPermission     Category = "permission"
	CategoryNotFound       Category = "not_found"
	CategoryConflict       Category = "conflict"
	CategoryValidation     Category = "validation"
	CategoryServer         Category = "server"
	CategoryUnknown        Category = "unknown"
)

// DirectoryError annotates a failed directory operation with its LDAP result
// code, a category, and whether the condition is worth retrying.
type DirectoryError struct {
	Operation string
	Category  Category
	Code      uint16
	DN        string
	Retryable bool
	Cause     error
}

func (e *DirectoryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ldap %s failed", e.Operation)
	if e.Code > 0 {
		fmt.Fprintf(&b, " (%s, code %d)", ldap.LDAPResultCodeMap[e.Code], e.Code)
	}
	if e.DN != "" {
		fmt.Fprintf(&b, " for %s", e.DN)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %s", e.Cause.Error())
	}
	return b.String()
}

func (e *DirectoryError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the failed operation may succeed on retry.
func (e *DirectoryError) IsRetryable() bool {
	return e.Retryable
}

// wrapError annotates an operation failure. Errors that are already
// DirectoryError values pass through unchanged.
func wrapError(operation, dn string, err error) error {
	if err == nil {
		return nil
	}

	var de *DirectoryError
	if errors.As(err, &de) {
		return err
	}

	wrapped := &DirectoryError{
		Operation: operation,
		DN:        dn,
		Cause:     err,
	}

	var le *ldap.Error
	if errors.As(err, &le) {
		wrapped.Code = le.ResultCode
		wrapped.Category = categorize(le.ResultCode)
		wrapped.Retryable = retryableCode(le.ResultCode)
	} else {
		wrapped.Category = categorizeGeneric(err)
		wrapped.Retryable = wrapped.Category == CategoryConnection
	}

	return wrapped
}

// categorize maps an LDAP result code to an error category.
func categorize(code uint16) Category {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return CategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return CategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return CategoryNotFound

	case ldap.LDAPResultEntryAlreadyExists,
		ldap.LDAPResultAttributeOrValueExists,
		ldap.LDAPResultObjectClassViolation,
		ldap.LDAPResultNotAllowedOnNonLeaf:
		return CategoryConflict

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation:
		return CategoryValidation

	case ldap.LDAPResultBusy,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultServerDown,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return CategoryServer

	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return CategoryConnection

	default:
		return CategoryUnknown
	}
}

// categorizeGeneric classifies non-LDAP errors by message inspection.
func categorizeGeneric(err error) Category {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "connection reset"):
		return CategoryConnection
	case strings.Contains(msg, "credentials"),
		strings.Contains(msg, "authentication"):
		return CategoryAuthentication
	default:
		return CategoryUnknown
	}
}

// retryableCode reports whether an LDAP result code indicates a transient
// server-side condition.
func retryableCode(code uint16) bool {
	switch code {
	case ldap.LDAPResultBusy,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultServerDown,
		ldap.LDAPResultConnectError:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var de *DirectoryError
	if errors.As(err, &de) {
		return de.IsRetryable()
	}

	var le *ldap.Error
	if errors.As(err, &le) {
		return retryableCode(le.ResultCode)
	}

	return categorizeGeneric(err) == CategoryConnection
}

// IsNotFound reports whether an error indicates a missing entry or attribute.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var de *DirectoryError
	if errors.As(err, &de) {
		return de.Category == CategoryNotFound
	}

	var le *ldap.Error
	if errors.As(err, &le) {
		return categorize(le.ResultCode) == CategoryNotFound
	}

	return false
}

// IsConflict reports whether an error indicates an already-existing entry or
// value.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var de *DirectoryError
	if errors.As(err, &de) {
		return de.Category == CategoryConflict
	}

	var le *ldap.Error
	if errors.As(err, &le) {
		return categorize(le.ResultCode) == CategoryConflict
	}

	return false
}
