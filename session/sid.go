package session

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
)

// SIDFromBytes converts a binary objectSid to its S-1-5-21-... string form.
func SIDFromBytes(b []byte) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("binary SID cannot be empty")
	}
	sid := objectsid.Decode(b)
	return sid.String(), nil
}

// SIDFromEntry extracts the objectSid of an entry as a string, returning the
// empty string when absent. String-valued objectSid attributes (as produced
// by test fixtures) pass through when they already look like a SID.
func SIDFromEntry(entry *ldap.Entry) string {
	if entry == nil {
		return ""
	}

	// Binary SIDs start with the revision byte 0x01 followed by the
	// subauthority count; anything else is not the wire form.
	raw := entry.GetRawAttributeValue("objectSid")
	if len(raw) >= 8 && raw[0] == 1 && len(raw) == 8+4*int(raw[1]) {
		if s, err := SIDFromBytes(raw); err == nil {
			return s
		}
	}

	if s := entry.GetAttributeValue("objectSid"); strings.HasPrefix(s, "S-") {
		return s
	}

	return ""
}
