package session

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// Active Directory stores objectGUID in a mixed-endian layout: the first
// three UUID fields are little-endian, the final eight bytes big-endian.
// These helpers convert between that wire layout and canonical UUID text.

// guidByteLength is the fixed size of a binary objectGUID.
const guidByteLength = 16

// GUIDFromBytes converts a binary objectGUID to canonical UUID text.
func GUIDFromBytes(b []byte) (string, error) {
	if len(b) != guidByteLength {
		return "", fmt.Errorf("invalid objectGUID length: expected %d bytes, got %d", guidByteLength, len(b))
	}

	u, err := uuid.FromBytes(swapGUIDEndianness(b))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// GUIDToBytes converts a UUID string to the binary objectGUID wire layout.
func GUIDToBytes(guid string) ([]byte, error) {
	u, err := uuid.Parse(guid)
	if err != nil {
		return nil, fmt.Errorf("invalid GUID %q: %w", guid, err)
	}
	return swapGUIDEndianness(u[:]), nil
}

// swapGUIDEndianness flips the byte order of the first three UUID fields.
// The transform is its own inverse.
func swapGUIDEndianness(b []byte) []byte {
	out := make([]byte, guidByteLength)
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:])
	return out
}

// GUIDFilter builds a search filter matching an entry by objectGUID. The
// directory requires the binary form in filters.
func GUIDFilter(guid string) (string, error) {
	b, err := GUIDToBytes(guid)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(objectGUID=%s)", ldap.EscapeFilter(string(b))), nil
}

// GUIDFromEntry extracts the objectGUID of an entry as UUID text, returning
// the empty string when absent or malformed.
func GUIDFromEntry(entry *ldap.Entry) string {
	if entry == nil {
		return ""
	}
	raw := entry.GetRawAttributeValue("objectGUID")
	guid, err := GUIDFromBytes(raw)
	if err != nil {
		return ""
	}
	return guid
}
