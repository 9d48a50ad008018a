package session

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wellKnownSIDBytes is the binary form of S-1-5-21-1111111111-2222222222-3333333333-1104:
// revision 1, five subauthorities, identifier authority 5.
var wellKnownSIDBytes = []byte{
	0x01, 0x05,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
	0x15, 0x00, 0x00, 0x00, // 21
	0xc7, 0x35, 0x3a, 0x42, // 1111111111
	0x8e, 0x6b, 0x74, 0x84, // 2222222222
	0x55, 0xa1, 0xae, 0xc6, // 3333333333
	0x50, 0x04, 0x00, 0x00, // 1104
}

const wellKnownSIDText = "S-1-5-21-1111111111-2222222222-3333333333-1104"

func TestSIDFromBytes(t *testing.T) {
	sid, err := SIDFromBytes(wellKnownSIDBytes)
	require.NoError(t, err)
	assert.Equal(t, wellKnownSIDText, sid)

	_, err = SIDFromBytes(nil)
	assert.Error(t, err)
}

func TestSIDFromEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *ldap.Entry
		expected string
	}{
		{
			name: "binary SID",
			entry: &ldap.Entry{
				Attributes: []*ldap.EntryAttribute{
					{
						Name:       "objectSid",
						ByteValues: [][]byte{wellKnownSIDBytes},
					},
				},
			},
			expected: wellKnownSIDText,
		},
		{
			name: "string SID",
			entry: &ldap.Entry{
				Attributes: []*ldap.EntryAttribute{
					{
						Name:       "objectSid",
						Values:     []string{wellKnownSIDText},
						ByteValues: [][]byte{[]byte(wellKnownSIDText)},
					},
				},
			},
			expected: wellKnownSIDText,
		},
		{
			name:     "nil entry",
			entry:    nil,
			expected: "",
		},
		{
			name:     "entry without SID",
			entry:    &ldap.Entry{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SIDFromEntry(tt.entry))
		})
	}
}
