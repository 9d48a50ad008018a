package session

import (
	"strings"
)

// EscapeDNValue escapes a relative distinguished name attribute value per
// RFC 4514: the characters , + " \ < > ; always, a leading #, and leading or
// trailing spaces. NUL bytes become \00.
func EscapeDNValue(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)

	last := len(value) - 1
	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '#':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case ' ':
			if i == 0 || i == last {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case 0:
			b.WriteString(`\00`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// UnescapeDNValue reverses EscapeDNValue, restoring the original attribute
// value from its RFC 4514 escaped form. Hex pair escapes such as \2c are
// decoded; a dangling backslash is preserved as-is.
func UnescapeDNValue(value string) string {
	if !strings.Contains(value, "\\") {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' || i == len(value)-1 {
			b.WriteByte(c)
			continue
		}

		if i+2 < len(value) {
			if hi, ok := hexVal(value[i+1]); ok {
				if lo, ok := hexVal(value[i+2]); ok {
					b.WriteByte(hi<<4 | lo)
					i += 2
					continue
				}
			}
		}

		i++
		b.WriteByte(value[i])
	}

	return b.String()
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
