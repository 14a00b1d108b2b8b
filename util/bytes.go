package util

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// QuoteBytes renders b as a bytes literal such as b'ack' or b'\x47'.
// Printable ASCII is kept, everything else is escaped.  The literal is
// single-quoted unless b contains a single quote and no double quote.
func QuoteBytes(b []byte) string {
	quote := pickQuote(string(b))

	var sb strings.Builder
	sb.WriteString("b")
	sb.WriteByte(quote)
	for _, c := range b {
		switch {
		case c == '\\' || c == quote:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, `\x%02x`, c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// QuoteText renders s as a quoted string literal using the same quoting
// rules as QuoteBytes, but keeps printable non-ASCII runes.
func QuoteText(s string) string {
	quote := pickQuote(s)

	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\' || r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

func pickQuote(s string) byte {
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		return '"'
	}
	return '\''
}

// HexDump returns a canonical hex+ASCII dump of b without the trailing
// newline.
func HexDump(b []byte) string {
	return strings.TrimRight(hex.Dump(b), "\n")
}
