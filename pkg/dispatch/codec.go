package dispatch

import (
	"strings"

	"cnc-dispatch-go/pkg/log"
)

// splitLine parses a settings line into key and value. Lines starting
// with '$' split on the first '=', lines starting with '[' on the
// first ']'. The returned value is nil when no separator was found,
// and non-nil (possibly empty) when one was.
func splitLine(line string) (string, *string) {
	sep := byte('=')
	if line[0] == '[' {
		sep = ']'
	}
	body := line[1:]
	if i := strings.IndexByte(body, sep); i >= 0 {
		v := body[i+1:]
		return strings.TrimSpace(body[:i]), &v
	}
	return strings.TrimSpace(body), nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodeValue replaces %HH escape sequences with the byte named by the
// hex number HH. A malformed escape logs an error and truncates the
// result at that point.
func decodeValue(s string, out log.LineWriter) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' {
			if len(s)-i-1 < 2 {
				log.ErrorTo(out, "Bad %% encoding - too short")
				return b.String()
			}
			hi, okHi := hexVal(s[i+1])
			lo, okLo := hexVal(s[i+2])
			if !okHi || !okLo {
				log.ErrorTo(out, "Bad %% encoding - not hex")
				return b.String()
			}
			c = hi<<4 | lo
			i += 2
		}
		b.WriteByte(c)
	}
	return b.String()
}

// encodeValue escapes the realtime control characters so a displayed
// value never injects them into the stream.
func encodeValue(clear string) string {
	var b strings.Builder
	for i := 0; i < len(clear); i++ {
		switch c := clear[i]; c {
		case '%':
			b.WriteString("%25")
		case '!': // feed hold
			b.WriteString("%21")
		case '?': // status report
			b.WriteString("%3F")
		case '~': // cycle start
			b.WriteString("%7E")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
