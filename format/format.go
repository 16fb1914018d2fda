// Package format holds the text conventions shared by every TRX producer:
// display-name sanitization, duration and timestamp rendering, path
// normalization and GUID generation.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MalformedNameError reports a section name whose '[' tag was never closed.
// Names are user input, so the offending text travels with the error.
type MalformedNameError struct {
	Name string
}

func (e *MalformedNameError) Error() string {
	return fmt.Sprintf("unclosed [tag] in name: %q", e.Name)
}

// SanitizeName converts a raw section name into a TRX display name.
// Bracketed tags are removed along with one of the spaces surrounding them,
// commas are removed entirely, and the result is trimmed of leading and
// trailing whitespace. An unterminated '[' is an error, not a best-effort
// cleanup.
func SanitizeName(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	var last byte
	for i := 0; i < len(raw); {
		switch raw[i] {
		case '[':
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				return "", &MalformedNameError{Name: raw}
			}
			i += end + 1
			// "Foo [bar] Baz" keeps a single space between Foo and Baz.
			if last == ' ' && i < len(raw) && raw[i] == ' ' {
				i++
			}
		case ',':
			i++
		default:
			last = raw[i]
			b.WriteByte(last)
			i++
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// NormalizePath lower-cases ASCII letters and flips backslashes to forward
// slashes. It exists so path prefix comparisons ignore case and separator
// style; the result is never emitted directly.
func NormalizePath(p string) string {
	b := []byte(p)
	for i, c := range b {
		switch {
		case c == '\\':
			b[i] = '/'
		case 'A' <= c && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Duration renders d as HH:MM:SS.fffffff, the fixed-width 100-nanosecond-tick
// form TRX consumers expect. Hours saturate at 99 because the field is two
// digits wide; negative durations render as zero.
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	nanos := d.Nanoseconds()
	totalSeconds := nanos / int64(time.Second)
	hours := totalSeconds / 3600
	if hours > 99 {
		hours = 99
	}
	return fmt.Sprintf("%02d:%02d:%02d.%07d",
		hours,
		(totalSeconds/60)%60,
		totalSeconds%60,
		(nanos/100)%10000000)
}

// Timestamp renders t in UTC at second resolution, e.g.
// "2024-05-01T13:37:42Z".
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// NewGUID returns a fresh random identifier in the 8-4-4-4-12 hex form TRX
// uses for test, execution and run ids.
func NewGUID() string {
	return uuid.New().String()
}
