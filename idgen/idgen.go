// CLAUDE:SUMMARY Pluggable ID generators (UUIDv7, prefixed, timestamped) and filename slugs for archive rows and exports.
// Package idgen provides pluggable ID generation.
//
// The archive keys sessions and sources with prefixed UUIDv7 values; the
// Markdown export names files with timestamped IDs so a directory listing
// sorts chronologically.
package idgen

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns RFC 9562 version 7 UUIDs, which sort by creation time.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix ("ses_", "src_") to every ID of gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Timestamped returns a Generator that produces IDs in the format
// "20060102T150405Z_<suffix>" where suffix comes from the inner generator.
// now may be nil, in which case time.Now is used.
func Timestamped(gen Generator, now func() time.Time) Generator {
	if now == nil {
		now = time.Now
	}
	return func() string {
		return now().UTC().Format("20060102T150405Z") + "_" + gen()
	}
}

// Default is the generator used by the archive and the export.
var Default Generator = UUIDv7()

// Slug lowercases s and keeps letters and digits, joining runs of anything
// else with a single '-'. The result is at most max runes (0 means no cap).
func Slug(s string, max int) string {
	var b strings.Builder
	n := 0
	dash := false
	for _, r := range strings.ToLower(s) {
		if max > 0 && n >= max {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
				n++
				if max > 0 && n >= max {
					break
				}
			}
			dash = false
			b.WriteRune(r)
			n++
			continue
		}
		dash = true
	}
	return strings.TrimRight(b.String(), "-")
}
