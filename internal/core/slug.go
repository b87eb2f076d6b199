package core

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// Slugify derives a URL-safe identifier from a display name: lower-case,
// "&" spelled out, every other non-alphanumeric run collapsed to a single
// hyphen. The transform is deterministic so the same name always produces
// the same slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// FirmSlug derives a slug for a firm or individual name. Distinct firms whose
// names collapse to the same base slug must remain distinguishable, so the
// base slug carries a short stable hash of the raw name.
func FirmSlug(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	suffix := fmt.Sprintf("%08x", h.Sum32())

	base := Slugify(name)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
