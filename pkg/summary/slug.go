package summary

import "strings"

// Slugify derives a stable identifier from a topic: lowercase, every
// maximal run of characters outside [a-z0-9] collapsed to a single '-',
// no leading or trailing '-'. Idempotent. Distinct topics can collide;
// callers needing uniqueness must disambiguate themselves.
func Slugify(topic string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(topic) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		} else {
			pending = true
		}
	}
	return b.String()
}
