package capture

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// jobIDPattern matches a lowercase hyphenated UUID anywhere in a string.
var jobIDPattern = regexp.MustCompile(`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)

// jobURLMarkers are the URL shapes known to carry a job ID.
var jobURLMarkers = []string{"/jobs/", "cdn.midjourney.com"}

// ExtractJobID recovers the job ID from a job page or CDN image URL.
func ExtractJobID(rawURL string) (string, bool) {
	known := false
	for _, m := range jobURLMarkers {
		if strings.Contains(rawURL, m) {
			known = true
			break
		}
	}
	if !known {
		return "", false
	}
	match := jobIDPattern.FindString(rawURL)
	if match == "" {
		return "", false
	}
	return ParseJobID(match)
}

// ParseJobID validates s as a UUID job ID and returns its canonical form.
func ParseJobID(s string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
