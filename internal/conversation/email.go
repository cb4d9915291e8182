package conversation

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}
