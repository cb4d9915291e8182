package helpers

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// DisplayName is "@username", or the user's full name when no username is set.
func DisplayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
