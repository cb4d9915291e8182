// Package commands describes slash commands exposed in the bot menu.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden commands work but are left out of the bot menu.
	Hidden  bool
	Aliases []string
}
