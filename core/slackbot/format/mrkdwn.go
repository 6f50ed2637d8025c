// Package format renders text for Slack mrkdwn fields.
package format

import "strings"

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape replaces the three control characters Slack requires escaped in
// mrkdwn text. Formatting markers such as * and _ are left alone.
func Escape(text string) string {
	return mrkdwnEscaper.Replace(text)
}
