// Package events holds the platform-neutral shapes of inbound Slack events.
package events

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/meetsy/core/forms"
)

// CommandEvent is a slash command invocation.
type CommandEvent struct {
	CommandName string
	ChannelID   string
	ChannelName string
	UserID      string
	UserName    string
	TriggerID   string
	Text        string
	TeamID      string
	ResponseURL string
}

// ActionEvent is a single interactive element action (button, select).
type ActionEvent struct {
	ActionID  string
	BlockID   string
	TriggerID string
	UserID    string
	ChannelID string
	TeamID    string
	// Payload is the raw JSON of the action element.
	Payload json.RawMessage
}

// Value reads a field from the action payload with a gjson path, e.g.
// "selected_option.value". Missing paths yield "".
func (e ActionEvent) Value(path string) string {
	if len(e.Payload) == 0 {
		return ""
	}
	return gjson.GetBytes(e.Payload, path).String()
}

// ViewSubmissionEvent is a modal submit.
type ViewSubmissionEvent struct {
	CallbackID      string
	PrivateMetadata string
	UserID          string
	TeamID          string
	TriggerID       string
	State           forms.State
}

// Metadata reads a field from PrivateMetadata when it holds JSON.
func (e ViewSubmissionEvent) Metadata(path string) string {
	if !gjson.Valid(e.PrivateMetadata) {
		return ""
	}
	return gjson.Get(e.PrivateMetadata, path).String()
}
