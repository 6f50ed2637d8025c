package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionValue(t *testing.T) {
	ev := ActionEvent{
		ActionID: "create-duration-selection-action",
		Payload:  []byte(`{"type":"static_select","selected_option":{"text":{"text":"30 min"},"value":"30"}}`),
	}
	assert.Equal(t, "30", ev.Value("selected_option.value"))
	assert.Equal(t, "static_select", ev.Value("type"))
	assert.Equal(t, "", ev.Value("missing.path"))
	assert.Equal(t, "", ActionEvent{}.Value("type"))
}

func TestViewMetadata(t *testing.T) {
	ev := ViewSubmissionEvent{PrivateMetadata: `{"form":"meetsy-create","channel":"C1"}`}
	assert.Equal(t, "meetsy-create", ev.Metadata("form"))
	assert.Equal(t, "C1", ev.Metadata("channel"))

	plain := ViewSubmissionEvent{PrivateMetadata: "C1"}
	assert.Equal(t, "", plain.Metadata("form"))
}
