package ack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/meetsy/core/forms"
)

func TestBuilders(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	assert.Equal(t, "empty", Empty().Kind.String())

	txt := Text("hello")
	assert.Equal(t, KindText, txt.Kind)
	assert.Equal(t, "hello", txt.Text)

	push := PushView("CreateMeetsyModal", "trig-1").WithMetadata(`{"form":"meetsy-create"}`)
	assert.Equal(t, KindPushView, push.Kind)
	assert.Equal(t, "CreateMeetsyModal", push.Template)
	assert.Equal(t, "trig-1", push.TriggerID)
	assert.Equal(t, `{"form":"meetsy-create"}`, push.PrivateMetadata)
	assert.Equal(t, "push_view", push.Kind.String())
}

func TestErrorsCopiesInput(t *testing.T) {
	in := forms.FieldErrors{{FieldGroupID: "frequency-block", Message: "Frequency is required"}}
	resp := Errors(in)
	in[0].Message = "changed"

	assert.Equal(t, KindErrors, resp.Kind)
	assert.Equal(t, map[string]string{"frequency-block": "Frequency is required"}, resp.Errors.Map())
}

func TestKindString(t *testing.T) {
	for kind, want := range map[Kind]string{
		KindEmpty:    "empty",
		KindText:     "text",
		KindErrors:   "errors",
		KindPushView: "push_view",
		Kind(99):     "empty",
	} {
		assert.Equal(t, want, kind.String())
	}
}
