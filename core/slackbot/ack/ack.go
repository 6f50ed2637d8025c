// Package ack describes the synchronous acknowledgment a handler returns for an
// inbound Slack event. Responses are plain values; encoding into a platform
// payload happens in the transport.
package ack

import "github.com/m3rciful/meetsy/core/forms"

// Kind tags a Response.
type Kind int

const (
	// KindEmpty acknowledges with no payload. A submitted modal closes.
	KindEmpty Kind = iota
	// KindText carries a message: ephemeral for commands, a notice modal
	// for view submissions.
	KindText
	// KindErrors carries per-field validation errors shown inline on the modal.
	KindErrors
	// KindPushView opens or pushes a modal template.
	KindPushView
)

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindErrors:
		return "errors"
	case KindPushView:
		return "push_view"
	default:
		return "empty"
	}
}

// Response is what gets sent back within the ack deadline.
type Response struct {
	Kind Kind

	// Text is set for KindText.
	Text string
	// Errors is set for KindErrors, in field declaration order.
	Errors forms.FieldErrors
	// Template and TriggerID are set for KindPushView.
	Template        string
	TriggerID       string
	PrivateMetadata string
}

// Empty acknowledges receipt with no payload.
func Empty() Response {
	return Response{Kind: KindEmpty}
}

// Text acknowledges with a message shown to the invoking user.
func Text(msg string) Response {
	return Response{Kind: KindText, Text: msg}
}

// Errors keeps a modal open with per-field error messages.
func Errors(errs forms.FieldErrors) Response {
	return Response{Kind: KindErrors, Errors: append(forms.FieldErrors(nil), errs...)}
}

// PushView asks the transport to show the named view template.
func PushView(template, triggerID string) Response {
	return Response{Kind: KindPushView, Template: template, TriggerID: triggerID}
}

// WithMetadata attaches private metadata to a PushView response.
func (r Response) WithMetadata(meta string) Response {
	r.PrivateMetadata = meta
	return r
}

// IsEmpty reports whether the response carries nothing.
func (r Response) IsEmpty() bool {
	return r.Kind == KindEmpty
}
