package forms

import (
	"fmt"
	"strings"
)

// FieldError is a message attached to a single field group.
type FieldError struct {
	FieldGroupID string
	Message      string
}

// FieldErrors keeps field errors in schema declaration order.
type FieldErrors []FieldError

// Map converts the errors into the block id -> message form Slack expects.
func (fe FieldErrors) Map() map[string]string {
	if len(fe) == 0 {
		return nil
	}
	out := make(map[string]string, len(fe))
	for _, e := range fe {
		out[e.FieldGroupID] = e.Message
	}
	return out
}

// Groups returns the field group ids in order.
func (fe FieldErrors) Groups() []string {
	out := make([]string, len(fe))
	for i, e := range fe {
		out[i] = e.FieldGroupID
	}
	return out
}

// ValidationError is the failure carried out of a handler when a submission
// does not satisfy its schema. The router renders it as an errors ack.
type ValidationError struct {
	FormID string
	Errors FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("forms: %s invalid: %s", e.FormID, strings.Join(e.Errors.Groups(), ","))
}

// Code is picked up by the dispatch summary log as err_code.
func (e *ValidationError) Code() string { return "VALIDATION_FAILED" }

// Result is the outcome of Validate. Exactly one of Values or Errors is set.
type Result struct {
	FormID string
	Values map[string]string
	Errors FieldErrors
}

// Valid reports whether every required field was present.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns a *ValidationError for invalid results and nil otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{FormID: r.FormID, Errors: r.Errors}
}

// RequiredMessage is the error text for a missing required field.
func RequiredMessage(label string) string {
	return label + " is required"
}

// Validate checks state against schema, walking fields in declaration order.
// A missing field group is treated exactly like an Absent value.
func Validate(schema Schema, state State) Result {
	var errs FieldErrors
	for _, f := range schema.Fields {
		if f.Required && !state.Lookup(f.FieldGroupID, f.ActionID).Present() {
			errs = append(errs, FieldError{FieldGroupID: f.FieldGroupID, Message: RequiredMessage(f.Label)})
		}
	}
	if len(errs) > 0 {
		return Result{FormID: schema.FormID, Errors: errs}
	}

	values := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		values[f.FieldGroupID] = state.Lookup(f.FieldGroupID, f.ActionID).Value
	}
	return Result{FormID: schema.FormID, Values: values}
}
