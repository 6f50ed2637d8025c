// Package forms declares modal form schemas and validates submitted view state
// against them.
package forms

// Kind tags a SubmittedValue.
type Kind int

const (
	// Absent marks an input the user left empty.
	Absent Kind = iota
	// SelectedOption is the value of a chosen select option.
	SelectedOption
	// Text is the content of a plain text input.
	Text
)

func (k Kind) String() string {
	switch k {
	case SelectedOption:
		return "selected_option"
	case Text:
		return "text"
	default:
		return "absent"
	}
}

// SubmittedValue is what a single input carried in a view submission.
type SubmittedValue struct {
	Kind  Kind
	Value string
}

// Present reports whether the value carries user input.
func (v SubmittedValue) Present() bool {
	return v.Kind != Absent
}

// Option builds a SelectedOption value.
func Option(value string) SubmittedValue {
	return SubmittedValue{Kind: SelectedOption, Value: value}
}

// TextValue builds a Text value.
func TextValue(value string) SubmittedValue {
	return SubmittedValue{Kind: Text, Value: value}
}

// State is the submitted view state: field group (block id) -> action id -> value.
type State map[string]map[string]SubmittedValue

// Lookup returns the value at group/action. Missing entries read as Absent.
func (s State) Lookup(group, action string) SubmittedValue {
	actions, ok := s[group]
	if !ok {
		return SubmittedValue{}
	}
	return actions[action]
}
