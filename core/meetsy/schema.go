package meetsy

import "github.com/m3rciful/meetsy/core/forms"

// CreateSchema describes the create modal.
func CreateSchema() forms.Schema {
	return forms.Schema{
		FormID: FormCreate,
		Fields: []forms.FieldSpec{
			{FieldGroupID: BlockDuration, ActionID: ActionDuration, Label: "Duration", Required: true},
			{FieldGroupID: BlockFrequency, ActionID: ActionFrequency, Label: "Frequency", Required: true},
			{FieldGroupID: BlockJoin, ActionID: ActionJoinType, Label: "Join", Required: true},
		},
	}
}
