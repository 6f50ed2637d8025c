package slackbot

import (
	"encoding/json"
	"strings"

	"github.com/slack-go/slack"

	"github.com/m3rciful/meetsy/core/forms"
	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/slackbot/events"
)

// CommandFromSlash converts a slash command payload.
func CommandFromSlash(cmd slack.SlashCommand) events.CommandEvent {
	return events.CommandEvent{
		CommandName: cmd.Command,
		ChannelID:   cmd.ChannelID,
		ChannelName: cmd.ChannelName,
		UserID:      cmd.UserID,
		UserName:    cmd.UserName,
		TriggerID:   cmd.TriggerID,
		Text:        cmd.Text,
		TeamID:      cmd.TeamID,
		ResponseURL: cmd.ResponseURL,
	}
}

// ActionsFromCallback converts every block action of a block_actions payload.
func ActionsFromCallback(cb slack.InteractionCallback) []events.ActionEvent {
	out := make([]events.ActionEvent, 0, len(cb.ActionCallback.BlockActions))
	for _, a := range cb.ActionCallback.BlockActions {
		if a == nil {
			continue
		}
		raw, err := json.Marshal(a)
		if err != nil {
			raw = nil
		}
		out = append(out, events.ActionEvent{
			ActionID:  a.ActionID,
			BlockID:   a.BlockID,
			TriggerID: cb.TriggerID,
			UserID:    cb.User.ID,
			ChannelID: cb.Channel.ID,
			TeamID:    cb.Team.ID,
			Payload:   raw,
		})
	}
	return out
}

// ViewFromCallback converts a view_submission payload.
func ViewFromCallback(cb slack.InteractionCallback) events.ViewSubmissionEvent {
	ev := events.ViewSubmissionEvent{
		CallbackID:      cb.View.CallbackID,
		PrivateMetadata: cb.View.PrivateMetadata,
		UserID:          cb.User.ID,
		TeamID:          cb.Team.ID,
		TriggerID:       cb.TriggerID,
	}
	if cb.View.State != nil {
		ev.State = StateFromView(cb.View.State.Values)
	} else {
		ev.State = forms.State{}
	}
	return ev
}

// StateFromView maps submitted block values to tagged values. Inputs the
// user left empty come back as Absent.
func StateFromView(values map[string]map[string]slack.BlockAction) forms.State {
	state := make(forms.State, len(values))
	for group, actions := range values {
		inner := make(map[string]forms.SubmittedValue, len(actions))
		for id, a := range actions {
			inner[id] = submittedValue(a)
		}
		state[group] = inner
	}
	return state
}

// submittedValue reduces one input to a single value. Multi-selects join
// their values with a comma in selection order; an empty selection is Absent.
func submittedValue(a slack.BlockAction) forms.SubmittedValue {
	switch {
	case a.SelectedOption.Value != "":
		return forms.Option(a.SelectedOption.Value)
	case a.Value != "":
		return forms.TextValue(a.Value)
	case a.SelectedDate != "":
		return forms.TextValue(a.SelectedDate)
	case a.SelectedUser != "":
		return forms.TextValue(a.SelectedUser)
	case a.SelectedChannel != "":
		return forms.TextValue(a.SelectedChannel)
	case a.SelectedConversation != "":
		return forms.TextValue(a.SelectedConversation)
	case a.SelectedTime != "":
		return forms.TextValue(a.SelectedTime)
	case len(a.SelectedOptions) > 0:
		values := make([]string, 0, len(a.SelectedOptions))
		for _, o := range a.SelectedOptions {
			values = append(values, o.Value)
		}
		return forms.Option(strings.Join(values, ","))
	case len(a.SelectedUsers) > 0:
		return forms.TextValue(strings.Join(a.SelectedUsers, ","))
	case len(a.SelectedChannels) > 0:
		return forms.TextValue(strings.Join(a.SelectedChannels, ","))
	case len(a.SelectedConversations) > 0:
		return forms.TextValue(strings.Join(a.SelectedConversations, ","))
	}
	return forms.SubmittedValue{Kind: forms.Absent}
}

// metaFromCommand and metaFromCallback feed the logger context.
func metaFromCommand(cmd slack.SlashCommand) logger.Meta {
	return logger.Meta{TeamID: cmd.TeamID, ChannelID: cmd.ChannelID, UserID: cmd.UserID}
}

func metaFromCallback(cb slack.InteractionCallback) logger.Meta {
	return logger.Meta{TeamID: cb.Team.ID, ChannelID: cb.Channel.ID, UserID: cb.User.ID}
}
