package slackbot

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWebAPI struct {
	profile  *slack.UserProfile
	err      error
	opened   []slack.ModalViewRequest
	triggers []string
	posted   []string
}

func (f *fakeWebAPI) GetUserProfileContext(_ context.Context, p *slack.GetUserProfileParameters) (*slack.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeWebAPI) OpenViewContext(_ context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.triggers = append(f.triggers, triggerID)
	f.opened = append(f.opened, view)
	return &slack.ViewResponse{}, nil
}

func (f *fakeWebAPI) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.posted = append(f.posted, channelID)
	return channelID, "1700000000.000100", nil
}

type mapTemplates map[string]slack.ModalViewRequest

func (m mapTemplates) Modal(name string) (slack.ModalViewRequest, error) {
	v, ok := m[name]
	if !ok {
		return v, errors.New("unknown template")
	}
	return v, nil
}

func testTemplates() mapTemplates {
	return mapTemplates{"CreateMeetsyModal": {Type: slack.VTModal, CallbackID: "meetsy-create"}}
}

func TestAPIOpenView(t *testing.T) {
	web := &fakeWebAPI{}
	api := NewAPI(web, testTemplates())

	require.NoError(t, api.OpenView(context.Background(), "CreateMeetsyModal", "trig-1", `{"form":"meetsy-create"}`))
	require.Len(t, web.opened, 1)
	assert.Equal(t, "trig-1", web.triggers[0])
	assert.Equal(t, `{"form":"meetsy-create"}`, web.opened[0].PrivateMetadata)

	assert.Error(t, api.OpenView(context.Background(), "Missing", "trig-2", ""))
	assert.Len(t, web.opened, 1)
}

func TestAPIWrapsErrors(t *testing.T) {
	cause := errors.New("user_not_found")
	api := NewAPI(&fakeWebAPI{err: cause}, nil)

	_, err := api.GetUserProfile(context.Background(), "U1")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, api.PostMessage(context.Background(), "C1", "hi"), cause)
	assert.Error(t, api.OpenView(context.Background(), "CreateMeetsyModal", "t", ""))
}

func TestAPIGetUserProfile(t *testing.T) {
	api := NewAPI(&fakeWebAPI{profile: &slack.UserProfile{RealName: "Ada Lovelace"}}, nil)
	p, err := api.GetUserProfile(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.RealName)
}
