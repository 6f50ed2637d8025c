package slackbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/m3rciful/meetsy/core/forms"
	"github.com/m3rciful/meetsy/core/slackbot/ack"
	"github.com/m3rciful/meetsy/core/slackbot/events"
)

type RouterSuite struct {
	suite.Suite
	router *Router
	ctx    context.Context
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.router = NewRouter()
	s.ctx = context.Background()
}

func textCommand(msg string) CommandHandler {
	return func(context.Context, events.CommandEvent) (ack.Response, error) {
		return ack.Text(msg), nil
	}
}

func textView(msg string) ViewHandler {
	return func(context.Context, events.ViewSubmissionEvent) (ack.Response, error) {
		return ack.Text(msg), nil
	}
}

func (s *RouterSuite) TestCommandDispatchIsKeyExact() {
	s.router.RegisterCommand("/meetsycreate", textCommand("create"))
	s.router.RegisterCommand("meetsy-enroll", textCommand("enroll"))

	resp := s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "/meetsycreate"})
	s.Equal(ack.Text("create"), resp)

	resp = s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "/meetsy-enroll"})
	s.Equal(ack.Text("enroll"), resp)

	resp = s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "/meetsycreat"})
	s.Equal(ack.KindText, resp.Kind)
	s.Equal("Sorry, I don't know the command /meetsycreat.", resp.Text)
}

func (s *RouterSuite) TestCommandLastWriteWins() {
	s.router.RegisterCommand("/meetsycreate", textCommand("first"))
	s.router.RegisterCommand("/meetsycreate", textCommand("second"))

	resp := s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "meetsycreate"})
	s.Equal("second", resp.Text)
	s.Equal([]string{"/meetsycreate"}, s.router.Routes().Commands)
}

func (s *RouterSuite) TestCommandLookup() {
	s.router.RegisterCommand("/meetsycreate", textCommand("create"))

	h, err := s.router.Command("meetsycreate")
	s.Require().NoError(err)
	s.NotNil(h)

	_, err = s.router.Command("/nope")
	s.ErrorIs(err, ErrUnregisteredCommand)
}

func (s *RouterSuite) TestRegisterSkipsInvalid() {
	s.router.RegisterCommand("", textCommand("x"))
	s.router.RegisterCommand("/nil", nil)
	s.router.RegisterAction("a", nil)
	s.router.RegisterViewSubmission("v", nil)

	routes := s.router.Routes()
	s.Empty(routes.Commands)
	s.Empty(routes.Actions)
	s.Empty(routes.Views)
}

func (s *RouterSuite) TestUnregisteredActionIsEmptyAck() {
	resp := s.router.DispatchAction(s.ctx, events.ActionEvent{ActionID: "unknown-action"})
	s.True(resp.IsEmpty())
}

func (s *RouterSuite) TestActionDispatch() {
	var seen string
	s.router.RegisterAction("create-duration-selection-action", func(_ context.Context, ev events.ActionEvent) (ack.Response, error) {
		seen = ev.Value("selected_option.value")
		return ack.Empty(), nil
	})

	resp := s.router.DispatchAction(s.ctx, events.ActionEvent{
		ActionID: "create-duration-selection-action",
		Payload:  []byte(`{"selected_option":{"value":"30"}}`),
	})
	s.True(resp.IsEmpty())
	s.Equal("30", seen)
}

// Two forms registered under the blank callback id collide; the later one wins.
func (s *RouterSuite) TestBlankCallbackIDCollision() {
	s.router.RegisterViewSubmission("", textView("first form"))
	s.router.RegisterViewSubmission("", textView("second form"))

	resp := s.router.DispatchViewSubmission(s.ctx, events.ViewSubmissionEvent{CallbackID: ""})
	s.Equal("second form", resp.Text)
}

func (s *RouterSuite) TestUnregisteredViewFallback() {
	resp := s.router.DispatchViewSubmission(s.ctx, events.ViewSubmissionEvent{CallbackID: "gone"})
	s.Equal(ack.KindText, resp.Kind)

	s.router.SetViewNotFound(func(context.Context, events.ViewSubmissionEvent) (ack.Response, error) {
		return ack.Empty(), nil
	})
	resp = s.router.DispatchViewSubmission(s.ctx, events.ViewSubmissionEvent{CallbackID: "gone"})
	s.True(resp.IsEmpty())
}

func (s *RouterSuite) TestUnknownCommandFallback() {
	resp := s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "/other"})
	s.Equal(ack.Text("Sorry, I don't know the command /other."), resp)

	resp = s.router.DispatchCommand(s.ctx, events.CommandEvent{})
	s.Equal(ack.Text("Sorry, I don't know that command."), resp)
}

func (s *RouterSuite) TestCustomCommandNotFound() {
	s.router.SetCommandNotFound(textCommand("try /meetsycreate"))
	s.router.SetCommandNotFound(nil)

	resp := s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "/other"})
	s.Equal("try /meetsycreate", resp.Text)
}

func (s *RouterSuite) TestValidationErrorBecomesErrorsAck() {
	schema := forms.Schema{
		FormID: "meetsy-create",
		Fields: []forms.FieldSpec{{FieldGroupID: "frequency-block", ActionID: "f", Label: "Frequency", Required: true}},
	}
	s.router.RegisterViewSubmission("meetsy-create", func(_ context.Context, ev events.ViewSubmissionEvent) (ack.Response, error) {
		res := forms.Validate(schema, ev.State)
		if err := res.Err(); err != nil {
			return ack.Response{}, fmt.Errorf("create: %w", err)
		}
		return ack.Empty(), nil
	})

	resp := s.router.DispatchViewSubmission(s.ctx, events.ViewSubmissionEvent{CallbackID: "meetsy-create", State: forms.State{}})
	s.Equal(ack.KindErrors, resp.Kind)
	s.Equal(map[string]string{"frequency-block": "Frequency is required"}, resp.Errors.Map())
}

func (s *RouterSuite) TestHandlerErrorBecomesFailureText() {
	s.router.RegisterCommand("/broken", func(context.Context, events.CommandEvent) (ack.Response, error) {
		return ack.Empty(), errors.New("boom")
	})

	resp := s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "/broken"})
	s.Equal(ack.Text(FailureMessage), resp)
}

func (s *RouterSuite) TestPanicIsRecovered() {
	s.router.RegisterAction("explode", func(context.Context, events.ActionEvent) (ack.Response, error) {
		panic("kaboom")
	})
	s.router.RegisterAction("fine", func(context.Context, events.ActionEvent) (ack.Response, error) {
		return ack.Empty(), nil
	})

	var resp ack.Response
	s.NotPanics(func() {
		resp = s.router.DispatchAction(s.ctx, events.ActionEvent{ActionID: "explode"})
	})
	s.Equal(ack.Text(FailureMessage), resp)
	s.True(s.router.DispatchAction(s.ctx, events.ActionEvent{ActionID: "fine"}).IsEmpty())
}

func (s *RouterSuite) TestConcurrentDispatchAndRegistration() {
	s.router.RegisterCommand("/meetsycreate", textCommand("create"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			resp := s.router.DispatchCommand(s.ctx, events.CommandEvent{CommandName: "/meetsycreate"})
			s.Equal("create", resp.Text)
		}()
		go func(i int) {
			defer wg.Done()
			s.router.RegisterAction(fmt.Sprintf("action-%d", i), func(context.Context, events.ActionEvent) (ack.Response, error) {
				return ack.Empty(), nil
			})
		}(i)
	}
	wg.Wait()
	s.Len(s.router.Routes().Actions, 50)
}

func (s *RouterSuite) TestDeriveErrorCode() {
	verr := &forms.ValidationError{FormID: "x"}
	s.Equal("VALIDATION_FAILED", deriveErrorCode(fmt.Errorf("wrap: %w", verr)))
	s.Equal("ERRORSTRING", deriveErrorCode(errors.New("plain")))
	s.Equal("", deriveErrorCode(nil))
}

func (s *RouterSuite) TestNormalizeHandlerName() {
	s.Equal("meetsycreate", normalizeHandlerName("/meetsycreate"))
	s.Equal("unknown", normalizeHandlerName(" "))
	s.Equal("a_b", normalizeHandlerName("A B"))
}
