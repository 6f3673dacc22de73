package whatsapp

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

func textEvent(user, text string, fromMe bool) *events.Message {
	evt := &events.Message{Message: &waE2E.Message{Conversation: &text}}
	evt.Info.Sender = types.NewJID(user, types.DefaultUserServer)
	evt.Info.IsFromMe = fromMe
	return evt
}

func TestFromEvent(t *testing.T) {
	msg, ok := FromEvent(textEvent("972501234567", "Yes!", false))
	assert.True(t, ok)
	assert.Equal(t, Message{Phone: "972501234567", Text: "Yes!"}, msg)

	extended := "count me in"
	evt := &events.Message{Message: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: &extended}}}
	evt.Info.Sender = types.NewJID("972501234567", types.DefaultUserServer)
	msg, ok = FromEvent(evt)
	assert.True(t, ok)
	assert.Equal(t, "count me in", msg.Text)

	_, ok = FromEvent(textEvent("972501234567", "  ", false))
	assert.False(t, ok)
	_, ok = FromEvent(&events.Message{})
	assert.False(t, ok)
	_, ok = FromEvent(nil)
	assert.False(t, ok)
}

func TestHandleMessageSkipsOwnMessages(t *testing.T) {
	s := &Service{log: zerolog.Nop()}
	var seen []string
	s.SetMessageHandler(func(msg *events.Message) error {
		seen = append(seen, msg.Message.GetConversation())
		return errors.New("logged, not returned")
	})

	s.eventHandler(textEvent("972501234567", "from me", true))
	s.eventHandler(textEvent("972501234567", "from guest", false))
	s.eventHandler(&events.Connected{})

	assert.Equal(t, []string{"from guest"}, seen)
}
