package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/phone"
)

// ErrNotOnWhatsApp is returned when the recipient has no WhatsApp account
var ErrNotOnWhatsApp = errors.New("number is not registered on WhatsApp")

// MessageHandler is called for every inbound message not sent by us
type MessageHandler func(*events.Message) error

// Message is the sender-agnostic view of an inbound text
type Message struct {
	Phone string
	Text  string
}

// FromEvent extracts the sender phone and text of a message. ok is false for
// messages without text.
func FromEvent(msg *events.Message) (Message, bool) {
	if msg == nil || msg.Message == nil {
		return Message{}, false
	}
	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}
	return Message{Phone: msg.Info.Sender.User, Text: text}, true
}

// Service wraps the whatsmeow client
type Service struct {
	client         *whatsmeow.Client
	countryCode    string
	log            zerolog.Logger
	qrOut          io.Writer
	messageHandler MessageHandler
}

// NewService opens the whatsmeow device store under cfg.DataDir
func NewService(ctx context.Context, cfg config.WhatsAppConfig, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	// whatsmeow falls back to a no-op logger when nil
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	service := &Service{
		client:      whatsmeow.NewClient(deviceStore, nil),
		countryCode: cfg.CountryCode,
		log:         log,
		qrOut:       os.Stdout,
	}
	service.client.AddEventHandler(service.eventHandler)
	return service, nil
}

// Connect connects to WhatsApp. A device that was never paired prints a QR
// code and blocks until pairing finishes.
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		s.printQR(evt.Code)
	}
	return nil
}

func (s *Service) printQR(code string) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(s.qrOut, "QR Code: %s\n", code)
		return
	}
	fmt.Fprintln(s.qrOut, "\n"+q.ToSmallString(false))
	fmt.Fprintln(s.qrOut, "Scan the QR code above in WhatsApp: Settings > Linked Devices > Link a Device")
}

// Disconnect closes the WhatsApp connection
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// SendMessage sends a text message to a phone number in any common format
func (s *Service) SendMessage(ctx context.Context, phoneNumber, message string) error {
	number := phone.Normalize(phoneNumber, s.countryCode)
	jid, err := s.resolve(ctx, number)
	if err != nil {
		return err
	}

	s.log.Debug().Str("jid", jid.String()).Str("phone", number).Msg("Sending message")
	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: &message})
	if err != nil {
		if strings.Contains(err.Error(), "unknown server") || strings.Contains(err.Error(), "can't send message") {
			return fmt.Errorf("failed to send message to %s (JID: %s), the recipient may need to be in your contacts: %w", number, jid, err)
		}
		return fmt.Errorf("failed to send message: %w", err)
	}
	s.log.Info().Str("phone", number).Str("message_id", sent.ID).Msg("Message sent")
	return nil
}

// resolve verifies the number is on WhatsApp and returns its JID
func (s *Service) resolve(ctx context.Context, number string) (types.JID, error) {
	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + number})
	if err != nil {
		return types.JID{}, fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return types.JID{}, fmt.Errorf("%s: %w", number, ErrNotOnWhatsApp)
	}
	return resp[0].JID, nil
}

func (s *Service) eventHandler(evt any) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	}
}

func (s *Service) handleMessage(msg *events.Message) {
	if msg.Info.IsFromMe {
		return
	}
	if s.messageHandler == nil {
		s.log.Debug().Str("sender", msg.Info.Sender.String()).Msg("Received message")
		return
	}
	if err := s.messageHandler(msg); err != nil {
		s.log.Error().Err(err).Str("sender", msg.Info.Sender.String()).Msg("Error handling message")
	}
}

// SetMessageHandler sets the handler for inbound messages
func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}
