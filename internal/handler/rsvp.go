package handler

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/phone"
	"wedding-rsvp/internal/whatsapp"
)

// Sender delivers a text message to a phone number
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// GuestDirectory is the subset of storage used for the guest list
type GuestDirectory interface {
	AddGuest(ctx context.Context, guest *models.Guest) error
	FindGuestsByMobile(ctx context.Context, mobile string) ([]models.Guest, error)
}

// SimpleResponder records yes/no/maybe answers
type SimpleResponder interface {
	SubmitSimple(ctx context.Context, userID, eventID string, attendance models.Attendance) (*models.RSVP, error)
}

// RSVPHandler turns WhatsApp replies into RSVPs and sends invitations
type RSVPHandler struct {
	sender      Sender
	guests      GuestDirectory
	rsvps       SimpleResponder
	wedding     config.WeddingConfig
	countryCode string
	log         zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(sender Sender, guests GuestDirectory, rsvps SimpleResponder, wedding config.WeddingConfig, countryCode string, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{
		sender:      sender,
		guests:      guests,
		rsvps:       rsvps,
		wedding:     wedding,
		countryCode: countryCode,
		log:         log,
	}
}

// HandleMessage is the whatsapp.MessageHandler for RSVP replies
func (h *RSVPHandler) HandleMessage(msg *events.Message) error {
	m, ok := whatsapp.FromEvent(msg)
	if !ok {
		return nil
	}
	return h.HandleReply(context.Background(), m.Phone, m.Text)
}

// HandleReply records the answer in text for the guest with this phone.
// Unknown numbers, guests without an account and unclear texts are ignored.
func (h *RSVPHandler) HandleReply(ctx context.Context, phoneNumber, text string) error {
	attendance, ok := Classify(text)
	if !ok {
		return nil
	}

	mobile := phone.Normalize(phoneNumber, h.countryCode)
	guests, err := h.guests.FindGuestsByMobile(ctx, mobile)
	if err != nil {
		return fmt.Errorf("failed to look up guest: %w", err)
	}
	var guest *models.Guest
	for i := range guests {
		if guests[i].UserID != nil {
			guest = &guests[i]
			break
		}
	}
	if guest == nil {
		h.log.Info().Str("phone", mobile).Int("guests", len(guests)).Msg("Ignoring reply from number without a linked account")
		return nil
	}

	r, err := h.rsvps.SubmitSimple(ctx, *guest.UserID, "", attendance)
	if err != nil {
		return fmt.Errorf("failed to update RSVP: %w", err)
	}
	h.log.Info().
		Str("guest_id", guest.ID).
		Str("user_id", *guest.UserID).
		Str("status", string(r.Status)).
		Msg("RSVP received over WhatsApp")

	if err := h.sender.SendMessage(ctx, mobile, whatsapp.ConfirmationText(h.wedding, r.Status)); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

// SendInvitation adds the guest to the list and sends the invitation
func (h *RSVPHandler) SendInvitation(ctx context.Context, guest *models.Guest) error {
	guest.Mobile = phone.Normalize(guest.Mobile, h.countryCode)
	if guest.Mobile == "" {
		return fmt.Errorf("guest %q has no mobile number", guest.FullName())
	}
	if err := h.guests.AddGuest(ctx, guest); err != nil {
		return fmt.Errorf("failed to add guest: %w", err)
	}
	if err := h.sender.SendMessage(ctx, guest.Mobile, whatsapp.InvitationText(h.wedding, guest.FirstName)); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	return nil
}

var (
	declinePhrases = []string{"not coming", "can't come", "cannot come", "won't come", "can't make it", "not attending", "❌"}
	maybePhrases   = []string{"not sure", "🤔"}
	acceptPhrases  = []string{"will come", "will be there", "count me in", "✅"}

	replyWords = map[string]models.Attendance{
		"yes":       models.AttendanceYes,
		"yep":       models.AttendanceYes,
		"yeah":      models.AttendanceYes,
		"accept":    models.AttendanceYes,
		"accepting": models.AttendanceYes,
		"attending": models.AttendanceYes,
		"coming":    models.AttendanceYes,
		"כן":        models.AttendanceYes,
		"no":        models.AttendanceNo,
		"nope":      models.AttendanceNo,
		"decline":   models.AttendanceNo,
		"declining": models.AttendanceNo,
		"לא":        models.AttendanceNo,
		"maybe":     models.AttendanceMaybe,
		"perhaps":   models.AttendanceMaybe,
		"אולי":      models.AttendanceMaybe,
	}
)

// Classify maps a free-text reply to an answer. Negative phrases win over
// the words they contain ("not coming" is a no).
func Classify(text string) (models.Attendance, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "", false
	}
	switch {
	case containsAny(text, declinePhrases...):
		return models.AttendanceNo, true
	case containsAny(text, maybePhrases...):
		return models.AttendanceMaybe, true
	case containsAny(text, acceptPhrases...):
		return models.AttendanceYes, true
	}

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		if a, ok := replyWords[w]; ok {
			return a, true
		}
	}
	return "", false
}

// containsAny checks if the text contains any of the given keywords
func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
