package whatsapp

import (
	"fmt"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
)

const replyHint = "\n\nReply with:\n✅ *YES* to accept\n❌ *NO* to decline\n🤔 *MAYBE* if you're not sure yet"

// InvitationText is the first message a guest receives
func InvitationText(w config.WeddingConfig, name string) string {
	return fmt.Sprintf(
		"🎉 *Wedding Invitation*\n\n"+
			"Dear %s,\n\n"+
			"You are cordially invited to celebrate the wedding of\n\n"+
			"*%s* & *%s*\n\n"+
			"📅 Date: %s\n"+
			"📍 Location: %s",
		name, w.Bride, w.Groom, w.Date, w.Location,
	) + replyHint
}

// ReminderText nudges a guest who has not answered yet
func ReminderText(w config.WeddingConfig, name string) string {
	return fmt.Sprintf(
		"Hi %s! 💌\n\n"+
			"We haven't received your RSVP for the wedding of *%s* & *%s* on %s yet.",
		name, w.Bride, w.Groom, w.Date,
	) + replyHint
}

// ConfirmationText acknowledges a recorded answer
func ConfirmationText(w config.WeddingConfig, status models.RSVPStatus) string {
	switch status {
	case models.RSVPAttending:
		return fmt.Sprintf(
			"🎉 Wonderful! We're so excited to celebrate with you!\n\n"+
				"We've confirmed your attendance for the wedding of %s & %s on %s.\n\n"+
				"See you there! 💕",
			w.Bride, w.Groom, w.Date,
		)
	case models.RSVPNotAttending:
		return fmt.Sprintf(
			"Thank you for letting us know. We're sorry you won't be able to join us for the wedding of %s & %s.\n\n"+
				"We'll miss you! 💕",
			w.Bride, w.Groom,
		)
	default:
		return "Thanks! We've noted that you're not sure yet. Just reply *YES* or *NO* once you know. 💕"
	}
}
