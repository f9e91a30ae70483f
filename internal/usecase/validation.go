package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

// ValidateJoin trims and checks a join request in place
func ValidateJoin(p *domain.JoinRoomPayload) error {
	p.RoomID = strings.TrimSpace(p.RoomID)
	p.Name = strings.TrimSpace(p.Name)

	if err := checkText("roomId", p.RoomID, domain.MaxRoomIDLength, isControl); err != nil {
		return err
	}
	return checkText("name", p.Name, domain.MaxNameLength, isControl)
}

// ValidateChat checks a chat line against the sender's stored identity.
// The claimed name must match the name recorded at join exactly.
func ValidateChat(p *domain.ChatPayload, roomID, storedName string) error {
	p.Message = strings.TrimSpace(p.Message)

	if p.RoomID != "" && p.RoomID != roomID {
		return &domain.ValidationError{Field: "roomId", Reason: "not your current room"}
	}
	if err := checkText("message", p.Message, domain.MaxChatLength, isControlExceptWhitespace); err != nil {
		return err
	}
	if p.Name != storedName {
		return &domain.ValidationError{Field: "name", Reason: "does not match joined name"}
	}
	return nil
}

func checkText(field, value string, limit int, forbidden func(rune) bool) error {
	if value == "" {
		return &domain.ValidationError{Field: field, Reason: "required"}
	}
	if n := utf8.RuneCountInString(value); n > limit {
		return &domain.ValidationError{Field: field, Reason: "too long"}
	}
	if strings.ContainsFunc(value, forbidden) {
		return &domain.ValidationError{Field: field, Reason: "contains control characters"}
	}
	return nil
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7F
}

func isControlExceptWhitespace(r rune) bool {
	return isControl(r) && r != '\n' && r != '\t'
}
