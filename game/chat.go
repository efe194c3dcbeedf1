package game

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SystemSenderID marks engine-generated notices in the chat.
const SystemSenderID = "system"

const maxChatLength = 500

// ChatMessage is one line of a game's chat.
type ChatMessage struct {
	ID         string    `json:"id" bson:"_id"`
	GameID     string    `json:"gameId" bson:"gameId"`
	SenderID   string    `json:"senderId" bson:"senderId"`
	SenderName string    `json:"senderName" bson:"senderName"`
	Text       string    `json:"text" bson:"text"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// IsSystem reports whether the message was posted by the engine.
func (m *ChatMessage) IsSystem() bool {
	return m.SenderID == SystemSenderID
}

// NormalizeChatText trims text and cuts it to the maximum message length.
func NormalizeChatText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxChatLength {
		text = string([]rune(text)[:maxChatLength])
	}
	return text, nil
}
