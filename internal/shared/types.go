package shared

import (
	"crypto/rand"
	"encoding/hex"
)

func NewID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

type ChannelKind string

const (
	ChannelWeb      ChannelKind = "web"
	ChannelWhatsApp ChannelKind = "whatsapp"
	ChannelSlack    ChannelKind = "slack"
	ChannelEmail    ChannelKind = "email"
	ChannelVoice    ChannelKind = "voice"
)

func (c ChannelKind) Valid() bool {
	switch c {
	case ChannelWeb, ChannelWhatsApp, ChannelSlack, ChannelEmail, ChannelVoice:
		return true
	}
	return false
}

func (c ChannelKind) String() string {
	return string(c)
}

// ChannelDisplay carries the presentation attributes the dashboard renders
// per channel, kept here as a closed mapping instead of string switches in
// the consumers.
type ChannelDisplay struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var channelDisplays = map[ChannelKind]ChannelDisplay{
	ChannelWeb:      {Label: "Web Chat", Icon: "globe", Color: "#3b82f6"},
	ChannelWhatsApp: {Label: "WhatsApp", Icon: "message-circle", Color: "#22c55e"},
	ChannelSlack:    {Label: "Slack", Icon: "slack", Color: "#8b5cf6"},
	ChannelEmail:    {Label: "Email", Icon: "mail", Color: "#f59e0b"},
	ChannelVoice:    {Label: "Voice", Icon: "phone", Color: "#ef4444"},
}

func (c ChannelKind) Display() ChannelDisplay {
	if d, ok := channelDisplays[c]; ok {
		return d
	}
	return ChannelDisplay{Label: string(c), Icon: "help-circle", Color: "#6b7280"}
}

type ConversationStatus string

const (
	StatusActive    ConversationStatus = "active"
	StatusCompleted ConversationStatus = "completed"
	StatusEscalated ConversationStatus = "escalated"
	StatusAbandoned ConversationStatus = "abandoned"
)

func (s ConversationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusEscalated, StatusAbandoned:
		return true
	}
	return false
}

// Terminal reports whether the status ends a conversation's lifecycle.
func (s ConversationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusEscalated || s == StatusAbandoned
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}
