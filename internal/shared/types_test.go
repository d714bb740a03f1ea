package shared

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	id := NewID("tenant_")
	if !strings.HasPrefix(id, "tenant_") {
		t.Errorf("expected tenant_ prefix, got %s", id)
	}
	if len(id) != len("tenant_")+32 {
		t.Errorf("expected 32 hex chars after prefix, got %d", len(id)-len("tenant_"))
	}

	other := NewID("tenant_")
	if id == other {
		t.Error("expected unique IDs")
	}
}

func TestChannelKind_Valid(t *testing.T) {
	tests := []struct {
		channel ChannelKind
		want    bool
	}{
		{ChannelWeb, true},
		{ChannelWhatsApp, true},
		{ChannelSlack, true},
		{ChannelEmail, true},
		{ChannelVoice, true},
		{ChannelKind("telegram"), false},
		{ChannelKind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			if got := tt.channel.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChannelKind_Display(t *testing.T) {
	d := ChannelWhatsApp.Display()
	if d.Label != "WhatsApp" {
		t.Errorf("expected WhatsApp label, got %s", d.Label)
	}
	if d.Icon == "" || d.Color == "" {
		t.Error("expected icon and color to be set")
	}

	unknown := ChannelKind("telegram").Display()
	if unknown.Label != "telegram" {
		t.Errorf("unknown channel should fall back to raw label, got %s", unknown.Label)
	}
}

func TestConversationStatus(t *testing.T) {
	if !StatusActive.Valid() {
		t.Error("active should be valid")
	}
	if ConversationStatus("pending").Valid() {
		t.Error("pending should be invalid")
	}

	if StatusActive.Terminal() {
		t.Error("active is not terminal")
	}
	for _, s := range []ConversationStatus{StatusCompleted, StatusEscalated, StatusAbandoned} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestSentiment_Valid(t *testing.T) {
	for _, s := range []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Sentiment("angry").Valid() {
		t.Error("angry should be invalid")
	}
}
