package discord

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/quorumforge/bountyboard/internal/herald"
)

// --- Mock Discord session ---

type mockSession struct {
	mu     sync.Mutex
	opened bool
	closed bool
	sent   []sentEmbed
}

type sentEmbed struct {
	channelID string
	embed     *discordgo.MessageEmbed
}

func (m *mockSession) Open() error {
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmbed{channelID: channelID, embed: embed})
	return &discordgo.Message{ID: "1"}, nil
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(AdapterOpts{ChannelID: "123"})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
}

func TestNewOpensGateway(t *testing.T) {
	mock := &mockSession{}
	if _, err := New(AdapterOpts{ChannelID: "123", Session: mock}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if !mock.opened {
		t.Error("session was not opened")
	}
}

func TestAnnounceSendsEmbed(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "123", Session: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ev := herald.Event{
		Kind:       "assign",
		Realm:      "realm-1",
		BountyAddr: "b1",
		Title:      "Add search",
		Actor:      "wallet-core",
	}
	if err := a.Announce(context.Background(), ev); err != nil {
		t.Fatalf("Announce: %v", err)
	}

	if len(mock.sent) != 1 {
		t.Fatalf("sent %d embeds, want 1", len(mock.sent))
	}
	if mock.sent[0].channelID != "123" {
		t.Errorf("sent to %s, want 123", mock.sent[0].channelID)
	}
	if mock.sent[0].embed.Title != "Add search" {
		t.Errorf("embed title = %q, want %q", mock.sent[0].embed.Title, "Add search")
	}
}

func TestCloseClosesSession(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "123", Session: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mock.closed {
		t.Error("session was not closed")
	}
}
