package slack

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/quorumforge/bountyboard/internal/herald"
)

// --- Mock Slack client ---

type mockSlackClient struct {
	mu      sync.Mutex
	posted  []postedMessage
	postErr error
	// failFirst returns a rate-limit error on the first N calls.
	failFirst int
	calls     int
}

type postedMessage struct {
	channelID string
	options   []slackapi.MsgOption
}

func (m *mockSlackClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failFirst {
		return "", "", &slackapi.RateLimitedError{RetryAfter: time.Millisecond}
	}
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.posted = append(m.posted, postedMessage{channelID: channelID, options: options})
	return channelID, "1234567890.123456", nil
}

func (m *mockSlackClient) postedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(AdapterOpts{ChannelID: "C123"})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
}

func TestNewRequiresChannel(t *testing.T) {
	_, err := New(AdapterOpts{BotToken: "xoxb-test"})
	if err == nil {
		t.Fatal("expected error for missing channel ID")
	}
}

func TestAnnouncePostsToChannel(t *testing.T) {
	mock := &mockSlackClient{}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ev := herald.Event{
		Kind:       "accept",
		Realm:      "realm-1",
		BountyAddr: "b1",
		Title:      "Write docs",
		Actor:      "wallet-core",
	}
	if err := a.Announce(context.Background(), ev); err != nil {
		t.Fatalf("Announce: %v", err)
	}

	if mock.postedCount() != 1 {
		t.Fatalf("posted %d messages, want 1", mock.postedCount())
	}
	if mock.posted[0].channelID != "C123" {
		t.Errorf("posted to %s, want C123", mock.posted[0].channelID)
	}
}

func TestAnnounceRetriesOnRateLimit(t *testing.T) {
	mock := &mockSlackClient{failFirst: 2}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Announce(context.Background(), herald.Event{Kind: "create"}); err != nil {
		t.Fatalf("Announce after retries: %v", err)
	}
	if mock.postedCount() != 1 {
		t.Fatalf("posted %d messages, want 1", mock.postedCount())
	}
}

func TestAnnounceReturnsPostError(t *testing.T) {
	mock := &mockSlackClient{postErr: fmt.Errorf("channel_not_found")}
	a, err := New(AdapterOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Announce(context.Background(), herald.Event{Kind: "create"}); err == nil {
		t.Fatal("expected post error to propagate")
	}
}

func TestColorFor(t *testing.T) {
	if colorFor("accept") == colorFor("reject") {
		t.Error("accept and reject should use different colors")
	}
	if colorFor("unknown-kind") == "" {
		t.Error("unknown kinds should still map to a default color")
	}
}
