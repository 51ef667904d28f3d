// Package slack implements the herald Adapter for Slack.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/quorumforge/bountyboard/internal/herald"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter posts announcements to a single Slack channel.
type Adapter struct {
	client    slackClient
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel ID is required")
	}

	a := &Adapter{channelID: opts.ChannelID}
	if opts.Client != nil {
		a.client = opts.Client
	} else {
		a.client = slackapi.New(opts.BotToken)
	}
	return a, nil
}

// Announce posts the event as an attachment message.
func (a *Adapter) Announce(ctx context.Context, ev herald.Event) error {
	att := slackapi.Attachment{
		Title:    ev.Title,
		Text:     herald.Format(ev),
		Color:    colorFor(ev.Kind),
		Fallback: herald.Format(ev),
	}
	if ev.BountyAddr != "" {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: "Bounty",
			Value: ev.BountyAddr,
			Short: true,
		})
	}
	if ev.Actor != "" {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: "By",
			Value: ev.Actor,
			Short: true,
		})
	}

	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := a.client.PostMessage(a.channelID, slackapi.MsgOptionAttachments(att))
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Close is a no-op; the Slack web API client holds no connection.
func (a *Adapter) Close() error { return nil }

// colorFor picks an attachment color by event kind.
func colorFor(kind string) string {
	switch kind {
	case "accept", "forceAccept":
		return "#36a64f" // green
	case "reject", "rejectForUnaddressedChangeRequest", "unassignOverdue":
		return "#d00000" // red
	case "requestChange":
		return "#ffb347" // amber
	default:
		return "#439fe0" // blue
	}
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit errors.
// It respects context cancellation and the RetryAfter duration from Slack.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err // not a rate limit error, don't retry
		}

		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
