// Package discord implements the herald Adapter for Discord.
package discord

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/quorumforge/bountyboard/internal/herald"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration between retries.
	baseBackoff = 2 * time.Second
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendEmbed(channelID, embed, options...)
}

// Adapter posts announcements to a single Discord channel as embeds.
type Adapter struct {
	sess      session
	channelID string
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Adapter and opens the gateway connection.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel ID is required")
	}

	a := &Adapter{channelID: opts.ChannelID}
	if opts.Session != nil {
		a.sess = opts.Session
	} else {
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		a.sess = &realSession{s: dg}
	}

	if err := a.sess.Open(); err != nil {
		return nil, fmt.Errorf("discord: open gateway: %w", err)
	}
	return a, nil
}

// Announce posts the event as an embed.
func (a *Adapter) Announce(ctx context.Context, ev herald.Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: herald.Format(ev),
	}
	if ev.BountyAddr != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Bounty",
			Value:  ev.BountyAddr,
			Inline: true,
		})
	}
	if ev.Actor != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "By",
			Value:  ev.Actor,
			Inline: true,
		})
	}

	err := retryOnRateLimit(ctx, func() error {
		_, sendErr := a.sess.ChannelMessageSendEmbed(a.channelID, embed)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close shuts down the gateway connection.
func (a *Adapter) Close() error {
	return a.sess.Close()
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors. It respects context cancellation.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err // not a rate limit error
		}

		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * baseBackoff

		log.Printf("discord: rate limited (attempt %d/%d), retrying in %v",
			attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
