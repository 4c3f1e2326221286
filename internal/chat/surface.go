// Package chat abstracts the chat platform: an outbound Surface for
// sending and editing rich messages, and an inbound Gateway stream of
// commands and reactions.
package chat

import (
	"context"
)

// Message is the renderable unit the bot posts. Either field may be
// empty; an Embed carries the rich meeting card.
type Message struct {
	Content string `json:"content,omitempty"`
	Embed   *Embed `json:"embed,omitempty"`
	// ReplyTo threads the message under an existing one when set.
	ReplyTo string `json:"reply_to,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Color       int          `json:"color,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Surface is the outbound contract. One writer per message is assumed:
// the bot is the only author of its meeting messages, so edits never race.
type Surface interface {
	// Send posts a message and returns the platform message id.
	Send(ctx context.Context, channelID string, msg Message) (string, error)

	// Edit replaces a message's content and embed in place.
	Edit(ctx context.Context, channelID, messageID string, msg Message) error

	// Delete removes a message.
	Delete(ctx context.Context, channelID, messageID string) error

	// React adds the bot's reaction to a message.
	React(ctx context.Context, channelID, messageID, emoji string) error

	// ClearReactions removes all reactions from a message.
	ClearReactions(ctx context.Context, channelID, messageID string) error

	// SendDirect opens (or reuses) a DM channel to the user and posts.
	SendDirect(ctx context.Context, userID string, msg Message) (string, error)
}

// Mention renders a user id as a chat mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}
