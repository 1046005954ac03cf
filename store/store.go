// Package store persists conversation history between agent calls,
// keyed by the chat id carried in context.
package store

import (
	"context"

	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/goagent", "store")

// MessageStore persists the messages of a conversation.
type MessageStore interface {
	// Messages returns the stored history of the chat carried by ctx.
	Messages(ctx context.Context) []llms.Message
	// Add appends messages to the chat history.
	Add(ctx context.Context, msgs ...llms.Message) error
	// Reset removes the chat history.
	Reset(ctx context.Context) error
}
