// Package chatctx carries the chat identity of a conversation through
// context, so stores can key persisted history without threading ids
// through every call.
package chatctx

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrNoChatID is returned when the context carries no chat identity.
var ErrNoChatID = errors.New("chatctx: no chat ID in context")

type contextKey int

const (
	keyChatID contextKey = iota
)

// NewChatID returns a new unique chat id.
func NewChatID() string {
	return uuid.NewString()
}

// WithChatID returns a context carrying the given chat id.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, keyChatID, chatID)
}

// ChatID returns the chat id carried by the context.
func ChatID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(keyChatID).(string)
	if !ok || id == "" {
		return "", errors.WithStack(ErrNoChatID)
	}
	return id, nil
}
