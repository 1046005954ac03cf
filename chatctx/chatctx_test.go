package chatctx_test

import (
	"context"
	"testing"

	"github.com/effective-security/goagent/chatctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ChatID(t *testing.T) {
	ctx := context.Background()

	_, err := chatctx.ChatID(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, chatctx.ErrNoChatID)

	id := chatctx.NewChatID()
	require.NotEmpty(t, id)
	assert.NotEqual(t, id, chatctx.NewChatID())

	ctx = chatctx.WithChatID(ctx, id)
	got, err := chatctx.ChatID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func Test_ChatID_Empty(t *testing.T) {
	ctx := chatctx.WithChatID(context.Background(), "")
	_, err := chatctx.ChatID(ctx)
	assert.ErrorIs(t, err, chatctx.ErrNoChatID)
}
