package store

import (
	"context"
	"encoding/json"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/chatctx"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// The redis store implements the MessageStore interface using Redis as the
// backend. Messages are stored per chat id under
// `/<prefix>/chatstore/messages/<chatID>`, trimmed to the most recent
// maxMessages entries. Read failures are logged and yield empty history
// rather than failing the run.

// DefaultMaxStoredMessages is the history depth kept per chat.
const DefaultMaxStoredMessages = 50

type redisStore struct {
	client      *redis.Client
	prefix      string
	maxMessages int64
}

// NewRedisStore returns a Redis-backed message store.
func NewRedisStore(client *redis.Client, prefix string) MessageStore {
	return &redisStore{
		client:      client,
		prefix:      prefix,
		maxMessages: DefaultMaxStoredMessages,
	}
}

func (m *redisStore) messagesKey(chatID string) string {
	return path.Join(m.prefix, "chatstore", "messages", chatID)
}

func (m *redisStore) Messages(ctx context.Context) []llms.Message {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "chat_id", "err", err.Error())
		return nil
	}

	key := m.messagesKey(chatID)
	data, err := m.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "lrange", "key", key, "err", err.Error())
		return nil
	}

	var messages []llms.Message
	for _, item := range data {
		var msg llms.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "unmarshal_message", "err", err.Error())
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

func (m *redisStore) Add(ctx context.Context, msgs ...llms.Message) error {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		return err
	}

	key := m.messagesKey(chatID)
	pipe := m.client.Pipeline()
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal message")
		}
		pipe.RPush(ctx, key, data)
	}
	// Keep only the most recent messages
	pipe.LTrim(ctx, key, -m.maxMessages, -1)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to store messages in Redis")
	}
	return nil
}

func (m *redisStore) Reset(ctx context.Context) error {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		return err
	}

	err = m.client.Del(ctx, m.messagesKey(chatID)).Err()
	if err != nil {
		return errors.Wrap(err, "failed to reset chat history in Redis")
	}
	return nil
}
