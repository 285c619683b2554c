package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/chat-order-gateway/internal/msg"
	"github.com/tradekit/chat-order-gateway/internal/parser"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "journal_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := Open(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordParse_AcceptedMessage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := msg.ChatMsg{
		EventID:      "evt-123",
		MessageID:    "m-123",
		ChatID:       "c-1",
		UserID:       "u-1",
		Text:         "/buy BTC 100u x5",
		TsUnixMillis: 1000,
	}
	res := parser.Parse(chat.Text)
	require.True(t, res.OK())

	result, err := store.RecordParse(ctx, chat, res)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, StatusAccepted, result.Status)
	assert.NotEmpty(t, result.OrderID)
	require.Len(t, result.Events, 2, "accepted message stages order and reply")

	// First staged event is the order command
	var order msg.OrderCmdMsg
	require.NoError(t, json.Unmarshal([]byte(result.Events[0].PayloadJSON), &order))
	assert.Equal(t, msg.TopicOrderCommands, result.Events[0].Topic)
	assert.Equal(t, "BTCUSDT", order.Symbol)
	assert.Equal(t, "BUY", order.Side)
	assert.Equal(t, "100", order.Size)
	assert.Equal(t, "QUOTE", order.SizeType)
	assert.Equal(t, 5, order.Leverage)
	assert.Equal(t, result.OrderID, order.OrderID)

	// Second is the ACCEPTED reply
	var reply msg.ReplyMsg
	require.NoError(t, json.Unmarshal([]byte(result.Events[1].PayloadJSON), &reply))
	assert.Equal(t, msg.TopicChatReplies, result.Events[1].Topic)
	assert.Equal(t, StatusAccepted, reply.Status)
	assert.Equal(t, result.OrderID, reply.OrderID)
	assert.Empty(t, reply.Errors)
}

func TestRecordParse_RejectedMessage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := msg.ChatMsg{
		EventID:      "evt-456",
		MessageID:    "m-456",
		ChatID:       "c-1",
		Text:         "/buy BTCUSDT -100u x200",
		TsUnixMillis: 1000,
	}
	res := parser.Parse(chat.Text)
	require.False(t, res.OK())

	result, err := store.RecordParse(ctx, chat, res)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Empty(t, result.OrderID)
	require.Len(t, result.Events, 1, "rejected message stages only the reply")

	var reply msg.ReplyMsg
	require.NoError(t, json.Unmarshal([]byte(result.Events[0].PayloadJSON), &reply))
	assert.Equal(t, StatusRejected, reply.Status)
	assert.GreaterOrEqual(t, len(reply.Errors), 2, "all violations surface in the reply")
}

func TestRecordParse_Dedupe(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := msg.ChatMsg{
		EventID:      "evt-789",
		MessageID:    "m-789",
		ChatID:       "c-2",
		Text:         "/sell ETH 0.5",
		TsUnixMillis: 1000,
	}
	res := parser.Parse(chat.Text)
	require.True(t, res.OK())

	first, err := store.RecordParse(ctx, chat, res)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// Redelivery: same message id, even a different event id
	chat.EventID = "evt-790"
	second, err := store.RecordParse(ctx, chat, res)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.OrderID, second.OrderID, "duplicate reports the original order")
	assert.Empty(t, second.Events, "no new outbox events for a redelivery")

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, unpublished, 2, "only the first delivery staged events")
}

func TestOutboxLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := msg.ChatMsg{
		EventID:   "evt-out",
		MessageID: "m-out",
		ChatID:    "c-3",
		Text:      "/buy SOL 25u 3x sl2%",
	}
	result, err := store.RecordParse(ctx, chat, parser.Parse(chat.Text))
	require.NoError(t, err)
	require.Len(t, result.Events, 2)

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, unpublished, 2)
	assert.Equal(t, msg.TopicOrderCommands, unpublished[0].Topic, "order staged before reply")

	for _, ev := range unpublished {
		require.NoError(t, store.MarkPublished(ctx, ev.EventID, 2000))
	}

	unpublished, err = store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, unpublished, 0, "nothing left after publishing")
}
