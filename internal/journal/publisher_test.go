package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tradekit/chat-order-gateway/internal/msg"
	"github.com/tradekit/chat-order-gateway/internal/parser"
)

type fakeProducer struct {
	produced []producedRecord
	failFor  map[string]error
}

type producedRecord struct {
	topic string
	key   string
}

func (f *fakeProducer) ProduceJSON(_ context.Context, topic string, key string, _ any) error {
	if err, ok := f.failFor[topic]; ok {
		return err
	}
	f.produced = append(f.produced, producedRecord{topic: topic, key: key})
	return nil
}

func TestPublisher_DrainsOutbox(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := msg.ChatMsg{EventID: "evt-p1", MessageID: "m-p1", ChatID: "c-1", Text: "/buy BTC 100u"}
	_, err := store.RecordParse(ctx, chat, parser.Parse(chat.Text))
	require.NoError(t, err)

	producer := &fakeProducer{}
	pub := NewPublisher(store, producer, zaptest.NewLogger(t))

	require.NoError(t, pub.publishBatch(ctx))
	require.Len(t, producer.produced, 2)
	assert.Equal(t, msg.TopicOrderCommands, producer.produced[0].topic)
	assert.Equal(t, msg.TopicChatReplies, producer.produced[1].topic)

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, unpublished, 0)
}

func TestPublisher_RetriesFailedEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chat := msg.ChatMsg{EventID: "evt-p2", MessageID: "m-p2", ChatID: "c-1", Text: "/buy BTC 100u"}
	_, err := store.RecordParse(ctx, chat, parser.Parse(chat.Text))
	require.NoError(t, err)

	producer := &fakeProducer{failFor: map[string]error{
		msg.TopicOrderCommands: errors.New("broker unavailable"),
	}}
	pub := NewPublisher(store, producer, zaptest.NewLogger(t))

	// The order produce fails, the reply still goes through.
	require.NoError(t, pub.publishBatch(ctx))
	require.Len(t, producer.produced, 1)
	assert.Equal(t, msg.TopicChatReplies, producer.produced[0].topic)

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, unpublished, 1, "failed event stays in the outbox")
	assert.Equal(t, msg.TopicOrderCommands, unpublished[0].Topic)

	// Broker recovers; the next batch drains the rest.
	producer.failFor = nil
	require.NoError(t, pub.publishBatch(ctx))
	unpublished, err = store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, unpublished, 0)
}
