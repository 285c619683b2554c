//go:build integration
// +build integration

package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/chat-order-gateway/internal/msg"
	"github.com/tradekit/chat-order-gateway/internal/parser"
)

func TestIntegration_RedeliveredChatMessage(t *testing.T) {
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("Skipping integration test. Set INTEGRATION=1 to run.")
	}

	tmpDir, err := os.MkdirTemp("", "journal_integration_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	store, err := Open(filepath.Join(tmpDir, "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	chat := msg.ChatMsg{
		EventID:      "evt-integration",
		MessageID:    "m-integration",
		ChatID:       "c-integration",
		Text:         "/buy BTC 250u x10 sl1% tp3%",
		TsUnixMillis: time.Now().UnixMilli(),
	}
	res := parser.Parse(chat.Text)
	require.True(t, res.OK())

	first, err := store.RecordParse(ctx, chat, res)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := store.RecordParse(ctx, chat, res)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Empty(t, second.Events)

	unpublished, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, unpublished, 2)

	var order msg.OrderCmdMsg
	require.NoError(t, json.Unmarshal([]byte(unpublished[0].PayloadJSON), &order))
	assert.Equal(t, "BTCUSDT", order.Symbol)
	assert.Equal(t, first.OrderID, order.OrderID)
	assert.Equal(t, "1", order.StopLossPct)
	assert.Equal(t, "3", order.TakeProfitPct)
}
