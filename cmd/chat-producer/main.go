package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradekit/chat-order-gateway/internal/logging"
	"github.com/tradekit/chat-order-gateway/internal/mangle"
	"github.com/tradekit/chat-order-gateway/internal/msg"
)

var (
	verbs   = []string{"/buy", "/sell"}
	symbols = []string{"BTC", "ETH", "SOL", "BTCUSDT", "ETHUSD", "DOGE"}
	sizes   = []string{"100u", "0.5", "250usdt", "10", "0.01"}
	extras  = [][]string{
		{},
		{"x5"},
		{"10x"},
		{"leverage", "20"},
		{"x3", "sl1%", "tp3%"},
		{"sl=2", "trail1.5%"},
		{"limit", "reduce"},
		{"stop", "loss", "2%"},
	}
)

func main() {
	var (
		count     = flag.Int("count", 50, "Number of chat messages to produce")
		dupPct    = flag.Int("dup-pct", 10, "Percentage of redelivered messages (0-100)")
		manglePct = flag.Int("mangle-pct", 30, "Percentage of corrupted messages (0-100)")
		seed      = flag.Int64("seed", 42, "Random seed for deterministic generation")
		brokers   = flag.String("brokers", "127.0.0.1:9092", "Kafka broker addresses")
	)
	flag.Parse()

	logger, err := logging.NewLogger("chat-producer", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	brokerList := parseBrokers(*brokers)
	logger.Info("starting chat producer",
		zap.Int("count", *count),
		zap.Int("dup_pct", *dupPct),
		zap.Int("mangle_pct", *manglePct),
		zap.Int64("seed", *seed),
		zap.Strings("brokers", brokerList),
	)

	rng := rand.New(rand.NewSource(*seed))

	// Flags override the env config; MANGLE_MODES can still narrow the
	// corruption set.
	mangleCfg := mangle.LoadConfig()
	mangleCfg.Enabled = *manglePct > 0
	mangleCfg.Pct = *manglePct
	mangleCfg.Seed = *seed
	mangler := mangle.New(mangleCfg, logger)

	producer, err := msg.NewProducer(brokerList, logger)
	if err != nil {
		logger.Fatal("failed to create producer", zap.Error(err))
	}
	defer producer.Close()

	ctx := context.Background()
	produced := 0
	failed := 0
	mangled := 0
	duplicates := 0

	var prev *msg.ChatMsg
	for i := 0; i < *count; i++ {
		var chat msg.ChatMsg
		if prev != nil && rng.Intn(100) < *dupPct {
			// Redeliver the previous message verbatim: same message id,
			// fresh event id, as a crashed chat frontend would.
			chat = *prev
			chat.EventID = uuid.New().String()
			duplicates++
		} else {
			text := randomCommand(rng)
			text, mode := mangler.MaybeMangle(text)
			if mode != "" {
				mangled++
			}
			chat = msg.ChatMsg{
				EventID:      uuid.New().String(),
				MessageID:    "m-" + uuid.New().String(),
				ChatID:       fmt.Sprintf("c-%d", rng.Intn(5)),
				UserID:       fmt.Sprintf("u-%d", rng.Intn(5)),
				Text:         text,
				TsUnixMillis: time.Now().UnixMilli(),
			}
		}

		if err := producer.ProduceJSON(ctx, msg.TopicChatMessages, chat.MessageID, chat); err != nil {
			logger.Error("failed to produce chat message",
				zap.String("message_id", chat.MessageID),
				zap.Error(err),
			)
			failed++
			continue
		}

		produced++
		prev = &chat
		logger.Debug("produced chat message",
			zap.String("message_id", chat.MessageID),
			zap.String("text", chat.Text),
		)
	}

	logger.Info("producer completed",
		zap.Int("total", *count),
		zap.Int("produced", produced),
		zap.Int("failed", failed),
		zap.Int("mangled", mangled),
		zap.Int("duplicates", duplicates),
	)

	fmt.Printf("\n=== Chat Producer Summary ===\n")
	fmt.Printf("Total messages: %d\n", *count)
	fmt.Printf("Produced: %d\n", produced)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Printf("Mangled: %d\n", mangled)
	fmt.Printf("Redelivered: %d\n", duplicates)
	fmt.Printf("\n")

	if failed > 0 {
		os.Exit(1)
	}
}

// randomCommand assembles a plausible trade shorthand from the pools
func randomCommand(rng *rand.Rand) string {
	parts := []string{
		verbs[rng.Intn(len(verbs))],
		symbols[rng.Intn(len(symbols))],
		sizes[rng.Intn(len(sizes))],
	}
	parts = append(parts, extras[rng.Intn(len(extras))]...)
	return strings.Join(parts, " ")
}

func parseBrokers(brokers string) []string {
	brokerList := make([]string, 0)
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	return brokerList
}
