package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradekit/chat-order-gateway/internal/logging"
	"github.com/tradekit/chat-order-gateway/internal/msg"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <duration_seconds> [brokers]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s 30 127.0.0.1:9092\n", os.Args[0])
		os.Exit(1)
	}

	var durationSeconds int
	if _, err := fmt.Sscanf(os.Args[1], "%d", &durationSeconds); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid duration: %v\n", err)
		os.Exit(1)
	}

	brokers := "127.0.0.1:9092"
	if len(os.Args) >= 3 {
		brokers = os.Args[2]
	}

	logger, err := logging.NewLogger("verifier", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	logger.Info("starting verifier",
		zap.Int("duration_seconds", durationSeconds),
		zap.Strings("brokers", brokerList),
	)

	consumer, err := msg.NewConsumer(brokerList, "verifier-v1",
		[]string{msg.TopicOrderCommands, msg.TopicChatReplies}, logger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	// message_id -> collected state
	ordersByMessage := make(map[string][]msg.OrderCmdMsg)
	repliesByMessage := make(map[string][]msg.ReplyMsg)
	var violations []string

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(durationSeconds)*time.Second)
	defer cancel()

	err = consumer.Run(ctx, func(ctx context.Context, rec msg.Record) error {
		switch rec.Topic {
		case msg.TopicOrderCommands:
			var order msg.OrderCmdMsg
			if err := json.Unmarshal(rec.Value, &order); err != nil {
				logger.Warn("failed to unmarshal order", zap.Error(err))
				return nil
			}
			ordersByMessage[order.MessageID] = append(ordersByMessage[order.MessageID], order)
			if problems := checkOrder(order); len(problems) > 0 {
				violations = append(violations, problems...)
			}
			logger.Debug("consumed order",
				zap.String("order_id", order.OrderID),
				zap.String("message_id", order.MessageID),
				zap.String("symbol", order.Symbol),
			)
		case msg.TopicChatReplies:
			var reply msg.ReplyMsg
			if err := json.Unmarshal(rec.Value, &reply); err != nil {
				logger.Warn("failed to unmarshal reply", zap.Error(err))
				return nil
			}
			repliesByMessage[reply.MessageID] = append(repliesByMessage[reply.MessageID], reply)
		}
		return nil
	})

	if err != nil && err != context.DeadlineExceeded {
		logger.Error("consumer error", zap.Error(err))
	}

	// Cross-check replies against orders
	accepted, rejected := 0, 0
	for messageID, replies := range repliesByMessage {
		reply := replies[0]
		orders := ordersByMessage[messageID]
		switch reply.Status {
		case "ACCEPTED":
			accepted++
			if len(orders) == 0 {
				violations = append(violations,
					fmt.Sprintf("message %s: ACCEPTED reply but no order published", messageID))
			} else if orders[0].OrderID != reply.OrderID {
				violations = append(violations,
					fmt.Sprintf("message %s: reply order %s does not match published order %s",
						messageID, reply.OrderID, orders[0].OrderID))
			}
		case "REJECTED":
			rejected++
			if len(reply.Errors) == 0 {
				violations = append(violations,
					fmt.Sprintf("message %s: REJECTED reply with no errors", messageID))
			}
			if len(orders) > 0 {
				violations = append(violations,
					fmt.Sprintf("message %s: REJECTED reply but an order was published", messageID))
			}
		}
	}
	for messageID, orders := range ordersByMessage {
		if len(orders) > 1 {
			violations = append(violations,
				fmt.Sprintf("message %s: %d orders published for one message", messageID, len(orders)))
		}
	}

	fmt.Println("\n=== Verification Results ===")
	fmt.Printf("Messages with replies: %d\n", len(repliesByMessage))
	fmt.Printf("Accepted: %d\n", accepted)
	fmt.Printf("Rejected: %d\n", rejected)
	fmt.Printf("Orders published: %d\n", len(ordersByMessage))
	fmt.Printf("Violations: %d\n", len(violations))

	if len(violations) > 0 {
		fmt.Println("\nViolations found:")
		for _, v := range violations {
			fmt.Printf("  %s\n", v)
		}
		fmt.Println("\n❌ VERIFICATION FAILED")
		os.Exit(1)
	}

	fmt.Println("\n✅ VERIFICATION PASSED")
	os.Exit(0)
}

// checkOrder re-validates the canonical invariants on a published order:
// nothing out of range may ever reach the order command topic.
func checkOrder(order msg.OrderCmdMsg) []string {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf("order %s: ", order.OrderID)+fmt.Sprintf(format, args...))
	}

	if order.Side != "BUY" && order.Side != "SELL" {
		fail("bad side %q", order.Side)
	}
	if order.Symbol != strings.ToUpper(order.Symbol) || order.Symbol == "" {
		fail("symbol %q not normalized", order.Symbol)
	}
	size, err := decimal.NewFromString(order.Size)
	if err != nil || !size.IsPositive() {
		fail("bad size %q", order.Size)
	}
	if order.SizeType != "BASE" && order.SizeType != "QUOTE" {
		fail("bad size type %q", order.SizeType)
	}
	if order.OrderType != "MARKET" && order.OrderType != "LIMIT" {
		fail("bad order type %q", order.OrderType)
	}
	if order.Leverage < 0 || order.Leverage > 125 {
		fail("leverage %d out of range", order.Leverage)
	}
	for name, pct := range map[string]string{
		"stop_loss":     order.StopLossPct,
		"take_profit":   order.TakeProfitPct,
		"trailing_stop": order.TrailingStopPct,
	} {
		if pct == "" {
			continue
		}
		v, err := decimal.NewFromString(pct)
		if err != nil || !v.IsPositive() || v.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			fail("bad %s %q", name, pct)
		}
	}
	return problems
}
