package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tradekit/chat-order-gateway/internal/msg"
	"github.com/tradekit/chat-order-gateway/internal/parser"
)

// Store journals every chat message the gateway has seen, keyed by message
// id so redelivered messages are handled exactly once, and keeps a
// transactional outbox of the order commands and replies to publish.
type Store struct {
	db *sql.DB
}

// RecordResult is the outcome of journaling one chat message
type RecordResult struct {
	Duplicate bool
	Status    string
	OrderID   string
	Events    []OutboxEvent
}

// OutboxEvent represents an event waiting to be published
type OutboxEvent struct {
	ID                  int64
	MessageID           string
	EventID             string
	Topic               string
	Key                 string
	PayloadJSON         string
	CreatedUnixMillis   int64
	PublishedUnixMillis sql.NullInt64
}

// Message statuses
const (
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// Open creates or opens the journal store
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chat_messages (
			message_id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			status TEXT NOT NULL,
			errors_json TEXT NOT NULL,
			order_id TEXT NOT NULL,
			first_seen_unix_millis INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			event_id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			key TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL,
			published_unix_millis INTEGER NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished 
			ON outbox_events(published_unix_millis) 
			WHERE published_unix_millis IS NULL`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// RecordParse journals the parse outcome for one chat message atomically.
// A new accepted message stages an order command and an ACCEPTED reply in
// the outbox; a rejected one stages only a REJECTED reply with the error
// list. A message id seen before changes nothing and reports Duplicate.
func (s *Store) RecordParse(ctx context.Context, chat msg.ChatMsg, res parser.Result) (RecordResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingStatus, existingOrderID string
	err = tx.QueryRowContext(ctx,
		"SELECT status, order_id FROM chat_messages WHERE message_id = ?",
		chat.MessageID,
	).Scan(&existingStatus, &existingOrderID)

	if err == nil {
		// Message already journaled: redelivery, nothing to stage.
		return RecordResult{
			Duplicate: true,
			Status:    existingStatus,
			OrderID:   existingOrderID,
		}, nil
	} else if err != sql.ErrNoRows {
		return RecordResult{}, fmt.Errorf("failed to check existing message: %w", err)
	}

	now := time.Now().UnixMilli()
	status := StatusRejected
	orderID := ""
	errStrings := res.ErrorStrings()
	if res.OK() {
		status = StatusAccepted
		orderID = "ord-" + uuid.New().String()
	}

	errorsJSON, err := json.Marshal(errStrings)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to marshal errors: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_messages (message_id, event_id, chat_id, status, errors_json, order_id, first_seen_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chat.MessageID, chat.EventID, chat.ChatID, status, string(errorsJSON), orderID, now,
	)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to insert chat message: %w", err)
	}

	var events []OutboxEvent

	if res.OK() {
		order := orderFromCommand(chat, res.Command, orderID, now)
		ev, err := stageOutbox(ctx, tx, chat.MessageID, order.EventID, msg.TopicOrderCommands, orderID, order, now)
		if err != nil {
			return RecordResult{}, err
		}
		events = append(events, ev)
	}

	reply := msg.ReplyMsg{
		EventID:      "evt-reply-" + chat.EventID,
		MessageID:    chat.MessageID,
		ChatID:       chat.ChatID,
		Status:       status,
		OrderID:      orderID,
		Errors:       errStrings,
		TsUnixMillis: now,
	}
	ev, err := stageOutbox(ctx, tx, chat.MessageID, reply.EventID, msg.TopicChatReplies, chat.ChatID, reply, now)
	if err != nil {
		return RecordResult{}, err
	}
	events = append(events, ev)

	if err := tx.Commit(); err != nil {
		return RecordResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return RecordResult{
		Status:  status,
		OrderID: orderID,
		Events:  events,
	}, nil
}

// orderFromCommand maps a validated parser command onto the wire schema
func orderFromCommand(chat msg.ChatMsg, cmd *parser.Command, orderID string, now int64) msg.OrderCmdMsg {
	order := msg.OrderCmdMsg{
		EventID:      "evt-order-" + chat.EventID,
		OrderID:      orderID,
		MessageID:    chat.MessageID,
		ChatID:       chat.ChatID,
		Symbol:       cmd.Symbol,
		Side:         string(cmd.Action),
		Size:         cmd.SizeString(),
		SizeType:     string(cmd.SizeType),
		OrderType:    string(cmd.OrderType),
		ReduceOnly:   cmd.ReduceOnly,
		Leverage:     cmd.Leverage,
		TsUnixMillis: now,
	}
	if cmd.StopLossPct.Valid {
		order.StopLossPct = cmd.StopLossPct.Decimal.String()
	}
	if cmd.TakeProfitPct.Valid {
		order.TakeProfitPct = cmd.TakeProfitPct.Decimal.String()
	}
	if cmd.TrailingStopPct.Valid {
		order.TrailingStopPct = cmd.TrailingStopPct.Decimal.String()
	}
	return order
}

// stageOutbox inserts one outbox row inside the journaling transaction
func stageOutbox(ctx context.Context, tx *sql.Tx, messageID, eventID, topic, key string, payload any, now int64) (OutboxEvent, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (message_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		messageID, eventID, topic, key, string(payloadJSON), now,
	)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return OutboxEvent{
		MessageID:         messageID,
		EventID:           eventID,
		Topic:             topic,
		Key:               key,
		PayloadJSON:       string(payloadJSON),
		CreatedUnixMillis: now,
	}, nil
}

// ListUnpublished returns unpublished outbox events
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis
		 FROM outbox_events
		 WHERE published_unix_millis IS NULL
		 ORDER BY created_unix_millis ASC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		var publishedUnixMillis sql.NullInt64
		err := rows.Scan(
			&e.ID, &e.MessageID, &e.EventID, &e.Topic, &e.Key,
			&e.PayloadJSON, &e.CreatedUnixMillis, &publishedUnixMillis,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.PublishedUnixMillis = publishedUnixMillis
		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published
func (s *Store) MarkPublished(ctx context.Context, eventID string, nowMillis int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE outbox_events SET published_unix_millis = ? WHERE event_id = ?",
		nowMillis, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
