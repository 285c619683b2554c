package msg

// ChatMsg is one inbound chat message carrying possible trade shorthand
type ChatMsg struct {
	EventID      string `json:"event_id"`
	MessageID    string `json:"message_id"`
	ChatID       string `json:"chat_id"`
	UserID       string `json:"user_id"`
	Text         string `json:"text"`
	TsUnixMillis int64  `json:"ts_unix_millis"`
}

// OrderCmdMsg is a canonical, fully validated order command
type OrderCmdMsg struct {
	EventID         string `json:"event_id"`
	OrderID         string `json:"order_id"`
	MessageID       string `json:"message_id"`
	ChatID          string `json:"chat_id"`
	Symbol          string `json:"symbol"`
	Side            string `json:"side"`       // "BUY" or "SELL"
	Size            string `json:"size"`       // exact decimal string
	SizeType        string `json:"size_type"`  // "BASE" or "QUOTE"
	OrderType       string `json:"order_type"` // "MARKET" or "LIMIT"
	ReduceOnly      bool   `json:"reduce_only"`
	Leverage        int    `json:"leverage,omitempty"`
	StopLossPct     string `json:"stop_loss_pct,omitempty"`
	TakeProfitPct   string `json:"take_profit_pct,omitempty"`
	TrailingStopPct string `json:"trailing_stop_pct,omitempty"`
	TsUnixMillis    int64  `json:"ts_unix_millis"`
}

// ReplyMsg is the accept/reject reply routed back to the chat layer
type ReplyMsg struct {
	EventID      string   `json:"event_id"`
	MessageID    string   `json:"message_id"`
	ChatID       string   `json:"chat_id"`
	Status       string   `json:"status"` // "ACCEPTED" or "REJECTED"
	OrderID      string   `json:"order_id,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	TsUnixMillis int64    `json:"ts_unix_millis"`
}
