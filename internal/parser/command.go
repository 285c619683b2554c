package parser

import "github.com/shopspring/decimal"

// Action is the trade direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// SizeType says which currency the size is denominated in.
type SizeType string

const (
	// SizeBase means the size is in units of the traded asset (0.25 BTC).
	SizeBase SizeType = "BASE"
	// SizeQuote means the size is in units of the quote currency (100 USDT).
	SizeQuote SizeType = "QUOTE"
)

// OrderType is the execution style of the order.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
)

// Command is the canonical, fully validated trade order produced by Parse.
// A Command is only ever constructed after every field has passed
// validation; holding one means it is safe to hand to order execution.
type Command struct {
	Action     Action
	Symbol     string
	Size       decimal.Decimal
	SizeType   SizeType
	OrderType  OrderType
	ReduceOnly bool

	// Leverage is 0 when the command did not specify leverage
	// (a spot, non-leveraged order). When set it lies in [1,125].
	Leverage int

	StopLossPct     decimal.NullDecimal
	TakeProfitPct   decimal.NullDecimal
	TrailingStopPct decimal.NullDecimal
}

// SizeString returns the size as an exact decimal string.
func (c *Command) SizeString() string {
	return c.Size.String()
}
