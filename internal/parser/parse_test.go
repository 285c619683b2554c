package parser

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CanonicalBuy(t *testing.T) {
	res := Parse("/buy BTC 100u x5 sl1% tp3%")
	require.True(t, res.OK(), "expected success, got errors: %v", res.ErrorStrings())

	cmd := res.Command
	assert.Equal(t, ActionBuy, cmd.Action)
	assert.Equal(t, "BTCUSDT", cmd.Symbol, "default quote suffix should be appended")
	assert.Equal(t, "100", cmd.SizeString())
	assert.Equal(t, SizeQuote, cmd.SizeType)
	assert.Equal(t, OrderMarket, cmd.OrderType)
	assert.False(t, cmd.ReduceOnly)
	assert.Equal(t, 5, cmd.Leverage)
	require.True(t, cmd.StopLossPct.Valid)
	assert.True(t, cmd.StopLossPct.Decimal.Equal(decimal.NewFromInt(1)))
	require.True(t, cmd.TakeProfitPct.Valid)
	assert.True(t, cmd.TakeProfitPct.Decimal.Equal(decimal.NewFromInt(3)))
	assert.False(t, cmd.TrailingStopPct.Valid)
}

func TestParse_QuoteSuffixNotDuplicated(t *testing.T) {
	res := Parse("/sell BTCUSD 0.1 x2")
	require.True(t, res.OK(), "errors: %v", res.ErrorStrings())
	assert.Equal(t, "BTCUSD", res.Command.Symbol, "USD is already a recognized suffix")
	assert.Equal(t, ActionSell, res.Command.Action)
	assert.Equal(t, "0.1", res.Command.SizeString())
	assert.Equal(t, SizeBase, res.Command.SizeType)
	assert.Equal(t, 2, res.Command.Leverage)
}

func TestParse_LeverageSynonyms(t *testing.T) {
	inputs := []string{
		"/buy BTCUSDT 100u leverage 5",
		"/buy BTCUSDT 100u x5",
		"/buy BTCUSDT 100u 5x",
	}
	for _, in := range inputs {
		res := Parse(in)
		require.True(t, res.OK(), "input %q, errors: %v", in, res.ErrorStrings())
		assert.Equal(t, 5, res.Command.Leverage, "input %q", in)
		assert.Equal(t, "100", res.Command.SizeString(), "input %q", in)
		assert.Equal(t, SizeQuote, res.Command.SizeType, "input %q", in)
	}
}

func TestParse_LeverageKeywordBeforeSize(t *testing.T) {
	// The bare value after the leverage keyword must not be taken as the
	// size even when it appears first.
	res := Parse("/buy BTC leverage 5 100u")
	require.True(t, res.OK(), "errors: %v", res.ErrorStrings())
	assert.Equal(t, 5, res.Command.Leverage)
	assert.Equal(t, "100", res.Command.SizeString())
}

func TestParse_LeverageRange(t *testing.T) {
	for _, in := range []string{
		"/buy BTCUSDT 100u x0",
		"/buy BTCUSDT 100u 0x",
		"/buy BTCUSDT 100u leverage 0",
		"/buy BTCUSDT 100u x126",
		"/buy BTCUSDT 100u leverage 999999999999999999999",
	} {
		res := Parse(in)
		require.False(t, res.OK(), "input %q should be rejected", in)
		joined := strings.Join(res.ErrorStrings(), "; ")
		assert.Contains(t, joined, "leverage", "input %q", in)
	}
}

func TestParse_RiskParameterForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sl    string
		tp    string
		trail string
	}{
		{"compact", "/buy BTC 100u sl1% tp3% trail2%", "1", "3", "2"},
		{"equals", "/buy BTC 100u sl=1 tp=3.5 trail=2", "1", "3.5", "2"},
		{"verbose", "/buy BTC 100u stop loss 1% take profit 3% trailing stop 2%", "1", "3", "2"},
		{"spaced compact", "/buy BTC 100u sl 1% tp 3% trail 2%", "1", "3", "2"},
		{"mixed forms", "/buy BTC 100u sl1.5% tp=3 trailing stop 2%", "1.5", "3", "2"},
		{"decimal values", "/buy BTC 100u sl0.5% tp10.25%", "0.5", "10.25", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.input)
			require.True(t, res.OK(), "errors: %v", res.ErrorStrings())
			assertNullDecimal(t, tt.sl, res.Command.StopLossPct, "stop loss")
			assertNullDecimal(t, tt.tp, res.Command.TakeProfitPct, "take profit")
			assertNullDecimal(t, tt.trail, res.Command.TrailingStopPct, "trailing stop")
		})
	}
}

func assertNullDecimal(t *testing.T, want string, got decimal.NullDecimal, label string) {
	t.Helper()
	if want == "" {
		assert.False(t, got.Valid, "%s should be absent", label)
		return
	}
	require.True(t, got.Valid, "%s should be present", label)
	expected, err := decimal.NewFromString(want)
	require.NoError(t, err)
	assert.True(t, got.Decimal.Equal(expected), "%s: want %s, got %s", label, want, got.Decimal.String())
}

func TestParse_RiskParameterRange(t *testing.T) {
	for _, in := range []string{
		"/buy BTC 100u sl0%",
		"/buy BTC 100u sl=0",
		"/buy BTC 100u tp100%",
		"/buy BTC 100u trail250%",
	} {
		res := Parse(in)
		assert.False(t, res.OK(), "input %q should be rejected", in)
	}
}

func TestParse_OrderTypeAndFlags(t *testing.T) {
	res := Parse("/sell ETH 0.5 limit reduce")
	require.True(t, res.OK(), "errors: %v", res.ErrorStrings())
	assert.Equal(t, "ETHUSDT", res.Command.Symbol)
	assert.Equal(t, OrderLimit, res.Command.OrderType)
	assert.True(t, res.Command.ReduceOnly)
	assert.Equal(t, 0, res.Command.Leverage, "no leverage token means spot order")

	res = Parse("/buy ETH 0.5 mkt")
	require.True(t, res.OK())
	assert.Equal(t, OrderMarket, res.Command.OrderType)

	// Limit wins when both order types are named.
	res = Parse("/buy ETH 0.5 market limit")
	require.True(t, res.OK())
	assert.Equal(t, OrderLimit, res.Command.OrderType)
}

func TestParse_SeparateUnitToken(t *testing.T) {
	res := Parse("/buy BTC 100 USDT x3")
	require.True(t, res.OK(), "errors: %v", res.ErrorStrings())
	assert.Equal(t, SizeQuote, res.Command.SizeType)
	assert.Equal(t, "100", res.Command.SizeString())
}

func TestParse_CaseSensitiveVerb(t *testing.T) {
	for _, in := range []string{
		"/BUY BTCUSDT 100u x5",
		"/Buy BTCUSDT 100u",
		"buy BTCUSDT 100u",
		"/hold BTCUSDT 100u",
	} {
		res := Parse(in)
		require.False(t, res.OK(), "input %q should be rejected", in)
		require.Len(t, res.Errors, 1, "verb rejection aborts parsing")
		assert.Equal(t, KindSyntax, res.Errors[0].Kind)
	}
}

func TestParse_SizeValidation(t *testing.T) {
	tests := []struct {
		input   string
		mention string
	}{
		{"/buy BTCUSDT -100u", "positive"},
		{"/buy BTCUSDT 0", "greater than zero"},
		{"/buy BTCUSDT 0.000", "greater than zero"},
		{"/buy BTCUSDT 10000000", "maximum"},
		{"/buy BTCUSDT 99999999999999999999", "maximum"},
		{"/buy BTCUSDT 12.3.4", "format"},
		{"/buy BTCUSDT x5", "missing size"},
	}
	for _, tt := range tests {
		res := Parse(tt.input)
		require.False(t, res.OK(), "input %q should be rejected", tt.input)
		joined := strings.Join(res.ErrorStrings(), "; ")
		assert.Contains(t, joined, tt.mention, "input %q", tt.input)
	}
}

func TestParse_SymbolValidation(t *testing.T) {
	res := Parse("/buy AB 100u")
	require.False(t, res.OK())
	assert.Contains(t, strings.Join(res.ErrorStrings(), "; "), "symbol length")

	res = Parse("/buy VERYLONGSYMBOL 100u")
	require.False(t, res.OK())
	assert.Contains(t, strings.Join(res.ErrorStrings(), "; "), "symbol length")

	res = Parse("/buy BTC-PERP 100u")
	require.False(t, res.OK())
	assert.Contains(t, strings.Join(res.ErrorStrings(), "; "), "letters and digits")

	res = Parse("/buy btc 100u")
	require.True(t, res.OK(), "lowercase symbol is fine: %v", res.ErrorStrings())
	assert.Equal(t, "BTCUSDT", res.Command.Symbol)
}

func TestParse_ErrorAccumulation(t *testing.T) {
	// Invalid size and invalid leverage must both be reported.
	res := Parse("/buy BTCUSDT -100u x200")
	require.False(t, res.OK())
	require.GreaterOrEqual(t, len(res.Errors), 2, "all violations reported together: %v", res.ErrorStrings())

	joined := strings.Join(res.ErrorStrings(), "; ")
	assert.Contains(t, joined, "size")
	assert.Contains(t, joined, "leverage")
}

func TestParse_ErrorOrderIsFieldOrder(t *testing.T) {
	res := Parse("/buy A -1u x999 sl0%")
	require.False(t, res.OK())
	require.GreaterOrEqual(t, len(res.Errors), 4)
	assert.Equal(t, "symbol", res.Errors[0].Field)
	assert.Equal(t, "size", res.Errors[1].Field)
	assert.Equal(t, "leverage", res.Errors[2].Field)
	assert.Equal(t, "stop loss", res.Errors[3].Field)
}

func TestParse_MissingRequiredFields(t *testing.T) {
	res := Parse("/buy")
	require.False(t, res.OK())
	joined := strings.Join(res.ErrorStrings(), "; ")
	assert.Contains(t, joined, "missing symbol")
	assert.Contains(t, joined, "missing size")
}

func TestParse_DisallowedCharacters(t *testing.T) {
	for _, in := range []string{
		"/buy BTC％ 100u",   // fullwidth percent
		"/buy BTС 100u",    // cyrillic С look-alike
		"/buy BTC 100u\x00",
		"/buy BTC 100u; DROP TABLE orders",
	} {
		res := Parse(in)
		require.False(t, res.OK(), "input %q should be rejected", in)
		assert.Equal(t, KindSyntax, res.Errors[0].Kind, "input %q", in)
	}
}

func TestParse_Totality(t *testing.T) {
	// None of these may panic; each maps to exactly one Result.
	inputs := []string{
		"",
		"   ",
		"\t\n\r",
		"/",
		"/buy",
		strings.Repeat("a", 100_000),
		strings.Repeat("/buy BTC 100u ", 50),
		string([]byte{0xff, 0xfe, 0x00, 0x41}),
		"/buy " + strings.Repeat("9", 300),
	}
	for _, in := range inputs {
		res := Parse(in)
		assert.False(t, res.OK() && len(res.Errors) > 0, "never both command and errors")
		assert.True(t, res.OK() || len(res.Errors) > 0, "never neither command nor errors")
	}
}

func TestParse_OversizeInputRejectedCheaply(t *testing.T) {
	res := Parse("/buy BTC 100u " + strings.Repeat("x", 10_000))
	require.False(t, res.OK())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindSyntax, res.Errors[0].Kind)
	assert.Contains(t, res.Errors[0].Message, "256")
}

func TestParse_Determinism(t *testing.T) {
	for _, in := range []string{
		"/buy BTC 100u x5 sl1% tp3%",
		"/sell nonsense",
		"/buy BTCUSDT -100u x200",
	} {
		first := Parse(in)
		second := Parse(in)
		assert.Equal(t, first, second, "input %q", in)
	}
}

func TestParse_WhitespaceInsensitiveBetweenTokens(t *testing.T) {
	res := Parse("  /buy   BTC \t 100u \n x5  ")
	require.True(t, res.OK(), "errors: %v", res.ErrorStrings())
	assert.Equal(t, "BTCUSDT", res.Command.Symbol)
	assert.Equal(t, 5, res.Command.Leverage)
}

func TestParse_DecorationTokensIgnored(t *testing.T) {
	res := Parse("/buy BTC 100u pls asap x5")
	require.True(t, res.OK(), "unmatched decoration must not fail: %v", res.ErrorStrings())
	assert.Equal(t, 5, res.Command.Leverage)
}
