package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// field is one extractor's outcome: absent, or a value plus the token it
// was read from (kept for error messages).
type field[T any] struct {
	present bool
	value   T
	token   string
}

// Symbol limits are on the raw token, before any quote suffix is appended.
const (
	minSymbolLen = 3
	maxSymbolLen = 10
)

// quoteSuffixes are the recognized quote assets, longest first so USDT is
// tried before USD.
var quoteSuffixes = []string{"USDT", "USDC", "BUSD", "USD"}

// defaultQuote is appended when the symbol carries no recognized suffix.
const defaultQuote = "USDT"

// extractAction matches the first token against the two accepted verbs.
// The match is exact and lowercase: /BUY is not a command. Failure here is
// a syntax error and aborts the whole parse.
func extractAction(toks []string) (Action, *Error) {
	if len(toks) == 0 {
		return "", &Error{Kind: KindSyntax, Field: "input", Message: "empty command"}
	}
	switch toks[0] {
	case "/buy":
		return ActionBuy, nil
	case "/sell":
		return ActionSell, nil
	}
	return "", &Error{
		Kind:    KindSyntax,
		Field:   "action",
		Message: fmt.Sprintf("unrecognized command %q", toks[0]),
	}
}

// extractSymbol reads the second token as the trading pair: letters and
// digits only, length within [minSymbolLen, maxSymbolLen] before suffix
// inference. The token is uppercased and the default quote suffix appended
// unless one is already present, so BTC becomes BTCUSDT while BTCUSD is
// left alone.
func extractSymbol(toks []string) (field[string], []Error) {
	if len(toks) < 2 {
		return field[string]{}, []Error{{
			Kind:    KindMissingField,
			Field:   "symbol",
			Message: "missing symbol",
		}}
	}
	tok := toks[1]
	for _, r := range tok {
		if !isAlnum(r) {
			return field[string]{}, []Error{{
				Kind:    KindValidation,
				Field:   "symbol",
				Message: fmt.Sprintf("invalid symbol %q: letters and digits only", tok),
			}}
		}
	}
	if len(tok) < minSymbolLen || len(tok) > maxSymbolLen {
		return field[string]{}, []Error{{
			Kind:    KindValidation,
			Field:   "symbol",
			Message: fmt.Sprintf("invalid symbol length %d: must be %d-%d characters", len(tok), minSymbolLen, maxSymbolLen),
		}}
	}

	symbol := strings.ToUpper(tok)
	suffixed := false
	for _, q := range quoteSuffixes {
		if strings.HasSuffix(symbol, q) {
			suffixed = true
			break
		}
	}
	if !suffixed {
		symbol += defaultQuote
	}
	return field[string]{present: true, value: symbol, token: tok}, nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// sizeValue is the extracted order size with its denomination.
type sizeValue struct {
	amount   decimal.Decimal
	sizeType SizeType
}

// maxOrderSize is the absolute size ceiling; digit floods at or above it
// are rejected.
var maxOrderSize = decimal.NewFromInt(10_000_000)

// sizeRe matches the numeric-size grammar: optional leading minus
// (captured for rejection), digits, optional fraction, optional inline
// unit suffix.
var sizeRe = regexp.MustCompile(`^(-)?(\d+(?:\.\d+)?)((?i:usdt|u))?$`)

// leverageTailRe recognizes the <digits>x leverage form so the size
// scanner does not flag it as a malformed number.
var leverageTailRe = regexp.MustCompile(`^\d+[xX]$`)

// extractSize scans tokens after the symbol for the first one matching the
// size grammar. A unit suffix, inline or as the next token, marks the size
// as quote-denominated; otherwise it is base-denominated.
func extractSize(toks []string) (field[sizeValue], []Error) {
	for i := 2; i < len(toks); i++ {
		tok := toks[i]
		// A bare-digits token right after the leverage keyword belongs
		// to the leverage extractor, never to the size.
		if i > 0 && strings.ToLower(toks[i-1]) == "leverage" && isDigits(tok) {
			continue
		}
		m := sizeRe.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		if m[1] == "-" {
			return field[sizeValue]{present: true, token: tok}, []Error{{
				Kind:    KindValidation,
				Field:   "size",
				Message: fmt.Sprintf("size %q must be positive", tok),
			}}
		}
		amount, err := decimal.NewFromString(m[2])
		if err != nil {
			return field[sizeValue]{present: true, token: tok}, []Error{{
				Kind:    KindValidation,
				Field:   "size",
				Message: fmt.Sprintf("invalid size %q", tok),
			}}
		}
		sizeType := SizeBase
		if m[3] != "" {
			sizeType = SizeQuote
		} else if i+1 < len(toks) && (toks[i+1] == "USDT" || toks[i+1] == "usdt") {
			sizeType = SizeQuote
		}
		if amount.IsZero() {
			return field[sizeValue]{present: true, token: tok}, []Error{{
				Kind:    KindValidation,
				Field:   "size",
				Message: "size must be greater than zero",
			}}
		}
		if amount.GreaterThanOrEqual(maxOrderSize) {
			return field[sizeValue]{present: true, token: tok}, []Error{{
				Kind:    KindValidation,
				Field:   "size",
				Message: fmt.Sprintf("size %s exceeds maximum %s", amount.String(), maxOrderSize.String()),
			}}
		}
		return field[sizeValue]{
			present: true,
			value:   sizeValue{amount: amount, sizeType: sizeType},
			token:   tok,
		}, nil
	}

	// No token matched the grammar. A numeric-looking token that failed it
	// (12.3.4, 100u5) is a format error rather than a missing size.
	for i := 2; i < len(toks); i++ {
		tok := toks[i]
		if len(tok) == 0 {
			continue
		}
		c := tok[0]
		if c != '-' && (c < '0' || c > '9') {
			continue
		}
		// Percent-bearing tokens are risk values, never sizes.
		if strings.Contains(tok, "%") {
			continue
		}
		if leverageTailRe.MatchString(tok) {
			continue
		}
		if i > 0 && strings.ToLower(toks[i-1]) == "leverage" && isDigits(tok) {
			continue
		}
		return field[sizeValue]{present: true, token: tok}, []Error{{
			Kind:    KindValidation,
			Field:   "size",
			Message: fmt.Sprintf("invalid size format %q", tok),
		}}
	}

	return field[sizeValue]{}, []Error{{
		Kind:    KindMissingField,
		Field:   "size",
		Message: "missing size",
	}}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

const (
	minLeverage = 1
	maxLeverage = 125
)

var (
	levPrefixRe = regexp.MustCompile(`^[xX](\d+)$`)
	levSuffixRe = regexp.MustCompile(`^(\d+)[xX]$`)
)

// extractLeverage recognizes x5, 5x, and "leverage 5", scanning left to
// right with the first match winning. Absence is fine; an out-of-range or
// non-numeric value names the offending token and is never clamped.
func extractLeverage(toks []string) (field[int], []Error) {
	for i := 2; i < len(toks); i++ {
		tok := toks[i]
		if m := levPrefixRe.FindStringSubmatch(tok); m != nil {
			return leverageValue(m[1], tok)
		}
		if m := levSuffixRe.FindStringSubmatch(tok); m != nil {
			return leverageValue(m[1], tok)
		}
		if strings.ToLower(tok) == "leverage" {
			if i+1 >= len(toks) {
				return field[int]{present: true, token: tok}, []Error{{
					Kind:    KindValidation,
					Field:   "leverage",
					Message: "leverage requires a value",
				}}
			}
			next := toks[i+1]
			if !isDigits(next) {
				return field[int]{present: true, token: next}, []Error{{
					Kind:    KindValidation,
					Field:   "leverage",
					Message: fmt.Sprintf("invalid leverage %q", next),
				}}
			}
			return leverageValue(next, next)
		}
	}
	return field[int]{}, nil
}

// leverageValue parses and range-checks an extracted leverage number.
func leverageValue(digits, tok string) (field[int], []Error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < minLeverage || n > maxLeverage {
		return field[int]{present: true, token: tok}, []Error{{
			Kind:    KindValidation,
			Field:   "leverage",
			Message: fmt.Sprintf("leverage %q out of range: must be %d-%d", tok, minLeverage, maxLeverage),
		}}
	}
	return field[int]{present: true, value: n, token: tok}, nil
}

// riskCeiling is the exclusive upper bound for risk percentages.
var riskCeiling = decimal.NewFromInt(100)

// riskParam describes one of the three risk parameters: its compact
// keyword and its verbose two-word form.
type riskParam struct {
	name  string
	key   string
	words [2]string
}

var riskParams = []riskParam{
	{name: "stop loss", key: "sl", words: [2]string{"stop", "loss"}},
	{name: "take profit", key: "tp", words: [2]string{"take", "profit"}},
	{name: "trailing stop", key: "trail", words: [2]string{"trailing", "stop"}},
}

var riskValueRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)%$`)
var riskEqValueRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)%?$`)

// riskFields holds the three independently extracted risk parameters.
type riskFields struct {
	stopLoss     decimal.NullDecimal
	takeProfit   decimal.NullDecimal
	trailingStop decimal.NullDecimal
}

// extractRisk pulls stop-loss, take-profit, and trailing-stop out of the
// token stream. Each parameter is extracted on its own, trying forms in a
// fixed precedence order (compact, equals, verbose, space-separated
// compact); the three may mix forms within one command.
func extractRisk(toks []string) (riskFields, []Error) {
	var out riskFields
	var errs []Error
	for _, p := range riskParams {
		f, perrs := extractRiskParam(toks, p)
		errs = append(errs, perrs...)
		if !f.present || len(perrs) > 0 {
			continue
		}
		nd := decimal.NullDecimal{Decimal: f.value, Valid: true}
		switch p.key {
		case "sl":
			out.stopLoss = nd
		case "tp":
			out.takeProfit = nd
		case "trail":
			out.trailingStop = nd
		}
	}
	return out, errs
}

// extractRiskParam tries the accepted surface forms for one risk parameter
// in precedence order and returns the first match.
func extractRiskParam(toks []string, p riskParam) (field[decimal.Decimal], []Error) {
	// Compact: sl1%, tp2.5%, trail3%.
	for i := 2; i < len(toks); i++ {
		lower := strings.ToLower(toks[i])
		rest, ok := strings.CutPrefix(lower, p.key)
		if !ok || rest == "" {
			continue
		}
		if m := riskValueRe.FindStringSubmatch(rest); m != nil {
			return riskValue(p, m[1], toks[i])
		}
	}
	// Equals: sl=1, sl=1%.
	for i := 2; i < len(toks); i++ {
		lower := strings.ToLower(toks[i])
		rest, ok := strings.CutPrefix(lower, p.key+"=")
		if !ok {
			continue
		}
		if m := riskEqValueRe.FindStringSubmatch(rest); m != nil {
			return riskValue(p, m[1], toks[i])
		}
	}
	// Verbose: "stop loss 1%".
	for i := 2; i+2 < len(toks); i++ {
		if strings.ToLower(toks[i]) != p.words[0] || strings.ToLower(toks[i+1]) != p.words[1] {
			continue
		}
		if m := riskValueRe.FindStringSubmatch(toks[i+2]); m != nil {
			return riskValue(p, m[1], toks[i+2])
		}
	}
	// Space-separated compact: "sl 1%".
	for i := 2; i+1 < len(toks); i++ {
		if strings.ToLower(toks[i]) != p.key {
			continue
		}
		if m := riskValueRe.FindStringSubmatch(toks[i+1]); m != nil {
			return riskValue(p, m[1], toks[i+1])
		}
	}
	return field[decimal.Decimal]{}, nil
}

// riskValue parses and range-checks one risk percentage: strictly above
// zero and strictly below the ceiling.
func riskValue(p riskParam, digits, tok string) (field[decimal.Decimal], []Error) {
	v, err := decimal.NewFromString(digits)
	if err != nil {
		return field[decimal.Decimal]{present: true, token: tok}, []Error{{
			Kind:    KindValidation,
			Field:   p.name,
			Message: fmt.Sprintf("invalid %s %q", p.name, tok),
		}}
	}
	if v.IsZero() {
		return field[decimal.Decimal]{present: true, token: tok}, []Error{{
			Kind:    KindValidation,
			Field:   p.name,
			Message: fmt.Sprintf("%s must be greater than zero", p.name),
		}}
	}
	if v.GreaterThanOrEqual(riskCeiling) {
		return field[decimal.Decimal]{present: true, token: tok}, []Error{{
			Kind:    KindValidation,
			Field:   p.name,
			Message: fmt.Sprintf("%s %s%% must be less than %s", p.name, v.String(), riskCeiling.String()),
		}}
	}
	return field[decimal.Decimal]{present: true, value: v, token: tok}, nil
}

// orderFlags are the independently matched order-type and reduce-only
// tokens.
type orderFlags struct {
	orderType  OrderType
	reduceOnly bool
}

// extractFlags looks up the literal flag tokens. Market is the default;
// limit wins when both appear. Tokens no extractor consumes are ignored.
func extractFlags(toks []string) orderFlags {
	flags := orderFlags{orderType: OrderMarket}
	for i := 2; i < len(toks); i++ {
		switch strings.ToLower(toks[i]) {
		case "limit":
			flags.orderType = OrderLimit
		case "reduce":
			flags.reduceOnly = true
		}
	}
	return flags
}
