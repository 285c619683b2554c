// Package parser turns free-text trade shorthand such as
// "/buy BTCUSDT 100u x5 sl1% tp3%" into a canonical, fully validated
// trade command, or an ordered list of rejection reasons.
//
// Parsing is total and pure: every input string, including empty,
// oversize, and arbitrary-byte input, maps to exactly one Result with no
// panics, no I/O, and no shared state, so Parse is safe to call from any
// number of goroutines.
package parser

// Parse interprets one chat message as a trade command.
//
// The grammar is deliberately permissive: after the verb and symbol,
// tokens may appear in any order, every field has several accepted
// spellings, and unrecognized decoration tokens are ignored. The output
// is strict: either a Command whose every field passed validation, or all
// accumulated violations so the user sees every problem in one reply.
func Parse(input string) Result {
	normalized, serr := normalize(input)
	if serr != nil {
		return Result{Errors: []Error{*serr}}
	}
	toks := tokenize(normalized)

	action, serr := extractAction(toks)
	if serr != nil {
		// Syntax errors are fatal: nothing downstream means anything
		// without a recognized verb.
		return Result{Errors: []Error{*serr}}
	}

	var errs []Error
	symbol, symErrs := extractSymbol(toks)
	errs = append(errs, symErrs...)
	size, sizeErrs := extractSize(toks)
	errs = append(errs, sizeErrs...)
	leverage, levErrs := extractLeverage(toks)
	errs = append(errs, levErrs...)
	risk, riskErrs := extractRisk(toks)
	errs = append(errs, riskErrs...)
	flags := extractFlags(toks)

	if len(errs) > 0 {
		return Result{Errors: errs}
	}

	// Sole construction point for Command: reached only with every field
	// validated and both required fields present.
	cmd := &Command{
		Action:          action,
		Symbol:          symbol.value,
		Size:            size.value.amount,
		SizeType:        size.value.sizeType,
		OrderType:       flags.orderType,
		ReduceOnly:      flags.reduceOnly,
		StopLossPct:     risk.stopLoss,
		TakeProfitPct:   risk.takeProfit,
		TrailingStopPct: risk.trailingStop,
	}
	if leverage.present {
		cmd.Leverage = leverage.value
	}
	return Result{Command: cmd}
}
