package parser

// ErrorKind classifies a rejection reason.
type ErrorKind string

const (
	// KindSyntax marks structurally unrecognizable input (bad action
	// prefix, disallowed characters, oversize input). Fatal: no field
	// extraction is attempted after one.
	KindSyntax ErrorKind = "syntax"
	// KindValidation marks a recognized field with an out-of-policy value.
	KindValidation ErrorKind = "validation"
	// KindMissingField marks a required field that matched no accepted form.
	KindMissingField ErrorKind = "missing_field"
)

// Error is a single rejection reason. It is a plain value; the parser
// never panics and never returns a Go error.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Result is the outcome of one Parse call: either Command is non-nil and
// Errors is empty, or Command is nil and Errors holds every rejection
// reason in field extraction order. There is no third state.
type Result struct {
	Command *Command
	Errors  []Error
}

// OK reports whether the input parsed into a valid command.
func (r Result) OK() bool {
	return r.Command != nil
}

// ErrorStrings returns the rejection reasons as user-facing strings.
func (r Result) ErrorStrings() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}
