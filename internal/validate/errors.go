// Package validate holds the pure validators applied to user input before
// it reaches persistence.  Their error messages are shown to callers
// verbatim, so they name the offending value.
package validate

import "fmt"

// Kind classifies a validation failure.
type Kind int

const (
	InvalidName Kind = iota + 1
	InvalidDate
	InvalidChoice
	InvalidInput
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidName:
		return "invalid_name"
	case InvalidDate:
		return "invalid_date"
	case InvalidChoice:
		return "invalid_choice"
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every validator.  Field is set by callers that know
// which request field was being validated.
type Error struct {
	Field string
	Kind  Kind
	Msg   string
}

// Error returns the client-facing message.
func (e *Error) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// WithField returns a copy of e naming the request field.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Field names the request field on a validation error and passes any other
// error through.
func Field(err error, field string) error {
	if ve, ok := err.(*Error); ok {
		return ve.WithField(field)
	}
	return err
}
