package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EchoValidator adapts go-playground/validator to echo.Validator.  It
// enforces struct-level rules (required, oneof); the field validators in this
// package run afterwards in the handlers.
type EchoValidator struct {
	v *validator.Validate
}

// NewEchoValidator returns a validator that reports fields by their json
// tag, ready to assign to echo.Echo.Validator.
func NewEchoValidator() *EchoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return &EchoValidator{v: v}
}

// Validate returns the first failing field as an *Error.
func (ev *EchoValidator) Validate(i interface{}) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return &Error{Field: fe.Field(), Kind: InvalidInput, Msg: "Missing required parameter"}
	case "oneof":
		return &Error{
			Field: fe.Field(),
			Kind:  InvalidChoice,
			Msg: fmt.Sprintf("'%v' is not a valid choice. Value must be one of: %s.",
				fe.Value(), strings.Join(strings.Fields(fe.Param()), ", ")),
		}
	}
	return &Error{Field: fe.Field(), Kind: InvalidInput, Msg: fmt.Sprintf("failed '%s' validation", fe.Tag())}
}
