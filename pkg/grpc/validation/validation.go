// Package validation checks gRPC messages against their `validate` struct
// tags before they reach a handler or leave a client.
package validation

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Validator is implemented by messages with checks that struct tags can't
// express. It runs before tag validation.
type Validator interface {
	Validate() error
}

var validate = validator.New()

// RegisterValidation adds a custom tag to the shared validator. Tags must be
// registered before any message is validated.
func RegisterValidation(tag string, fn validator.Func) error {
	return validate.RegisterValidation(tag, fn)
}

// Validate validates msg. Non-struct messages are accepted as is.
func Validate(msg interface{}) error {
	if msg == nil {
		return nil
	}

	if v, ok := msg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	rv := reflect.ValueOf(msg)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	return validate.Struct(msg)
}
