package store

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the validate tags of v and reports failures as KindInvalid.
func Validate(op string, v any) error {
	if err := validate.Struct(v); err != nil {
		return E(op, KindInvalid, err)
	}
	return nil
}
