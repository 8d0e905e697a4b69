package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps a shared validator instance for request bodies.
type RequestValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce     sync.Once
	validatorInstance *RequestValidator
)

// GetValidator returns the process-wide request validator.
func GetValidator() *RequestValidator {
	validatorOnce.Do(func() {
		validatorInstance = &RequestValidator{validate: validator.New()}
	})
	return validatorInstance
}

// Validate runs struct-tag validation on a request body.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
