package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// National phone format: +992 followed by nine digits.
var tjPhoneRegex = regexp.MustCompile(`^\+992\d{9}$`)

// RegisterValidators installs custom validators into gin's binding
// engine. Must be called once before the router starts serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	return v.RegisterValidation("tjphone", func(fl validator.FieldLevel) bool {
		return tjPhoneRegex.MatchString(fl.Field().String())
	})
}
