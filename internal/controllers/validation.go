package controllers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// AMFI scheme codes are numeric, 4 to 8 digits
var schemeCodePattern = regexp.MustCompile(`^[0-9]{4,8}$`)

// RegisterValidators installs custom binding rules on gin's validator
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("schemecode", func(fl validator.FieldLevel) bool {
			return schemeCodePattern.MatchString(fl.Field().String())
		})
	}
}
