package validate

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// New builds the application validator. Field names in error reports follow
// the json tag, and the custom strongpwd rule requires at least 8 runes,
// one upper-case letter and one digit.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		var hasUpper, hasDigit bool
		for _, r := range pwd {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return utf8.RuneCountInString(pwd) >= 8 && hasUpper && hasDigit
	})
	return v
}

// Fields flattens a validator error into one message per violated field,
// keyed by the field's json name (lower-cased struct field as fallback).
func Fields(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		out[name] = message(name, fe)
	}
	return out
}

func message(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "max":
		return fmt.Sprintf("%s must not be longer than %s characters", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", name, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s does not match", name)
	case "strongpwd":
		return fmt.Sprintf("%s must be at least 8 characters with an upper-case letter and a digit", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
