// Package validation checks the request bodies the BFF accepts.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var phoneNumberRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var messages = map[string]string{
	"required":     "is required",
	"oneof":        "must be one of: %s",
	"email":        "must be a valid email address",
	"phone_number": "must be a phone number of 7 to 15 digits",
	"datetime":     "must match layout %s",
	"min":          "must be at least %s",
	"max":          "must be at most %s",
}

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
}

// Struct validates s against its `validate` tags.
func Struct(s interface{}) error {
	return validate.Struct(s)
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	return phoneNumberRe.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// FirstError renders the first failure of a validator error as
// "<field> <message>". Other errors are returned as is.
func FirstError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	return describe(verrs[0])
}

// AllErrors renders every failure, comma separated.
func AllErrors(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, describe(fe))
	}
	return strings.Join(out, ", ")
}

func describe(fe validator.FieldError) string {
	msg, ok := messages[fe.Tag()]
	if !ok {
		msg = "is invalid"
	}
	if strings.Contains(msg, "%s") {
		msg = strings.Replace(msg, "%s", fe.Param(), 1)
	}
	return fe.Field() + " " + msg
}
