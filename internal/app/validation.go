package app

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"hostel_hub/internal/domain"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom tags & texts
	passwordTag  = "password"
	passwordText = "password must be at least 8 characters, contain no spaces and not be entirely numeric"

	amenityTag  = "amenity"
	amenityText = "{0} contains an unknown amenity"

	requiredTag  = "required"
	requiredText = "this field is required"
)

func init() {
	validate = validator.New()
	uni := ut.New(en.New())
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report JSON names, not Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(passwordTag, passwordValidation)
	registerTranslation(passwordTag, passwordText, false)

	_ = validate.RegisterValidation(amenityTag, amenityValidation)
	registerTranslation(amenityTag, amenityText, false)

	registerTranslation(requiredTag, requiredText, true)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// validateStruct runs struct validation and converts failures into a
// *domain.ValidationError keyed by JSON field names.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{Field: fieldPath(fe), Message: fe.Translate(translator)})
	}
	return domain.NewValidationError(fields...)
}

// fieldPath drops the top-level struct name from the namespace
// ("Pricing.available_rooms" -> "available_rooms").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func passwordValidation(fl validator.FieldLevel) bool {
	pwd := fl.Field().String()
	if len([]rune(pwd)) < 8 {
		return false
	}
	allDigits := true
	for _, r := range pwd {
		if unicode.IsSpace(r) {
			return false
		}
		if !unicode.IsDigit(r) {
			allDigits = false
		}
	}
	return !allDigits
}

func amenityValidation(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	for _, a := range domain.Amenities {
		if a == v {
			return true
		}
	}
	return false
}

// cleanString trims and collapses inner whitespace; lower is optional.
func cleanString(s string, lower ...bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}

func trimText(s string) string { return strings.TrimSpace(s) }

func cleanOptional(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}
