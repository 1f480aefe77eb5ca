package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/itsdone/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("timestamp", validateTimestamp); err != nil {
		panic(fmt.Sprintf("failed to register timestamp validator: %v", err))
	}
	if err := Validate.RegisterValidation("notblank", validateNotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validator: %v", err))
	}
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
}

// validateTimestamp accepts any layout models.ParseTimestamp understands
func validateTimestamp(fl validator.FieldLevel) bool {
	_, err := models.ParseTimestamp(fl.Field().String())
	return err == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validatePriority(fl validator.FieldLevel) bool {
	_, ok := models.ParsePriority(fl.Field().String())
	return ok
}

// Struct validates s and flattens validator errors into a readable message
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	pairs := map[string]bool{}
	for _, fe := range verrs {
		if fe.Tag() == "required_without" {
			// Both sides of a pair fail together; report the pair once
			key := pairKey(fe.Field(), fe.Param())
			if pairs[key] {
				continue
			}
			pairs[key] = true
		}
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// jsonName turns a Go field name into the argument name the model sends:
// ReminderTime -> reminderTime, ID -> id
func jsonName(field string) string {
	if field == "" || strings.ToUpper(field) == field {
		return strings.ToLower(field)
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func describeFieldError(fe validator.FieldError) string {
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "required_without":
		return field + " or " + jsonName(fe.Param()) + " is required"
	case "timestamp":
		return field + " is not a valid date/time"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
