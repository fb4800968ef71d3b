// internal/utils/validator.go
package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var (
	licenseKeyPattern   = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)
	angleBrackets       = regexp.MustCompile(`[<>]`)
	javascriptScheme    = regexp.MustCompile(`(?i)javascript:`)
	inlineEventHandlers = regexp.MustCompile(`(?i)on\w+=`)

	maxAmount = decimal.NewFromInt(999999)
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidUUID     = errors.New("invalid uuid")
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidAmount   = errors.New("amount must be positive and at most 999999")
	ErrInvalidKey      = errors.New("invalid license key format")
	ErrInvalidWebhook  = errors.New("invalid discord webhook url")
	ErrPasswordLength  = errors.New("password must be between 8 and 128 characters")
	ErrPasswordUpper   = errors.New("password must contain an uppercase letter")
	ErrPasswordLower   = errors.New("password must contain a lowercase letter")
	ErrPasswordNumeric = errors.New("password must contain a number")
)

const discordWebhookPrefix = "https://discord.com/api/webhooks/"

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("license_key", validateLicenseKeyTag)
	validate.RegisterValidation("discord_webhook", validateDiscordWebhookTag)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	return ValidatePassword(fl.Field().String()) == nil
}

func validateLicenseKeyTag(fl validator.FieldLevel) bool {
	return licenseKeyPattern.MatchString(fl.Field().String())
}

func validateDiscordWebhookTag(fl validator.FieldLevel) bool {
	return ValidateDiscordWebhookURL(fl.Field().String()) == nil
}

// ValidateEmail normalises (lowercase, trimmed) and checks the address.
func ValidateEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(normalized, "required,email,min=5,max=255"); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return ErrPasswordLength
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordUpper
	case !hasLower:
		return ErrPasswordLower
	case !hasNumber:
		return ErrPasswordNumeric
	}
	return nil
}

func ValidateUUID(id string) bool {
	return validate.Var(id, "required,uuid") == nil
}

// ValidateAmount accepts strictly positive values up to 999999.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

func ValidateURL(raw string) (string, error) {
	if err := validate.Var(raw, "required,url"); err != nil {
		return "", ErrInvalidURL
	}
	return raw, nil
}

func ValidateLicenseKey(key string) error {
	if !licenseKeyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

func ValidateDiscordWebhookURL(raw string) error {
	if _, err := ValidateURL(raw); err != nil || !strings.HasPrefix(raw, discordWebhookPrefix) {
		return ErrInvalidWebhook
	}
	return nil
}

// SanitizeText strips markup and inline script vectors from free text.
func SanitizeText(text string) string {
	text = angleBrackets.ReplaceAllString(text, "")
	text = javascriptScheme.ReplaceAllString(text, "")
	text = inlineEventHandlers.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return e.Field() + " must be a valid UUID"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "strong_password":
		return "Password must have 8-128 characters with uppercase, lowercase and a number"
	case "license_key":
		return "License key must look like XXXX-XXXX-XXXX-XXXX"
	case "discord_webhook":
		return "Discord webhook URL must start with " + discordWebhookPrefix
	default:
		return e.Field() + " is invalid"
	}
}
