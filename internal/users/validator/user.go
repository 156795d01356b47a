package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	return &UserValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *UserValidator) ValidateRegister(req *model.RegisterRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if err := validatePassword(req.Password); err != nil {
		return ValidationErrors{*err}
	}

	// Guests represent a company looking for a workspace, so their profile
	// must carry position and LinkedIn alongside the company name.
	for _, role := range req.Roles {
		if role == model.RoleGuest {
			var errs ValidationErrors
			if req.Profile.Position == "" {
				errs = append(errs, ValidationError{
					Field:   "Position",
					Message: "position is required for guest accounts",
				})
			}
			if req.Profile.LinkedInURL == "" {
				errs = append(errs, ValidationError{
					Field:   "LinkedInUrl",
					Message: "linkedInUrl is required for guest accounts",
				})
			}
			if len(errs) > 0 {
				return errs
			}
			break
		}
	}

	return nil
}

func (v *UserValidator) ValidateLogin(req *model.LoginRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *UserValidator) ValidateToggleFavorite(req *model.ToggleFavoriteRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// validatePassword enforces minimum length plus at least one digit, one
// lowercase and one uppercase letter.
func validatePassword(password string) *ValidationError {
	if len(password) < 6 {
		return &ValidationError{
			Field:   "Password",
			Message: "password must be at least 6 characters",
		}
	}

	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}

	if !hasDigit || !hasLower || !hasUpper {
		return &ValidationError{
			Field:   "Password",
			Message: "password must contain at least one digit, one lowercase and one uppercase letter",
		}
	}

	return nil
}

func (v *UserValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
