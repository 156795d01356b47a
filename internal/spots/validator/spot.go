package validator

import (
	"errors"
	"fmt"
	"strings"

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

type SpotValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSpotValidator(log *logger.Logger) *SpotValidator {
	return &SpotValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *SpotValidator) Validate(spot *model.Spot) error {
	if err := v.validate.Struct(spot); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	// required_if cannot express "room or office", so the cross-field rule
	// lives here.
	if spot.RequiresDeskCount() && spot.DeskCount == 0 {
		return ValidationErrors{
			ValidationError{
				Field:   "DeskCount",
				Message: fmt.Sprintf("deskCount is required for type %q", spot.Type),
			},
		}
	}

	return nil
}

func (v *SpotValidator) ValidateUpdate(update *model.SpotUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.Location != nil {
		if err := v.validate.Struct(update.Location); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				return v.translateValidationErrors(validationErrs)
			}
			return err
		}
	}

	return nil
}

func (v *SpotValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
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
