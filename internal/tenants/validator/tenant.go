package validator

import (
	"agendabot/internal/scheduling"
	"agendabot/pkg/logger"
	"agendabot/pkg/model"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
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

type TenantValidator struct {
	validate *validator.Validate
}

func NewTenantValidator(log *logger.Logger) *TenantValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator",
			"error", err,
		)
	}

	return &TenantValidator{
		validate: v,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := scheduling.ParseClock(fl.Field().String())
	return err == nil
}

func (v *TenantValidator) Validate(tenant *model.Tenant) error {
	if err := v.validate.Struct(tenant); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(tenant)
}

func (v *TenantValidator) ValidateService(service *model.Service) error {
	if err := v.validate.Struct(service); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *TenantValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "len":
			message = fmt.Sprintf("%s must have exactly %s entries", err.Field(), err.Param())
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", err.Field())
		case "clock":
			message = fmt.Sprintf("%s must be a time in HH:MM format", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a phone number in E.164 format", err.Field())
		case "numeric":
			message = fmt.Sprintf("%s must contain only digits", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be an IANA time zone such as America/Mexico_City", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func (v *TenantValidator) validateBusinessRules(tenant *model.Tenant) error {
	open, err := scheduling.ParseClock(tenant.WorkingHours.OpenTime)
	if err != nil {
		return ValidationErrors{{Field: "OpenTime", Message: err.Error()}}
	}
	closeAt, err := scheduling.ParseClock(tenant.WorkingHours.CloseTime)
	if err != nil {
		return ValidationErrors{{Field: "CloseTime", Message: err.Error()}}
	}
	if open >= closeAt {
		return ValidationErrors{{Field: "CloseTime", Message: "CloseTime must be after OpenTime"}}
	}
	return nil
}
