package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"cyclecount/pkg/logger"
	"cyclecount/pkg/model"
	"cyclecount/pkg/roster"
)

var (
	// Location, pallet, SKU and lot codes after sanitization: upper-case
	// alphanumerics with dash separators, e.g. A-01-03 or PLT-004512.
	codeRegex = regexp.MustCompile(`^[0-9A-Z]+(?:-[0-9A-Z]+)*$`)
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

type AssignmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAssignmentValidator(log *logger.Logger) *AssignmentValidator {
	v := validator.New()

	if err := v.RegisterValidation("roster_name", validateRosterName); err != nil {
		log.Fatal("Failed to register 'roster_name' validator",
			"error", err,
		)
	}
	if err := v.RegisterValidation("location_code", validateLocationCode); err != nil {
		log.Fatal("Failed to register 'location_code' validator",
			"error", err,
		)
	}

	log.Info("Assignment validator initialized successfully")

	return &AssignmentValidator{
		validate: v,
		logger:   log,
	}
}

func validateRosterName(fl validator.FieldLevel) bool {
	return roster.IsCounter(fl.Field().String())
}

func validateLocationCode(fl validator.FieldLevel) bool {
	return codeRegex.MatchString(fl.Field().String())
}

func (v *AssignmentValidator) Validate(assignment *model.Assignment) error {
	if err := v.validate.Struct(assignment); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !assignment.LockedUntil.IsZero() && !assignment.CreatedAt.IsZero() {
		if !assignment.LockedUntil.After(assignment.CreatedAt) {
			return ValidationErrors{
				ValidationError{
					Field:   "LockedUntil",
					Message: "locked_until must be after created_at",
				},
			}
		}
	}

	return nil
}

func (v *AssignmentValidator) ValidateUpdate(update *model.AssignmentUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.ExpectedQty != nil && *update.ExpectedQty < 0 {
		return ValidationErrors{
			ValidationError{
				Field:   "ExpectedQty",
				Message: "expected_qty cannot be negative",
			},
		}
	}

	return nil
}

func (v *AssignmentValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "roster_name":
			message = fmt.Sprintf("%s must be a counter on the roster", err.Field())
		case "location_code":
			message = fmt.Sprintf("%s must be an upper-case code like A-01-03", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
