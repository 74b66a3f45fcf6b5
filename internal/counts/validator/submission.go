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

var codeRegex = regexp.MustCompile(`^[0-9A-Z]+(?:-[0-9A-Z]+)*$`)

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

type SubmissionValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSubmissionValidator(log *logger.Logger) *SubmissionValidator {
	v := validator.New()

	if err := v.RegisterValidation("roster_name", func(fl validator.FieldLevel) bool {
		return roster.IsCounter(fl.Field().String())
	}); err != nil {
		log.Fatal("Failed to register 'roster_name' validator", "error", err)
	}
	if err := v.RegisterValidation("location_code", func(fl validator.FieldLevel) bool {
		return codeRegex.MatchString(fl.Field().String())
	}); err != nil {
		log.Fatal("Failed to register 'location_code' validator", "error", err)
	}

	return &SubmissionValidator{
		validate: v,
		logger:   log,
	}
}

func (v *SubmissionValidator) ValidateRequest(req *model.CountRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *SubmissionValidator) Validate(submission *model.CountSubmission) error {
	if err := v.validate.Struct(submission); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if submission.Variance != submission.CountedQty-submission.ExpectedQty {
		return ValidationErrors{
			ValidationError{
				Field:   "Variance",
				Message: "variance must equal counted_qty minus expected_qty",
			},
		}
	}

	return nil
}

func (v *SubmissionValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
