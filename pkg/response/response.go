// Package response defines the JSON envelope returned by every API endpoint.
package response

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Predefined error responses for common scenarios.
var (
	EmptyRequestBodyResponse = Response{
		Status:  StatusError,
		Message: "Request body is empty. Please provide necessary data.",
	}

	BadRequestResponse = Response{
		Status:  StatusError,
		Message: "Request body is invalid. Please check the data format.",
	}

	UnauthorizedResponse = Response{
		Status:  StatusError,
		Message: "Authentication is required to access this resource.",
	}

	ResourceNotFoundResponse = Response{
		Status:  StatusError,
		Message: "The requested resource was not found.",
	}

	TooManyRequestsResponse = Response{
		Status:  StatusError,
		Message: "Too many requests. Please try again later.",
	}

	ServerErrorResponse = Response{
		Status:  StatusError,
		Message: "An internal server error occurred. Please try again later.",
	}
)

// Response is the common envelope of API responses.
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Details []validationError `json:"details,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// SuccessResponse builds a success envelope. Only the first data value is used.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ErrorResponse builds an error envelope with a custom message.
func ErrorResponse(msg string) Response {
	return Response{
		Status:  StatusError,
		Message: msg,
	}
}

// validationError describes a single rejected field.
type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

// ValidationErrorResponse builds an error envelope from validator errors.
func ValidationErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Message: "Validation failed. Please check the provided data.",
		Details: getValidationErrors(err),
	}
}

// FieldErrorResponse builds a validation envelope for a single field rejected
// outside of struct validation.
func FieldErrorResponse(field string, value any, issue string) Response {
	return Response{
		Status:  StatusError,
		Message: "Validation failed. Please check the provided data.",
		Details: []validationError{{Field: field, Value: value, Issue: issue}},
	}
}

func getValidationErrors(err error) []validationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	validationErrs := make([]validationError, 0, len(errs))

	for _, e := range errs {
		validationErrs = append(validationErrs, validationError{
			Field: e.Field(),
			Value: e.Value(),
			Issue: issueForTag(e),
		})
	}

	return validationErrs
}

func issueForTag(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "url", "http_url":
		return "Invalid url."
	case "uuid":
		return "Invalid uuid."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", e.Param())
	default:
		return "Invalid value."
	}
}
