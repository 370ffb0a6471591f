// Package response defines the JSON envelope returned by the API and the
// canned error responses used by the handlers.
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

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "The request is malformed or contains invalid data.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var ResourceGoneResponse = Response{
	Status:  StatusError,
	Error:   "Resource Gone",
	Message: "The requested URL has expired or was deactivated.",
}

var UnauthorizedResponse = Response{
	Status:  StatusError,
	Error:   "Unauthorized",
	Message: "A valid API key is required to access this resource.",
}

var TooManyRequestsResponse = Response{
	Status:  StatusError,
	Error:   "Too Many Requests",
	Message: "Request rate limit exceeded. Please slow down and try again later.",
}

var CodeExhaustedResponse = Response{
	Status:  StatusError,
	Error:   "Short Code Generation Failed",
	Message: "Could not generate a unique short code. Please retry the request.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

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

type validationError struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Issue string `json:"issue"`
}

// ValidationErrorResponse converts validator errors into a 400 payload that
// names each offending field with a human-readable reason.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request contains invalid fields.",
	}

	for _, ve := range getValidationErrors(err) {
		resp.Details = append(resp.Details, ve)
	}

	return resp
}

// FieldErrorResponse reports a single invalid field with a reason, for
// errors detected outside struct validation.
func FieldErrorResponse(field, value, issue string) Response {
	return Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request contains invalid fields.",
		Details: []any{validationError{Field: field, Value: value, Issue: issue}},
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	errs := make([]validationError, 0, len(validationErrs))

	for _, ve := range validationErrs {
		ferr := validationError{
			Field: ve.Field(),
			Value: fmt.Sprintf("%v", ve.Value()),
		}

		switch ve.Tag() {
		case "required":
			ferr.Issue = "This field is required."
		default:
			ferr.Issue = fmt.Sprintf("Invalid %s.", ve.Tag())
		}

		errs = append(errs, ferr)
	}

	return errs
}
