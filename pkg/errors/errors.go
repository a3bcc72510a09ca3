package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

// Ambient codes used by transport and infrastructure layers.
const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Domain codes surfaced by the procurement core. Each maps one-to-one to a
// caller-visible failure condition.
const (
	CodeInsufficientPermissions Code = "INSUFFICIENT_PERMISSIONS"
	CodeItemOfAnotherUser       Code = "BOUGHT_ITEM_OF_ANOTHER_USER"
	CodeItemAlreadyPlanned      Code = "BOUGHT_ITEM_ALREADY_PLANNED"
	CodeItemCannotChangeToOpen  Code = "BOUGHT_ITEM_CANNOT_CHANGE_TO_OPEN"
	CodeItemUnknownStatus       Code = "BOUGHT_ITEM_UNKNOWN_STATUS"
	CodeItemRequiredFieldNotSet Code = "BOUGHT_ITEM_REQUIRED_FIELD_NOT_SET"
	CodeItemNotFound            Code = "BOUGHT_ITEM_NOT_FOUND"
	CodeProjectNotFound         Code = "PROJECT_NOT_FOUND"
	CodeProjectInactive         Code = "PROJECT_INACTIVE"
	CodeProjectAlreadyExists    Code = "PROJECT_ALREADY_EXISTS"
	CodeUserDoesNotExist        Code = "USER_DOES_NOT_EXIST"
	CodeUsernameAlreadyExists   Code = "USERNAME_ALREADY_EXISTS"
	CodeEmailAlreadyExists      Code = "EMAIL_ALREADY_EXISTS"
	CodeRfidAlreadyExists       Code = "RFID_ALREADY_EXISTS"
	CodePasswordCriteria        Code = "PASSWORD_CRITERIA_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
	CodeInsufficientPermissions: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "insufficient permissions",
	},
	CodeItemOfAnotherUser: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "bought item belongs to another user",
	},
	CodeItemAlreadyPlanned: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "bought item is already planned",
		DetailsAllowed: true,
	},
	CodeItemCannotChangeToOpen: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "bought item cannot change back to open",
	},
	CodeItemUnknownStatus: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "unknown bought item status",
		DetailsAllowed: true,
	},
	CodeItemRequiredFieldNotSet: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "required field not set",
		DetailsAllowed: true,
	},
	CodeItemNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "bought item not found",
	},
	CodeProjectNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "project not found",
	},
	CodeProjectInactive: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "project is inactive",
	},
	CodeProjectAlreadyExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "project already exists",
	},
	CodeUserDoesNotExist: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "user does not exist",
	},
	CodeUsernameAlreadyExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "username already exists",
	},
	CodeEmailAlreadyExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "email already exists",
	},
	CodeRfidAlreadyExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "rfid already exists",
	},
	CodePasswordCriteria: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "password does not meet criteria",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
