package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError turns storage and driver errors into a client-safe code and
// message. context names the resource or action, e.g. "create verification".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: getDefaultErrorMessage(context),
		}
	}

	errLower := strings.ToLower(err.Error())

	// 1. GORM
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. Constraint violations (postgres 23505/23503/23502, sqlite UNIQUE/NOT NULL)
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}
	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    ResourceConflict,
			Message: "The referenced record does not exist",
		}
	}
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return parseNotNullError(errLower)
	}

	// 3. Network
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusServiceUnavailable,
			Code:    InternalExternalAPI,
			Message: "A dependent service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") {
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    AuthEmailExists,
			Message: "An account with this email already exists",
		}
	}

	return ErrorInfo{
		Status:  http.StatusConflict,
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

func parseNotNullError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: "Email is required"}
	case strings.Contains(errLower, "name"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: "Name is required"}
	}
	return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: "A required field is missing"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "document"):
		return "Document not found"
	case strings.Contains(contextLower, "verification"):
		return "Verification request not found"
	case strings.Contains(contextLower, "notification"):
		return "Notification not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "The requested record was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "submit"), strings.Contains(contextLower, "create"):
		return "Could not save your submission. Please try again later"
	case strings.Contains(contextLower, "update"):
		return "Could not save the update. Please try again later"
	case strings.Contains(contextLower, "report"):
		return "Could not generate the report. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond writes the parsed error with its mapped status
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, context string) {
	info := ParseError(err, context)
	c.JSON(info.Status, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
