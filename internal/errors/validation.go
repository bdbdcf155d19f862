package errors

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps each failed field of a binding error to a message.
// Errors that are not validation failures (malformed JSON) yield nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "document_status":
		return "Value must be pending, verified or rejected"
	default:
		return "Invalid value"
	}
}

// RespondWithBindingError writes a 400 listing the invalid fields
func RespondWithBindingError(c *gin.Context, err error) {
	RespondWithValidationError(c, FieldErrors(err))
}
