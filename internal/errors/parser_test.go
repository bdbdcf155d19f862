package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		context    string
		wantStatus int
		wantCode   string
	}{
		{"record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "get verification", http.StatusNotFound, ResourceNotFound},
		{"sqlite unique email", errors.New("UNIQUE constraint failed: users.email"), "submit verification", http.StatusConflict, AuthEmailExists},
		{"postgres duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "verification_requests_pkey" (SQLSTATE 23505)`), "submit verification", http.StatusConflict, ResourceAlreadyExists},
		{"not null", errors.New(`null value in column "email" violates not-null constraint`), "submit verification", http.StatusBadRequest, ValidationRequired},
		{"network", errors.New("dial tcp 10.0.0.1:5432: connection refused"), "get verification", http.StatusServiceUnavailable, InternalExternalAPI},
		{"unknown", errors.New("boom"), "update verification", http.StatusInternalServerError, InternalServerError},
		{"nil", nil, "", http.StatusInternalServerError, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_NotFoundMessageFollowsContext(t *testing.T) {
	assert.Equal(t, "Document not found", ParseError(gorm.ErrRecordNotFound, "update document").Message)
	assert.Equal(t, "Verification request not found", ParseError(gorm.ErrRecordNotFound, "get verification").Message)
}
