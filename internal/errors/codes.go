package errors

// Error codes returned in ErrorResponse.Error
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps messages from these codes.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"  // login required
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED" // token expired
	AuthTokenInvalid = "AUTH_TOKEN_INVALID" // malformed or forged token
	AuthEmailExists  = "AUTH_EMAIL_EXISTS"  // account email taken

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"     // role not allowed
	AuthzAccessDenied = "AUTHZ_ACCESS_DENIED" // resource owned by someone else

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Verification (VERIFICATION_) ====================
	VerificationNotFound          = "VERIFICATION_NOT_FOUND"          // unknown request id
	VerificationInvalidTransition = "VERIFICATION_INVALID_TRANSITION" // request already decided
	VerificationInvalidDecision   = "VERIFICATION_INVALID_DECISION"   // decision not approve/reject
	VerificationInvalidStatus     = "VERIFICATION_INVALID_STATUS"     // unknown status filter
	VerificationInvalidPriority   = "VERIFICATION_INVALID_PRIORITY"   // unknown priority filter
	VerificationDuplicate         = "VERIFICATION_DUPLICATE"          // open or approved request exists
	DocumentNotFound              = "DOCUMENT_NOT_FOUND"              // unknown document id
	DocumentInvalidStatus         = "DOCUMENT_INVALID_STATUS"         // not pending/verified/rejected
	ReportNotReady                = "REPORT_NOT_READY"                // scheduler has not run yet

	// ==================== Notification (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
