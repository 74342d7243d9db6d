package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthPasswordMismatch   = "AUTH_PASSWORD_MISMATCH"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Businesses (BUSINESS_) ====================
	BusinessNotFound      = "BUSINESS_NOT_FOUND"
	BusinessNotAvailable  = "BUSINESS_NOT_AVAILABLE"
	BusinessLocked        = "BUSINESS_LOCKED"
	BusinessSlugExists    = "BUSINESS_SLUG_EXISTS"
	CategoryNotFound      = "CATEGORY_NOT_FOUND"
	CategoryAlreadyExists = "CATEGORY_ALREADY_EXISTS"
	ServiceNotFound       = "SERVICE_NOT_FOUND"

	// ==================== Cart (CART_) ====================
	CartEmpty           = "CART_EMPTY"
	CartSessionRequired = "CART_SESSION_REQUIRED"

	// ==================== Quotes (QUOTE_) ====================
	QuoteNotFound          = "QUOTE_NOT_FOUND"
	QuoteInvalidAmount     = "QUOTE_INVALID_AMOUNT"
	QuoteInvalidStatus     = "QUOTE_INVALID_STATUS"
	QuoteInvalidTransition = "QUOTE_INVALID_TRANSITION"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
