package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs a code with a user-facing message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a store or infrastructure error into a user-facing code and
// message without leaking driver details. context names the operation, e.g.
// "create business" or "update quote".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		return parseDuplicateKeyError(lower)
	case strings.Contains(lower, "foreign key constraint"):
		return parseForeignKeyError(lower)
	case strings.Contains(lower, "not null constraint") || strings.Contains(lower, "violates not-null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	case strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout"):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A backing service is unavailable. Please try again shortly",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "users.email") || strings.Contains(lower, "idx_users_email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email already registered"}
	case strings.Contains(lower, "users.username") || strings.Contains(lower, "idx_users_username"):
		return ErrorInfo{Code: AuthUsernameExists, Message: "Username already exists"}
	case strings.Contains(lower, "business_categories"):
		return ErrorInfo{Code: CategoryAlreadyExists, Message: "Category already exists"}
	case strings.Contains(lower, "businesses.slug") || strings.Contains(lower, "idx_businesses_slug"):
		return ErrorInfo{Code: BusinessSlugExists, Message: "Business address is already taken"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "still referenced"):
		return ErrorInfo{Code: ResourceConflict, Message: "Linked records prevent this deletion"}
	case strings.Contains(lower, "category_id"):
		return ErrorInfo{Code: CategoryNotFound, Message: "Category does not exist"}
	case strings.Contains(lower, "business_id"):
		return ErrorInfo{Code: BusinessNotFound, Message: "Business does not exist"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "quote"):
		return "Quote request not found"
	case strings.Contains(lower, "service"):
		return "Service not found"
	case strings.Contains(lower, "category"):
		return "Category not found"
	case strings.Contains(lower, "business"):
		return "Business not found"
	case strings.Contains(lower, "user"):
		return "User not found"
	}
	return "The requested record was not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create") || strings.Contains(lower, "register") || strings.Contains(lower, "submit"):
		return "Could not save. Please try again later"
	case strings.Contains(lower, "update"):
		return "Could not update. Please try again later"
	case strings.Contains(lower, "delete"):
		return "Could not delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond parses err and writes it with the given status.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
