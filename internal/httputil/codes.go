package httputil

// Machine-readable error codes returned alongside error messages
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInactiveUser       = "INACTIVE_USER"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeOAuthFailed        = "OAUTH_FAILED"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternalError      = "INTERNAL_ERROR"
)
