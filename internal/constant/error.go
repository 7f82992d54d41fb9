package constant

const (
	ERR_VALIDATION_CODE                 = "VALIDATION_ERROR"
	ERR_INVALID_REQUEST_BODY_ERROR_CODE = "INVALID_REQUEST_BODY_ERROR"
	ERR_INTERNAL_SERVER_ERROR_CODE      = "INTERNAL_SERVER_ERROR"
	ERR_INTERNAL_SERVER_ERROR_MESSAGE   = "Something went wrong. If the problem persists, please contact support"
	ERR_INVALID_REQUEST_BODY_MESSAGE    = "The request is invalid or malformed"
	ERR_NOT_FOUND_ERROR                 = "NOT_FOUND_ERROR"
	ERR_FORBIDDEN_ERROR                 = "FORBIDDEN_ERROR"
	ERR_CONFLICT_ERROR                  = "CONFLICT_ERROR"
)
