package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"conversiq-server/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code,omitempty"`
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// DetailResponse is the body used by the query endpoints for input errors.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errorMessage := rootMessage(domainErr)
		if errorMessage == "" || statusCode >= http.StatusInternalServerError {
			errorMessage = message
		}

		_ = reqCtx.Error(domainErr)
		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          string(domainErr.GetErrorType()),
			Error:         errorMessage,
			ErrorInstance: domainErr,
			RequestID:     requestID(reqCtx, domainErr.GetRequestID()),
		})
		return
	}

	_ = reqCtx.Error(err)
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Code:          string(platformerrors.ErrorTypeInternal),
		Error:         message,
		ErrorInstance: err,
		RequestID:     requestID(reqCtx, ""),
	})
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerRoute, errorType, message, nil)
	HandleError(reqCtx, err, message)
}

// HandleDetail aborts with a {"detail": ...} body.
func HandleDetail(reqCtx *gin.Context, statusCode int, detail string) {
	reqCtx.AbortWithStatusJSON(statusCode, DetailResponse{Detail: detail})
}

// rootMessage returns the message of the innermost PlatformError so that
// client-facing text is not prefixed by every layer it passed through.
func rootMessage(err *platformerrors.PlatformError) string {
	msg := err.Message
	var inner *platformerrors.PlatformError
	for cur := err; errors.As(cur.Err, &inner); cur = inner {
		msg = inner.Message
	}
	return msg
}

func requestID(reqCtx *gin.Context, fromErr string) string {
	if fromErr != "" {
		return fromErr
	}
	return platformerrors.RequestIDFromContext(reqCtx.Request.Context())
}
