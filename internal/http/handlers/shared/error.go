package shared

import (
	"errors"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if c.Request != nil && logger.RequestIDFromContext(c.Request.Context()) != "" {
		return logger.WithContext(c.Request.Context())
	}
	if requestID, ok := c.Get(ContextRequestIDKey); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"message", msg,
			"error", err,
		)
	}
	response.Error(c, code, msg)
}

// kindRule 业务错误类别到响应码的映射
type kindRule struct {
	kind error
	code int
}

var serviceKindRules = []kindRule{
	{kind: service.ErrValidation, code: response.CodeBadRequest},
	{kind: service.ErrNotFound, code: response.CodeNotFound},
	{kind: service.ErrInvalidState, code: response.CodeConflict},
	{kind: service.ErrPermission, code: response.CodeForbidden},
}

// RespondServiceError 按错误类别返回响应；未归类的错误记录日志并返回 fallbackMsg
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	if err == nil {
		return
	}
	for _, rule := range serviceKindRules {
		if !errors.Is(err, rule.kind) {
			continue
		}
		if rule.kind == service.ErrValidation {
			response.ErrorWithData(c, rule.code, err.Error(), gin.H{"errors": FieldErrorsOf(err)})
			return
		}
		response.Error(c, rule.code, err.Error())
		return
	}
	RespondError(c, response.CodeInternal, fallbackMsg, err)
}

// FieldErrorsOf 展开字段级校验错误
func FieldErrorsOf(err error) []*service.FieldError {
	var many service.FieldErrors
	if errors.As(err, &many) {
		return many
	}
	var one *service.FieldError
	if errors.As(err, &one) {
		return []*service.FieldError{one}
	}
	return []*service.FieldError{}
}
