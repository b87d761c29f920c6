package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/pkg/logger"
	pkgErrors "taskhub/pkg/errors"
	"taskhub/pkg/utils"
)

// Response 统一响应结构
type Response struct {
	Code      int                 `json:"code"`
	ErrorCode pkgErrors.ErrorCode `json:"error_code,omitempty"`
	Message   string              `json:"message"`
	Detail    string              `json:"detail,omitempty"` // 详细错误信息（可选）
	Errors    map[string]string   `json:"errors,omitempty"` // 字段级错误
	Data      interface{}         `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    pkgErrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    pkgErrors.CodeCreated,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应，HTTP状态码与业务错误码一致
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData 带数据的错误响应，用于级联失败时仍返回已提交的主实体
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	appErr := pkgErrors.From(err)

	message := appErr.Message
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error("请求处理失败",
			zap.String("path", c.FullPath()),
			zap.String("error_code", string(appErr.ErrorCode)),
			zap.Error(err),
		)
		_ = c.Error(err)
	}

	c.JSON(appErr.Code, Response{
		Code:      appErr.Code,
		ErrorCode: appErr.ErrorCode,
		Message:   message,
		Errors:    appErr.Fields,
		Data:      data,
	})
}

// ErrorWithDetail 带详细信息的错误响应
func ErrorWithDetail(c *gin.Context, code int, message, detail string) {
	appErr := pkgErrors.New(code, message)
	c.JSON(code, Response{
		Code:      code,
		ErrorCode: appErr.ErrorCode,
		Message:   message,
		Detail:    detail,
	})
}

// BindError 请求绑定/校验失败响应，逐字段返回错误
func BindError(c *gin.Context, err error) {
	Error(c, pkgErrors.ErrValidationError.WithFields(utils.ValidationFields(err)))
}
