package handler

import (
	"github.com/gin-gonic/gin"

	pkgErrors "taskhub/pkg/errors"
	"taskhub/pkg/responses"
)

// writeCreated 级联失败时主实体已提交，随错误一起返回
func writeCreated(c *gin.Context, data interface{}, err error) {
	if err != nil {
		if pkgErrors.HasCode(err, pkgErrors.ErrCodeCascadeFailed) {
			responses.ErrorWithData(c, err, data)
			return
		}
		responses.Error(c, err)
		return
	}
	responses.Created(c, data)
}

// writeResult 同 writeCreated，成功时返回 200
func writeResult(c *gin.Context, data interface{}, err error) {
	if err != nil {
		if pkgErrors.HasCode(err, pkgErrors.ErrCodeCascadeFailed) {
			responses.ErrorWithData(c, err, data)
			return
		}
		responses.Error(c, err)
		return
	}
	responses.Success(c, data)
}
