package service

import (
	"time"

	"taskhub/internal/core/event"
	pkgErrors "taskhub/pkg/errors"
)

// cascadeResult 主实体已提交后，级联失败统一转换为 ErrCascadeFailed，其余错误原样返回
func cascadeResult(err error) error {
	if err == nil {
		return nil
	}
	if event.IsCascadeError(err) {
		return pkgErrors.ErrCascadeFailed.WithCause(err)
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// emptyToNil 空字符串表示清空可选字段
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
