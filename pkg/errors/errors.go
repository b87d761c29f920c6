package errors

import (
	stderrors "errors"
	"fmt"
)

// 错误码（同时作为HTTP状态码）
const (
	CodeSuccess         = 200
	CodeCreated         = 201
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeNotFound        = 404
	CodeInternalError   = 500
	CodeDatabaseError   = 500
	CodeValidationError = 400
)

// ErrorCode 机器可读的错误标识
type ErrorCode string

const (
	ErrCodeBadRequest          ErrorCode = "ERR_BAD_REQUEST"
	ErrCodeValidation          ErrorCode = "ERR_VALIDATION"
	ErrCodeUnauthenticated     ErrorCode = "ERR_UNAUTHENTICATED"
	ErrCodeUnauthorized        ErrorCode = "ERR_UNAUTHORIZED"
	ErrCodeNotFound            ErrorCode = "ERR_NOT_FOUND"
	ErrCodeProjectNotEmpty     ErrorCode = "ERR_PROJECT_NOT_EMPTY"
	ErrCodeTeamLastTeam        ErrorCode = "ERR_TEAM_LAST_TEAM"
	ErrCodeTeamHasProjects     ErrorCode = "ERR_TEAM_HAS_PROJECTS"
	ErrCodeTeamHasOtherMembers ErrorCode = "ERR_TEAM_HAS_OTHER_MEMBERS"
	ErrCodeTaskListNotEmpty    ErrorCode = "ERR_TASK_LIST_NOT_EMPTY"
	ErrCodeTeamOwnerMembership ErrorCode = "ERR_TEAM_OWNER_MEMBERSHIP"
	ErrCodeTaskListScope       ErrorCode = "ERR_TASK_LIST_SCOPE"
	ErrCodeCascadeFailed       ErrorCode = "ERR_CASCADE_FAILED"
	ErrCodeInternal            ErrorCode = "ERR_INTERNAL"
)

// AppError 应用错误
type AppError struct {
	Code      int               `json:"code"`
	ErrorCode ErrorCode         `json:"error_code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"errors,omitempty"`
	Err       error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d %s] %s: %v", e.Code, e.ErrorCode, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d %s] %s", e.Code, e.ErrorCode, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码与消息比较，Wrap 出来的副本与预定义错误视为同一种错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.ErrorCode == t.ErrorCode && e.Message == t.Message
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:      code,
		ErrorCode: defaultErrorCode(code),
		Message:   message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		ErrorCode: defaultErrorCode(code),
		Message:   message,
		Err:       err,
	}
}

// WithErrorCode 返回带指定错误标识的副本
func (e *AppError) WithErrorCode(errorCode ErrorCode) *AppError {
	cp := *e
	cp.ErrorCode = errorCode
	return &cp
}

// WithFields 返回带字段级错误的副本
func (e *AppError) WithFields(fields map[string]string) *AppError {
	cp := *e
	cp.Fields = fields
	return &cp
}

// WithCause 返回包装了底层错误的副本
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// From 将任意错误转换为 AppError，未知错误视为内部错误
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalError.WithCause(err)
}

// HasCode 判断错误链中是否存在指定错误标识
func HasCode(err error, errorCode ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.ErrorCode == errorCode
}

func defaultErrorCode(code int) ErrorCode {
	switch code {
	case CodeBadRequest:
		return ErrCodeBadRequest
	case CodeUnauthorized:
		return ErrCodeUnauthorized
	case CodeNotFound:
		return ErrCodeNotFound
	default:
		return ErrCodeInternal
	}
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "请求参数错误")
	ErrUnauthenticated = New(CodeUnauthorized, "未登录").WithErrorCode(ErrCodeUnauthenticated)
	ErrUnauthorized    = New(CodeUnauthorized, "未授权")
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError   = New(CodeDatabaseError, "数据库错误")
	ErrValidationError = New(CodeValidationError, "数据验证失败").WithErrorCode(ErrCodeValidation)

	// 认证
	ErrInvalidToken    = New(CodeUnauthorized, "无效的Token").WithErrorCode(ErrCodeUnauthenticated)
	ErrTokenExpired    = New(CodeUnauthorized, "Token已过期").WithErrorCode(ErrCodeUnauthenticated)
	ErrSessionExpired  = New(CodeUnauthorized, "会话已失效").WithErrorCode(ErrCodeUnauthenticated)
	ErrGatewayRejected = New(CodeUnauthorized, "身份网关校验失败").WithErrorCode(ErrCodeUnauthenticated)
	ErrUserBlocked     = New(CodeUnauthorized, "用户已被禁用")

	ErrRecordNotFound  = New(CodeNotFound, "记录不存在")
	ErrDuplicateRecord = New(CodeBadRequest, "记录已存在")
	ErrUserNotFound    = New(CodeNotFound, "用户不存在")

	// 具体业务错误
	ErrProjectNotEmpty     = New(CodeBadRequest, "项目下仍有任务列表").WithErrorCode(ErrCodeProjectNotEmpty)
	ErrTeamLastTeam        = New(CodeBadRequest, "不能删除唯一的团队").WithErrorCode(ErrCodeTeamLastTeam)
	ErrTeamHasProjects     = New(CodeBadRequest, "团队下仍有项目").WithErrorCode(ErrCodeTeamHasProjects)
	ErrTeamHasOtherMembers = New(CodeBadRequest, "团队仍有其他成员").WithErrorCode(ErrCodeTeamHasOtherMembers)
	ErrTaskListNotEmpty    = New(CodeBadRequest, "任务列表不为空").WithErrorCode(ErrCodeTaskListNotEmpty)
	ErrTeamOwnerMembership = New(CodeBadRequest, "团队所有者不能移除自己的成员关系").WithErrorCode(ErrCodeTeamOwnerMembership)
	ErrTaskListScope       = New(CodeBadRequest, "任务只能移动到同一项目下的任务列表").WithErrorCode(ErrCodeTaskListScope)
	ErrCascadeFailed       = New(CodeInternalError, "级联创建失败").WithErrorCode(ErrCodeCascadeFailed)
)
