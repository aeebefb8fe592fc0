// Package apperr 定义业务层错误类型
//
// 每个错误携带 HTTP 状态码和可以安全返回给客户端的消息。
// Operational 为 false 的错误（程序错误）在响应边界被替换为
// 通用消息，详细信息只写入日志。
package apperr

import (
	"errors"
	"net/http"
)

// Error 携带状态码的业务错误
type Error struct {
	Status      int    // HTTP 状态码
	Message     string // 客户端可见消息
	Operational bool   // 预期内的业务失败，消息可直接返回
	Err         error  // 内部原因（不返回给客户端）
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建操作型错误
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message, Operational: true}
}

// BadRequest 输入校验失败 (400)
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized 凭证缺失或无效 (401)
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Forbidden 已认证但权限不足 (403)
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound 实体不存在 (404)
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict 唯一性冲突 (409)
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// Upstream 外部依赖（邮件、支付网关）失败 (502)
func Upstream(message string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Message: message, Operational: true, Err: err}
}

// Internal 未预期的程序错误 (500)，消息不会透出
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "something went wrong", Err: err}
}

// From 提取错误链中的 *Error
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
