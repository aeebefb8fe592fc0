// Package respond 统一响应信封与错误翻译边界
//
// 所有接口返回 {status, data?, results?, token?, message?} 信封：
// status 为 "success"、"fail"（4xx）或 "error"（5xx）。
// Error 是唯一的错误出口：操作型错误返回其携带的消息，
// 程序错误只返回通用消息，细节写入日志。
package respond

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/storage"
)

// Envelope 响应信封
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Data 成功响应，data 为命名资源的映射，如 {"tour": t}
func Data(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Status: "success", Data: data})
}

// List 列表成功响应，附带结果条数
func List(w http.ResponseWriter, results int, data any) {
	writeJSON(w, http.StatusOK, Envelope{Status: "success", Results: &results, Data: data})
}

// WithToken 携带会话令牌的成功响应（注册、登录、密码重置）
func WithToken(w http.ResponseWriter, status int, token string, data any) {
	writeJSON(w, status, Envelope{Status: "success", Token: token, Data: data})
}

// Message 只携带消息的成功响应
func Message(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Status: "success", Message: message})
}

// NoContent 空响应体（删除成功）
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error 错误翻译边界
//
// 存储层领域错误和 apperr 错误翻译为对应状态码；
// 其余错误按程序错误处理，返回通用消息。
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeFail(w, http.StatusNotFound, "resource not found")
		return
	case errors.Is(err, storage.ErrPageOutOfRange):
		writeFail(w, http.StatusNotFound, "this page does not exist")
		return
	case errors.Is(err, storage.ErrDuplicate):
		writeFail(w, http.StatusConflict, "duplicate value for a unique field")
		return
	}

	if e, ok := apperr.From(err); ok {
		if e.Operational {
			writeFail(w, e.Status, e.Message)
			return
		}
		log.Printf("[respond] internal error: %v", err)
		writeFail(w, e.Status, "something went wrong")
		return
	}

	log.Printf("[respond] unexpected error: %v", err)
	writeFail(w, http.StatusInternalServerError, "something went wrong")
}

func writeFail(w http.ResponseWriter, status int, message string) {
	kind := "fail"
	if status >= 500 {
		kind = "error"
	}
	writeJSON(w, status, Envelope{Status: kind, Message: message})
}
