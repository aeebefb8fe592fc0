package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"tourbook/internal/apiserver/respond"
	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/model"
)

// resetTokenTTL 密码重置 token 的有效期
const resetTokenTTL = 10 * time.Minute

// UserStore 用户存储接口
type UserStore interface {
	NewUserID() string
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error
	ClearPasswordReset(ctx context.Context, id string) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
}

// Mailer 事务邮件接口
type Mailer interface {
	SendWelcome(ctx context.Context, user *model.User) error
	SendPasswordReset(ctx context.Context, user *model.User, resetURL string) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store  UserStore
	mailer Mailer
	cfg    Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, mailer Mailer, cfg Config) *Handler {
	return &Handler{store: store, mailer: mailer, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("GET /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("POST /api/v1/auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("PATCH /api/v1/auth/reset-password/{token}", h.ResetPassword)

	protect := Protect(h.cfg, h.store)
	mux.Handle("PATCH /api/v1/auth/update-password", protect(http.HandlerFunc(h.UpdatePassword)))
}

// ============================================================================
// 请求类型
// ============================================================================

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Photo           string `json:"photo"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// checkPasswordPair 校验新密码及其确认输入
func checkPasswordPair(password, confirm string) error {
	if len(password) < 8 {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	if password != confirm {
		return apperr.BadRequest("passwords are not the same")
	}
	return nil
}

// createSendToken 签发令牌、写会话 cookie 并返回用户
func (h *Handler) createSendToken(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	SetTokenCookie(w, r, h.cfg, token)
	respond.WithToken(w, status, token, map[string]any{"user": user})
}

// ============================================================================
// Handlers
// ============================================================================

// Signup 用户注册，成功后直接登录
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}

	if err := checkPasswordPair(req.Password, req.PasswordConfirm); err != nil {
		respond.Error(w, err)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}

	user := &model.User{
		ID:           h.store.NewUserID(),
		Name:         req.Name,
		Email:        req.Email,
		Photo:        req.Photo,
		PasswordHash: hash,
		Active:       true,
	}
	user.BeforeSave()
	if err := model.Validate(user); err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		respond.Error(w, err)
		return
	}

	// 欢迎邮件失败不阻塞注册
	go func(u model.User) {
		if err := h.mailer.SendWelcome(context.Background(), &u); err != nil {
			log.Printf("[auth] send welcome mail to %s failed: %v", u.Email, err)
		}
	}(*user)

	log.Printf("[auth] user signed up: %s (%s)", user.Email, user.ID)
	h.createSendToken(w, r, http.StatusCreated, user)
}

// Login 用户登录
// 邮箱不存在和密码错误返回同一条消息，不泄露哪一半错了
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		respond.Error(w, apperr.BadRequest("please provide email and password"))
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		respond.Error(w, apperr.Unauthorized("incorrect email or password"))
		return
	}

	log.Printf("[auth] user logged in: %s", user.Email)
	h.createSendToken(w, r, http.StatusOK, user)
}

// Logout 覆盖会话 cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearTokenCookie(w)
	respond.Message(w, http.StatusOK, "logged out")
}

// ForgotPassword 生成密码重置 token 并发送邮件
// 邮件发送失败时回滚重置字段，不留下无法送达的可用 token
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if user == nil {
		respond.Error(w, apperr.NotFound("there is no user with that email address"))
		return
	}

	plain, tokenHash, err := NewResetToken()
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.store.SetPasswordReset(r.Context(), user.ID, tokenHash, time.Now().Add(resetTokenTTL)); err != nil {
		respond.Error(w, err)
		return
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/auth/reset-password/%s", requestScheme(r), r.Host, plain)
	if err := h.mailer.SendPasswordReset(r.Context(), user, resetURL); err != nil {
		log.Printf("[auth] send reset mail to %s failed: %v", user.Email, err)
		if rbErr := h.store.ClearPasswordReset(r.Context(), user.ID); rbErr != nil {
			log.Printf("[auth] rollback password reset for %s failed: %v", user.ID, rbErr)
		}
		respond.Error(w, apperr.Upstream("there was an error sending the email, try again later", err))
		return
	}

	respond.Message(w, http.StatusOK, "token sent to email")
}

// ResetPassword 用重置 token 设置新密码
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}
	if err := checkPasswordPair(req.Password, req.PasswordConfirm); err != nil {
		respond.Error(w, err)
		return
	}

	tokenHash := model.HashResetToken(r.PathValue("token"))
	user, err := h.store.GetUserByResetToken(r.Context(), tokenHash, time.Now())
	if err != nil {
		respond.Error(w, err)
		return
	}
	if user == nil {
		respond.Error(w, apperr.BadRequest("token is invalid or has expired"))
		return
	}

	if err := h.changePassword(r.Context(), user, req.Password); err != nil {
		respond.Error(w, err)
		return
	}

	log.Printf("[auth] password reset: %s", user.Email)
	h.createSendToken(w, r, http.StatusOK, user)
}

// UpdatePassword 已登录用户修改密码
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if user == nil {
		respond.Error(w, apperr.Unauthorized("you are not logged in, please log in to get access"))
		return
	}

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}
	if !CheckPassword(req.PasswordCurrent, user.PasswordHash) {
		respond.Error(w, apperr.Unauthorized("your current password is wrong"))
		return
	}
	if err := checkPasswordPair(req.Password, req.PasswordConfirm); err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.changePassword(r.Context(), user, req.Password); err != nil {
		respond.Error(w, err)
		return
	}

	log.Printf("[auth] password updated: %s", user.Email)
	h.createSendToken(w, r, http.StatusOK, user)
}

// changePassword 哈希新密码并落库
// changedAt 回拨一秒，保证随后签发的令牌 iat 不早于修改时间
func (h *Handler) changePassword(ctx context.Context, user *model.User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	changedAt := time.Now().Add(-time.Second)
	if err := h.store.UpdateUserPassword(ctx, user.ID, hash, changedAt); err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	return nil
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}
