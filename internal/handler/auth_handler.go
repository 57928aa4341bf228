package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/user"
	"github.com/hitoshi/blogapi/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// RegistrationServiceInterface はユーザー登録のサービスインターフェース。
type RegistrationServiceInterface interface {
	Register(ctx context.Context, in user.RegisterInput) (*model.User, error)
}

// AuthHandler はユーザー登録とトークン発行のHTTPハンドラー。
type AuthHandler struct {
	auth     AuthServiceInterface
	register RegistrationServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(auth AuthServiceInterface, register RegistrationServiceInterface) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		register: register,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// refreshRequest はトークン更新リクエストのボディ。
type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードは含めない。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// tokenPairResponse はログイン成功時のAPIレスポンス。
type tokenPairResponse struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// accessTokenResponse はトークン更新成功時のAPIレスポンス。
type accessTokenResponse struct {
	Access string `json:"access"`
}

// Register はユーザー登録を処理する。
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	u, err := h.register.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	})
}

// Login はメールアドレスとパスワードでトークンペアを発行する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		Refresh: pair.Refresh,
		Access:  pair.Access,
	})
}

// Refresh はリフレッシュトークンから新しいアクセストークンを発行する。
// POST /api/login/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	access, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accessTokenResponse{Access: access})
}
