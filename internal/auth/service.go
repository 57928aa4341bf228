// Package auth はパスワード認証、JWTの発行・リフレッシュ・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/repository"
)

// UserFinder は認証に必要なユーザー検索のインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// LoginRecorder はログイン結果を記録するインターフェース。
type LoginRecorder interface {
	RecordLogin(result string)
}

// ログイン結果のラベル
const (
	LoginResultSuccess = "success"
	LoginResultFailure = "failure"
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    UserFinder
	hasher   *PasswordHasher
	tokens   *TokenIssuer
	recorder LoginRecorder
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(users UserFinder, hasher *PasswordHasher, tokens *TokenIssuer, recorder LoginRecorder) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		recorder: recorder,
	}
}

var _ UserFinder = (repository.UserRepository)(nil)

// Login はメールアドレスとパスワードを検証し、トークンペアを発行する。
// 未登録のメールアドレスとパスワード不一致は区別せずINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.verifyCredentials(ctx, NormalizeEmail(email), password)
	if err != nil {
		s.record(LoginResultFailure)
		return nil, err
	}

	pair, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	s.record(LoginResultSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh はリフレッシュトークンを検証し、新しいアクセストークンを発行する。
// トークンのユーザーが既に存在しない場合もINVALID_TOKENを返す。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.userFromToken(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	access, err := s.tokens.Issue(userID, TokenTypeAccess)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return access, nil
}

// Authenticate はアクセストークンを検証し、ユーザーIDを返す。
// 認証ミドルウェアから呼ばれる。
func (s *Service) Authenticate(ctx context.Context, accessToken string) (string, error) {
	return s.userFromToken(ctx, accessToken, TokenTypeAccess)
}

// verifyCredentials はメールアドレスとパスワードの組を検証する。
func (s *Service) verifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		slog.Warn("login failed: unknown email")
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Warn("login failed: password mismatch", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	return user, nil
}

// issueTokenPair はアクセストークンとリフレッシュトークンを発行する。
func (s *Service) issueTokenPair(userID string) (*model.TokenPair, error) {
	access, err := s.tokens.Issue(userID, TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.Issue(userID, TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &model.TokenPair{Access: access, Refresh: refresh}, nil
}

// userFromToken はトークンを検証し、存在するユーザーのIDを返す。
func (s *Service) userFromToken(ctx context.Context, token string, want TokenType) (string, error) {
	if token == "" {
		return "", model.NewInvalidTokenError()
	}

	userID, err := s.tokens.Parse(token, want)
	if errors.Is(err, ErrInvalidToken) {
		slog.Debug("token rejected", slog.String("error", err.Error()))
		return "", model.NewInvalidTokenError()
	}
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewInvalidTokenError()
	}
	return user.ID, nil
}

func (s *Service) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(result)
	}
}
