// Package user はユーザー登録のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/blogapi/internal/auth"
	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/repository"
	"github.com/hitoshi/blogapi/internal/validation"
)

// msgEmailTaken は登録済みメールアドレスに対するフィールドエラーメッセージ。
const msgEmailTaken = "このメールアドレスは既に登録されています。"

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
}

var _ PasswordHasher = (*auth.PasswordHasher)(nil)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	// bcryptは72バイトを超えるパスワードを扱えない
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// Service はユーザー登録のサービス層。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, hasher PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// Register は入力を検証し、新しいユーザーを作成する。
// メールアドレスは正規化してから重複を確認する。
// 返すUserのPasswordHashは空にする。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = auth.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewFieldError("email", msgEmailTaken)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// FindByEmailとCreateの間に同じメールアドレスで登録された場合は一意制約で検出する
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewFieldError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", user.ID),
	)

	user.PasswordHash = ""
	return user, nil
}
