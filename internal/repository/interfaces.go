// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/blogapi/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約に違反した場合に返される。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に使われている場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	// Commentsは埋めない。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// ListAll は全ユーザーの記事をcreated_at昇順で返す。Commentsは埋めない。
	ListAll(ctx context.Context) ([]*model.Post, error)

	// Create は記事を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update は記事のtitle、content、updated_atを更新する。
	// 所有者と作成日時は更新しない。
	Update(ctx context.Context, post *model.Post) error

	// Delete は記事と、その記事に属する全コメントを同一トランザクションで削除する。
	// 削除したコメント数を返す。
	Delete(ctx context.Context, id string) (int64, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByPostIDs は指定記事群のコメントをcreated_at昇順で返す。
	ListByPostIDs(ctx context.Context, postIDs []string) ([]*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// Update はコメントのcontent、updated_atを更新する。
	Update(ctx context.Context, comment *model.Comment) error

	// Delete は指定IDのコメントを削除する。
	Delete(ctx context.Context, id string) error
}
