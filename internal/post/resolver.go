// Package post は記事・コメントの参照解決と、変更操作の手順（解決→認可→検証→反映）を提供する。
package post

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/blogapi/internal/model"
)

// PostFinder は記事をIDで取得するインターフェース。
type PostFinder interface {
	FindByID(ctx context.Context, id string) (*model.Post, error)
}

// CommentFinder はコメントをIDで取得するインターフェース。
type CommentFinder interface {
	FindByID(ctx context.Context, id string) (*model.Comment, error)
}

// Resolver はクライアントが指定したIDを実在するリソースに解決する。
// 見つからない場合はNotFoundを返し、認可判定より先に実行される。
type Resolver struct {
	posts    PostFinder
	comments CommentFinder
}

// NewResolver はResolverを生成する。
func NewResolver(posts PostFinder, comments CommentFinder) *Resolver {
	return &Resolver{posts: posts, comments: comments}
}

// ResolvePost は記事IDを記事に解決する。
// UUIDとして不正なIDは存在し得ないためNotFoundとする。
func (r *Resolver) ResolvePost(ctx context.Context, postID string) (*model.Post, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	p, err := r.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return p, nil
}

// ResolveComment は解決済みの記事の下でコメントIDをコメントに解決する。
// 別の記事に属するコメントは、存在していてもNotFoundとする。
func (r *Resolver) ResolveComment(ctx context.Context, parent *model.Post, commentID string) (*model.Comment, error) {
	if _, err := uuid.Parse(commentID); err != nil {
		return nil, model.NewCommentNotFoundError(commentID)
	}

	c, err := r.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil || !c.BelongsTo(parent.ID) {
		return nil, model.NewCommentNotFoundError(commentID)
	}
	return c, nil
}
