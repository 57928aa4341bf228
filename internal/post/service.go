package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/policy"
	"github.com/hitoshi/blogapi/internal/repository"
	"github.com/hitoshi/blogapi/internal/security"
	"github.com/hitoshi/blogapi/internal/validation"
)

// 認可拒否を記録する際のリソース種別
const (
	ResourcePost    = "post"
	ResourceComment = "comment"
)

// DenialRecorder は認可拒否を記録するインターフェース。
type DenialRecorder interface {
	RecordAuthorizationDenied(resource string)
}

// PostInput は記事の作成・更新の入力。更新時も全項目が必要。
// タイトルはタグを除去したプレーンテキスト、本文は入力どおりに保存する。
type PostInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required,notblank"`
}

// CommentInput はコメントの作成・更新の入力。本文は入力どおりに保存する。
type CommentInput struct {
	Content string `json:"comment" validate:"required,notblank"`
}

// Service は記事・コメントのサービス層。
// 全ての操作は操作ユーザーのIDを明示的に受け取る。
type Service struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	resolver  *Resolver
	sanitizer security.TitleSanitizer
	recorder  DenialRecorder
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	sanitizer security.TitleSanitizer,
	recorder DenialRecorder,
) *Service {
	return &Service{
		posts:     posts,
		comments:  comments,
		resolver:  NewResolver(posts, comments),
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       time.Now,
	}
}

// ListPosts は全ユーザーの記事をコメント付きで返す。
func (s *Service) ListPosts(ctx context.Context, actorID string) ([]*model.Post, error) {
	if actorID == "" {
		return nil, model.NewUnauthorizedError()
	}

	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	if err := s.attachComments(ctx, posts...); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost は指定IDの記事をコメント付きで返す。
func (s *Service) GetPost(ctx context.Context, actorID, postID string) (*model.Post, error) {
	if actorID == "" {
		return nil, model.NewUnauthorizedError()
	}

	p, err := s.resolver.ResolvePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePost は記事を作成する。所有者は常に操作ユーザーになる。
func (s *Service) CreatePost(ctx context.Context, actorID string, in PostInput) (*model.Post, error) {
	if actorID == "" {
		return nil, model.NewUnauthorizedError()
	}

	in.Title = s.sanitizer.SanitizePlain(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	p := &model.Post{
		ID:        uuid.New().String(),
		UserID:    actorID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
		Comments:  []*model.Comment{},
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("記事の作成に失敗しました: %w", err)
	}

	slog.Info("記事を作成しました",
		slog.String("post_id", p.ID),
		slog.String("user_id", actorID),
	)
	return p, nil
}

// UpdatePost は記事のタイトルと本文を更新する。記事の所有者のみ実行できる。
func (s *Service) UpdatePost(ctx context.Context, actorID, postID string, in PostInput) (*model.Post, error) {
	if actorID == "" {
		return nil, model.NewUnauthorizedError()
	}

	p, err := s.postForMutation(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	in.Title = s.sanitizer.SanitizePlain(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	p.Title = in.Title
	p.Content = in.Content
	p.UpdatedAt = s.timestamp()
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}

	if err := s.attachComments(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePost は記事とそのコメントを削除する。記事の所有者のみ実行できる。
func (s *Service) DeletePost(ctx context.Context, actorID, postID string) error {
	if actorID == "" {
		return model.NewUnauthorizedError()
	}

	p, err := s.postForMutation(ctx, actorID, postID)
	if err != nil {
		return err
	}

	removed, err := s.posts.Delete(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}

	slog.Info("記事を削除しました",
		slog.String("post_id", p.ID),
		slog.String("user_id", actorID),
		slog.Int64("deleted_comments", removed),
	)
	return nil
}

// CreateComment は記事にコメントを追加する。認証済みであれば誰でも実行できる。
func (s *Service) CreateComment(ctx context.Context, actorID, postID string, in CommentInput) (*model.Comment, error) {
	if actorID == "" {
		return nil, model.NewUnauthorizedError()
	}

	p, err := s.resolver.ResolvePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	c := &model.Comment{
		ID:        uuid.New().String(),
		PostID:    p.ID,
		UserID:    actorID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return c, nil
}

// UpdateComment はコメントを更新する。コメントの所有者または親記事の所有者が実行できる。
func (s *Service) UpdateComment(ctx context.Context, actorID, postID, commentID string, in CommentInput) (*model.Comment, error) {
	if actorID == "" {
		return nil, model.NewUnauthorizedError()
	}

	_, c, err := s.commentForMutation(ctx, actorID, postID, commentID)
	if err != nil {
		return nil, err
	}

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	c.Content = in.Content
	c.UpdatedAt = s.timestamp()
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	return c, nil
}

// DeleteComment はコメントを削除する。コメントの所有者または親記事の所有者が実行できる。
func (s *Service) DeleteComment(ctx context.Context, actorID, postID, commentID string) error {
	if actorID == "" {
		return model.NewUnauthorizedError()
	}

	p, c, err := s.commentForMutation(ctx, actorID, postID, commentID)
	if err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}

	slog.Info("コメントを削除しました",
		slog.String("comment_id", c.ID),
		slog.String("post_id", p.ID),
		slog.String("user_id", actorID),
		slog.Bool("by_post_owner", !c.IsOwnedBy(actorID)),
	)
	return nil
}

// CheckPostMutation は記事の更新・削除と同じ順序で解決と認可だけを行う。
// リクエストボディが解析できない場合に、INVALID_REQUESTより先に404/403を返すために使う。
func (s *Service) CheckPostMutation(ctx context.Context, actorID, postID string) error {
	if actorID == "" {
		return model.NewUnauthorizedError()
	}
	_, err := s.postForMutation(ctx, actorID, postID)
	return err
}

// CheckCommentTarget はコメント追加先の記事が存在することだけを確認する。
func (s *Service) CheckCommentTarget(ctx context.Context, actorID, postID string) error {
	if actorID == "" {
		return model.NewUnauthorizedError()
	}
	_, err := s.resolver.ResolvePost(ctx, postID)
	return err
}

// CheckCommentMutation はコメントの更新・削除と同じ順序で解決と認可だけを行う。
func (s *Service) CheckCommentMutation(ctx context.Context, actorID, postID, commentID string) error {
	if actorID == "" {
		return model.NewUnauthorizedError()
	}
	_, _, err := s.commentForMutation(ctx, actorID, postID, commentID)
	return err
}

// postForMutation は記事を解決し、操作ユーザーが所有者であることを確認する。
func (s *Service) postForMutation(ctx context.Context, actorID, postID string) (*model.Post, error) {
	p, err := s.resolver.ResolvePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ResourcePost, p.ID, actorID, policy.AuthorizePostMutation(actorID, p)); err != nil {
		return nil, err
	}
	return p, nil
}

// commentForMutation は記事、コメントの順に解決し、変更権限を確認する。
func (s *Service) commentForMutation(ctx context.Context, actorID, postID, commentID string) (*model.Post, *model.Comment, error) {
	p, err := s.resolver.ResolvePost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.resolver.ResolveComment(ctx, p, commentID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(ResourceComment, c.ID, actorID, policy.AuthorizeCommentMutation(actorID, c, p)); err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// authorize は拒否の判定を記録してPermissionDeniedエラーに変換する。
func (s *Service) authorize(resource, resourceID, actorID string, d policy.Decision) error {
	if d.Allowed {
		return nil
	}

	slog.Warn("操作が拒否されました",
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", actorID),
		slog.String("reason", d.Reason),
	)
	if s.recorder != nil {
		s.recorder.RecordAuthorizationDenied(resource)
	}
	return d.Err()
}

// timestamp はTIMESTAMPTZの精度に揃えた現在時刻を返す。
// 作成時のレスポンスと以降の読み出しで日時が一致する。
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// attachComments は記事群のコメントを1回のクエリで取得し、各記事に作成日時順で割り当てる。
func (s *Service) attachComments(ctx context.Context, posts ...*model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	byID := make(map[string]*model.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		p.Comments = []*model.Comment{}
		byID[p.ID] = p
	}

	comments, err := s.comments.ListByPostIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	for _, c := range comments {
		if p, ok := byID[c.PostID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	return nil
}
