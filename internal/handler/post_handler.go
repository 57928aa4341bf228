package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/post"
)

// PostServiceInterface は記事・コメントハンドラーが必要とするサービスインターフェース。
// 全ての操作は操作ユーザーのIDを明示的に受け取る。
type PostServiceInterface interface {
	ListPosts(ctx context.Context, actorID string) ([]*model.Post, error)
	GetPost(ctx context.Context, actorID, postID string) (*model.Post, error)
	CreatePost(ctx context.Context, actorID string, in post.PostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, actorID, postID string, in post.PostInput) (*model.Post, error)
	DeletePost(ctx context.Context, actorID, postID string) error

	CreateComment(ctx context.Context, actorID, postID string, in post.CommentInput) (*model.Comment, error)
	UpdateComment(ctx context.Context, actorID, postID, commentID string, in post.CommentInput) (*model.Comment, error)
	DeleteComment(ctx context.Context, actorID, postID, commentID string) error

	// ボディが解析できない場合に、解決と認可の結果を先に返すための確認
	CheckPostMutation(ctx context.Context, actorID, postID string) error
	CheckCommentTarget(ctx context.Context, actorID, postID string) error
	CheckCommentMutation(ctx context.Context, actorID, postID, commentID string) error
}

// PostHandler は記事管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// postResponse は記事情報のAPIレスポンス。コメントは作成日時順に含める。
type postResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	User      string            `json:"user"`
	Comments  []commentResponse `json:"comments"`
}

// ListPosts は全ユーザーの記事一覧を返す。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	posts, err := h.service.ListPosts(r.Context(), actorID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, toPostResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPost は記事をコメント付きで返す。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetPost(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// CreatePost は記事を作成する。ボディに所有者が含まれていても無視する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req post.PostInput
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	p, err := h.service.CreatePost(r.Context(), actorID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(p))
}

// UpdatePost は記事を更新する。
// PUT /api/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")
	var req post.PostInput
	if err := decodeJSON(w, r, &req); err != nil {
		rejectMalformedBody(w, r, err, func(ctx context.Context) error {
			return h.service.CheckPostMutation(ctx, actorID, postID)
		})
		return
	}

	p, err := h.service.UpdatePost(r.Context(), actorID, postID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// DeletePost は記事とそのコメントを削除する。
// DELETE /api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePost(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toPostResponse はmodel.PostからAPIレスポンスに変換する。
func toPostResponse(p *model.Post) postResponse {
	comments := make([]commentResponse, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, toCommentResponse(c))
	}
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		User:      p.UserID,
		Comments:  comments,
	}
}
