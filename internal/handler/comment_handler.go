package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/post"
)

// CommentHandler は記事配下のコメント管理のHTTPハンドラー。
type CommentHandler struct {
	service PostServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service PostServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentResponse はコメント情報のAPIレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateComment は記事にコメントを追加する。
// POST /api/posts/{id}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")
	var req post.CommentInput
	if err := decodeJSON(w, r, &req); err != nil {
		rejectMalformedBody(w, r, err, func(ctx context.Context) error {
			return h.service.CheckCommentTarget(ctx, actorID, postID)
		})
		return
	}

	c, err := h.service.CreateComment(r.Context(), actorID, postID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}

// UpdateComment はコメントを更新する。
// PUT /api/posts/{id}/comments/{cid}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	postID, commentID := chi.URLParam(r, "id"), chi.URLParam(r, "cid")
	var req post.CommentInput
	if err := decodeJSON(w, r, &req); err != nil {
		rejectMalformedBody(w, r, err, func(ctx context.Context) error {
			return h.service.CheckCommentMutation(ctx, actorID, postID, commentID)
		})
		return
	}

	c, err := h.service.UpdateComment(r.Context(), actorID, postID, commentID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(c))
}

// DeleteComment はコメントを削除する。
// DELETE /api/posts/{id}/comments/{cid}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteComment(r.Context(), actorID, chi.URLParam(r, "id"), chi.URLParam(r, "cid")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toCommentResponse はmodel.CommentからAPIレスポンスに変換する。
func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		User:      c.UserID,
		Comment:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
