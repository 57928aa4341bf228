package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blogapi/internal/middleware"
	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/post"
	"github.com/hitoshi/blogapi/internal/user"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFn   func(ctx context.Context, email, password string) (*model.TokenPair, error)
	refreshFn func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return "", model.NewInvalidTokenError()
}

// mockRegistrationService はRegistrationServiceInterfaceのモック実装。
type mockRegistrationService struct {
	registerFn func(ctx context.Context, in user.RegisterInput) (*model.User, error)
}

func (m *mockRegistrationService) Register(ctx context.Context, in user.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

// mockPostService はPostServiceInterfaceのモック実装。
type mockPostService struct {
	listPostsFn     func(ctx context.Context, actorID string) ([]*model.Post, error)
	getPostFn       func(ctx context.Context, actorID, postID string) (*model.Post, error)
	createPostFn    func(ctx context.Context, actorID string, in post.PostInput) (*model.Post, error)
	updatePostFn    func(ctx context.Context, actorID, postID string, in post.PostInput) (*model.Post, error)
	deletePostFn    func(ctx context.Context, actorID, postID string) error
	createCommentFn func(ctx context.Context, actorID, postID string, in post.CommentInput) (*model.Comment, error)
	updateCommentFn func(ctx context.Context, actorID, postID, commentID string, in post.CommentInput) (*model.Comment, error)
	deleteCommentFn func(ctx context.Context, actorID, postID, commentID string) error

	checkPostMutationFn    func(ctx context.Context, actorID, postID string) error
	checkCommentTargetFn   func(ctx context.Context, actorID, postID string) error
	checkCommentMutationFn func(ctx context.Context, actorID, postID, commentID string) error
}

func (m *mockPostService) ListPosts(ctx context.Context, actorID string) ([]*model.Post, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx, actorID)
	}
	return nil, nil
}

func (m *mockPostService) GetPost(ctx context.Context, actorID, postID string) (*model.Post, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, actorID, postID)
	}
	return nil, model.NewPostNotFoundError(postID)
}

func (m *mockPostService) CreatePost(ctx context.Context, actorID string, in post.PostInput) (*model.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, actorID, in)
	}
	return nil, nil
}

func (m *mockPostService) UpdatePost(ctx context.Context, actorID, postID string, in post.PostInput) (*model.Post, error) {
	if m.updatePostFn != nil {
		return m.updatePostFn(ctx, actorID, postID, in)
	}
	return nil, model.NewPostNotFoundError(postID)
}

func (m *mockPostService) DeletePost(ctx context.Context, actorID, postID string) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, actorID, postID)
	}
	return nil
}

func (m *mockPostService) CreateComment(ctx context.Context, actorID, postID string, in post.CommentInput) (*model.Comment, error) {
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, actorID, postID, in)
	}
	return nil, nil
}

func (m *mockPostService) UpdateComment(ctx context.Context, actorID, postID, commentID string, in post.CommentInput) (*model.Comment, error) {
	if m.updateCommentFn != nil {
		return m.updateCommentFn(ctx, actorID, postID, commentID, in)
	}
	return nil, model.NewCommentNotFoundError(commentID)
}

func (m *mockPostService) DeleteComment(ctx context.Context, actorID, postID, commentID string) error {
	if m.deleteCommentFn != nil {
		return m.deleteCommentFn(ctx, actorID, postID, commentID)
	}
	return nil
}

func (m *mockPostService) CheckPostMutation(ctx context.Context, actorID, postID string) error {
	if m.checkPostMutationFn != nil {
		return m.checkPostMutationFn(ctx, actorID, postID)
	}
	return nil
}

func (m *mockPostService) CheckCommentTarget(ctx context.Context, actorID, postID string) error {
	if m.checkCommentTargetFn != nil {
		return m.checkCommentTargetFn(ctx, actorID, postID)
	}
	return nil
}

func (m *mockPostService) CheckCommentMutation(ctx context.Context, actorID, postID, commentID string) error {
	if m.checkCommentMutationFn != nil {
		return m.checkCommentMutationFn(ctx, actorID, postID, commentID)
	}
	return nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParams はテスト用にchiのURLパラメータを注入するヘルパー。
// keyとvalueを交互に指定する。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// --- エラーマッピング ---

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewValidationError(nil), http.StatusBadRequest},
		{model.NewInvalidRequestError(), http.StatusBadRequest},
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{model.NewInvalidTokenError(), http.StatusUnauthorized},
		{model.NewPermissionDeniedError("not post owner"), http.StatusForbidden},
		{model.NewPostNotFoundError("x"), http.StatusNotFound},
		{model.NewCommentNotFoundError("x"), http.StatusNotFound},
		{model.NewRateLimitExceededError(), http.StatusTooManyRequests},
		{model.NewInternalError(), http.StatusInternalServerError},
		{&model.APIError{Code: "UNKNOWN"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
			t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

// 内部エラーの詳細がレスポンスに含まれないことを検証する。
func TestHandleServiceError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)

	handleServiceError(w, r, errors.New("pq: password authentication failed for user blog"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "pq:") {
		t.Errorf("body leaks internal error: %s", w.Body.String())
	}
	if body := parseAPIErrorResponse(t, w); body.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInternal)
	}
}

// --- AuthHandler ---

func TestAuthHandler_Register_Created(t *testing.T) {
	var got user.RegisterInput
	reg := &mockRegistrationService{
		registerFn: func(ctx context.Context, in user.RegisterInput) (*model.User, error) {
			got = in
			return &model.User{ID: "user-1", Email: in.Email, Name: in.Name, PasswordHash: "secret-hash"}, nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, reg)

	req := jsonRequest(http.MethodPost, "/api/register", `{"email":"a@example.com","name":"A","password":"password123"}`)
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got.Email != "a@example.com" || got.Name != "A" || got.Password != "password123" {
		t.Errorf("input = %+v", got)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "user-1" || body["email"] != "a@example.com" || body["name"] != "A" {
		t.Errorf("body = %v", body)
	}
	for _, forbidden := range []string{"password", "password_hash", "PasswordHash"} {
		if _, ok := body[forbidden]; ok {
			t.Errorf("response must not include %q", forbidden)
		}
	}
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	reg := &mockRegistrationService{
		registerFn: func(ctx context.Context, in user.RegisterInput) (*model.User, error) {
			return nil, model.NewFieldError("email", "このメールアドレスは既に登録されています。")
		},
	}
	h := NewAuthHandler(&mockAuthService{}, reg)

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(http.MethodPost, "/api/register", `{"email":"a@example.com","name":"A","password":"password123"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := parseAPIErrorResponse(t, w)
	if body.Code != model.ErrCodeValidation || len(body.Fields["email"]) == 0 {
		t.Errorf("body = %+v, want validation error on email", body)
	}
}

func TestAuthHandler_Register_MalformedJSON(t *testing.T) {
	called := false
	reg := &mockRegistrationService{
		registerFn: func(ctx context.Context, in user.RegisterInput) (*model.User, error) {
			called = true
			return nil, nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, reg)

	w := httptest.NewRecorder()
	h.Register(w, jsonRequest(http.MethodPost, "/api/register", `{"email":`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := parseAPIErrorResponse(t, w); body.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequest)
	}
	if called {
		t.Error("service must not be called for malformed JSON")
	}
}

func TestAuthHandler_Login(t *testing.T) {
	authSvc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.TokenPair, error) {
			if email == "a@example.com" && password == "password123" {
				return &model.TokenPair{Access: "access-token", Refresh: "refresh-token"}, nil
			}
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(authSvc, &mockRegistrationService{})

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Login(w, jsonRequest(http.MethodPost, "/api/login", `{"email":"a@example.com","password":"password123"}`))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var body map[string]string
		json.NewDecoder(w.Body).Decode(&body)
		if body["access"] != "access-token" || body["refresh"] != "refresh-token" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Login(w, jsonRequest(http.MethodPost, "/api/login", `{"email":"a@example.com","password":"nope"}`))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if body := parseAPIErrorResponse(t, w); body.Code != model.ErrCodeInvalidCredentials {
			t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidCredentials)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Login(w, jsonRequest(http.MethodPost, "/api/login", `{}`))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		body := parseAPIErrorResponse(t, w)
		if len(body.Fields["email"]) == 0 || len(body.Fields["password"]) == 0 {
			t.Errorf("fields = %v, want errors on email and password", body.Fields)
		}
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	authSvc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (string, error) {
			if refreshToken == "good-refresh" {
				return "new-access", nil
			}
			return "", model.NewInvalidTokenError()
		},
	}
	h := NewAuthHandler(authSvc, &mockRegistrationService{})

	w := httptest.NewRecorder()
	h.Refresh(w, jsonRequest(http.MethodPost, "/api/login/refresh", `{"refresh":"good-refresh"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["access"] != "new-access" {
		t.Errorf("access = %q, want %q", body["access"], "new-access")
	}
	if _, ok := body["refresh"]; ok {
		t.Error("refresh response should only contain access")
	}

	w = httptest.NewRecorder()
	h.Refresh(w, jsonRequest(http.MethodPost, "/api/login/refresh", `{"refresh":"bad"}`))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- PostHandler ---

func TestPostHandler_RequiresUser(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	w := httptest.NewRecorder()
	h.ListPosts(w, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestPostHandler_ListPosts(t *testing.T) {
	svc := &mockPostService{
		listPostsFn: func(ctx context.Context, actorID string) ([]*model.Post, error) {
			return []*model.Post{
				{
					ID: "post-1", UserID: "user-a", Title: "T", Content: "C", CreatedAt: testTime,
					Comments: []*model.Comment{{ID: "c-1", PostID: "post-1", UserID: "user-b", Content: "hi", CreatedAt: testTime}},
				},
				{ID: "post-2", UserID: "user-b", Title: "T2", Content: "C2", CreatedAt: testTime},
			}, nil
		},
	}
	h := NewPostHandler(svc)

	w := httptest.NewRecorder()
	h.ListPosts(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/posts", nil), "user-a"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("len = %d, want 2", len(body))
	}
	first := body[0]
	for _, key := range []string{"id", "title", "content", "created_at", "user", "comments"} {
		if _, ok := first[key]; !ok {
			t.Errorf("post response missing %q", key)
		}
	}
	comments := first["comments"].([]any)
	comment := comments[0].(map[string]any)
	if comment["comment"] != "hi" || comment["user"] != "user-b" {
		t.Errorf("comment = %v", comment)
	}

	// コメントがない記事も空配列を返す
	if c, ok := body[1]["comments"].([]any); !ok || len(c) != 0 {
		t.Errorf("comments of second post = %v, want []", body[1]["comments"])
	}
}

// 作成時の所有者はボディではなく認証ユーザーから決まることを検証する。
func TestPostHandler_CreatePost_IgnoresPayloadOwner(t *testing.T) {
	var gotActor string
	var gotInput post.PostInput
	svc := &mockPostService{
		createPostFn: func(ctx context.Context, actorID string, in post.PostInput) (*model.Post, error) {
			gotActor = actorID
			gotInput = in
			return &model.Post{ID: "post-1", UserID: actorID, Title: in.Title, Content: in.Content, CreatedAt: testTime}, nil
		},
	}
	h := NewPostHandler(svc)

	req := jsonRequest(http.MethodPost, "/api/posts", `{"title":"T","content":"C","user":"someone-else"}`)
	w := httptest.NewRecorder()
	h.CreatePost(w, withUserID(req, "user-a"))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotActor != "user-a" {
		t.Errorf("actor = %q, want %q", gotActor, "user-a")
	}
	if gotInput.Title != "T" || gotInput.Content != "C" {
		t.Errorf("input = %+v", gotInput)
	}

	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if body["user"] != "user-a" {
		t.Errorf("user = %v, want user-a", body["user"])
	}
}

func TestPostHandler_UpdatePost(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", err: nil, wantStatus: http.StatusOK},
		{name: "not owner", err: model.NewPermissionDeniedError("not post owner"), wantStatus: http.StatusForbidden},
		{name: "not found", err: model.NewPostNotFoundError("post-1"), wantStatus: http.StatusNotFound},
		{name: "invalid", err: model.NewFieldError("title", "この項目は必須です。"), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPostID string
			svc := &mockPostService{
				updatePostFn: func(ctx context.Context, actorID, postID string, in post.PostInput) (*model.Post, error) {
					gotPostID = postID
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.Post{ID: postID, UserID: actorID, Title: in.Title, Content: in.Content, CreatedAt: testTime}, nil
				},
			}
			h := NewPostHandler(svc)

			req := jsonRequest(http.MethodPut, "/api/posts/post-1", `{"title":"T","content":"C"}`)
			req = withChiURLParams(withUserID(req, "user-a"), "id", "post-1")
			w := httptest.NewRecorder()
			h.UpdatePost(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotPostID != "post-1" {
				t.Errorf("postID = %q, want %q", gotPostID, "post-1")
			}
		})
	}
}

func TestPostHandler_DeletePost_NoContent(t *testing.T) {
	var gotActor, gotPostID string
	svc := &mockPostService{
		deletePostFn: func(ctx context.Context, actorID, postID string) error {
			gotActor, gotPostID = actorID, postID
			return nil
		},
	}
	h := NewPostHandler(svc)

	req := withChiURLParams(withUserID(httptest.NewRequest(http.MethodDelete, "/api/posts/post-1", nil), "user-a"), "id", "post-1")
	w := httptest.NewRecorder()
	h.DeletePost(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	if gotActor != "user-a" || gotPostID != "post-1" {
		t.Errorf("actor/post = %q/%q", gotActor, gotPostID)
	}
}

func TestPostHandler_GetPost_NotFound(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	req := withChiURLParams(withUserID(httptest.NewRequest(http.MethodGet, "/api/posts/missing", nil), "user-a"), "id", "missing")
	w := httptest.NewRecorder()
	h.GetPost(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body := parseAPIErrorResponse(t, w); body.Code != model.ErrCodePostNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodePostNotFound)
	}
}

// --- CommentHandler ---

func TestCommentHandler_CreateComment(t *testing.T) {
	var gotPostID string
	var gotInput post.CommentInput
	svc := &mockPostService{
		createCommentFn: func(ctx context.Context, actorID, postID string, in post.CommentInput) (*model.Comment, error) {
			gotPostID, gotInput = postID, in
			return &model.Comment{ID: "c-1", PostID: postID, UserID: actorID, Content: in.Content, CreatedAt: testTime}, nil
		},
	}
	h := NewCommentHandler(svc)

	req := jsonRequest(http.MethodPost, "/api/posts/post-1/comments", `{"comment":"nice"}`)
	req = withChiURLParams(withUserID(req, "user-b"), "id", "post-1")
	w := httptest.NewRecorder()
	h.CreateComment(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotPostID != "post-1" || gotInput.Content != "nice" {
		t.Errorf("postID/input = %q/%+v", gotPostID, gotInput)
	}

	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if body["id"] != "c-1" || body["user"] != "user-b" || body["comment"] != "nice" || body["created_at"] == nil {
		t.Errorf("body = %v", body)
	}
}

func TestCommentHandler_UpdateAndDelete_PassIDs(t *testing.T) {
	var updated, deleted [2]string
	svc := &mockPostService{
		updateCommentFn: func(ctx context.Context, actorID, postID, commentID string, in post.CommentInput) (*model.Comment, error) {
			updated = [2]string{postID, commentID}
			return &model.Comment{ID: commentID, PostID: postID, UserID: "user-b", Content: in.Content, CreatedAt: testTime}, nil
		},
		deleteCommentFn: func(ctx context.Context, actorID, postID, commentID string) error {
			deleted = [2]string{postID, commentID}
			return model.NewPermissionDeniedError("not comment owner or post owner")
		},
	}
	h := NewCommentHandler(svc)

	req := jsonRequest(http.MethodPut, "/api/posts/p/comments/c", `{"comment":"edited"}`)
	req = withChiURLParams(withUserID(req, "user-a"), "id", "p", "cid", "c")
	w := httptest.NewRecorder()
	h.UpdateComment(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("update status = %d, want %d", w.Code, http.StatusOK)
	}
	if updated != [2]string{"p", "c"} {
		t.Errorf("update ids = %v", updated)
	}

	req = withChiURLParams(withUserID(httptest.NewRequest(http.MethodDelete, "/api/posts/p/comments/c", nil), "user-c"), "id", "p", "cid", "c")
	w = httptest.NewRecorder()
	h.DeleteComment(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if deleted != [2]string{"p", "c"} {
		t.Errorf("delete ids = %v", deleted)
	}
}

// TestHandlers_MalformedBody_ResolveAndAuthorizeFirst は解析できないボディでも
// 対象リソースの解決と認可の結果が先に返ることを検証する。
func TestHandlers_MalformedBody_ResolveAndAuthorizeFirst(t *testing.T) {
	tests := []struct {
		name       string
		checkErr   error
		wantStatus int
		wantCode   string
	}{
		{name: "resource missing", checkErr: model.NewPostNotFoundError("p"), wantStatus: http.StatusNotFound, wantCode: model.ErrCodePostNotFound},
		{name: "not owner", checkErr: model.NewPermissionDeniedError("not owner"), wantStatus: http.StatusForbidden, wantCode: model.ErrCodePermissionDenied},
		{name: "allowed", checkErr: nil, wantStatus: http.StatusBadRequest, wantCode: model.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checked []string
			svc := &mockPostService{
				updatePostFn: func(ctx context.Context, actorID, postID string, in post.PostInput) (*model.Post, error) {
					t.Error("UpdatePost must not be called for a malformed body")
					return nil, nil
				},
				createCommentFn: func(ctx context.Context, actorID, postID string, in post.CommentInput) (*model.Comment, error) {
					t.Error("CreateComment must not be called for a malformed body")
					return nil, nil
				},
				updateCommentFn: func(ctx context.Context, actorID, postID, commentID string, in post.CommentInput) (*model.Comment, error) {
					t.Error("UpdateComment must not be called for a malformed body")
					return nil, nil
				},
				checkPostMutationFn: func(ctx context.Context, actorID, postID string) error {
					checked = append(checked, "post:"+actorID+":"+postID)
					return tt.checkErr
				},
				checkCommentTargetFn: func(ctx context.Context, actorID, postID string) error {
					checked = append(checked, "target:"+actorID+":"+postID)
					return tt.checkErr
				},
				checkCommentMutationFn: func(ctx context.Context, actorID, postID, commentID string) error {
					checked = append(checked, "comment:"+actorID+":"+postID+":"+commentID)
					return tt.checkErr
				},
			}
			posts := NewPostHandler(svc)
			comments := NewCommentHandler(svc)

			calls := []struct {
				method  string
				handler http.HandlerFunc
			}{
				{http.MethodPut, posts.UpdatePost},
				{http.MethodPost, comments.CreateComment},
				{http.MethodPut, comments.UpdateComment},
			}
			for _, c := range calls {
				req := jsonRequest(c.method, "/api/posts/p", `{"title":`)
				req = withChiURLParams(withUserID(req, "user-a"), "id", "p", "cid", "c")
				w := httptest.NewRecorder()
				c.handler(w, req)

				if w.Code != tt.wantStatus {
					t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
				}
				if body := parseAPIErrorResponse(t, w); body.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
				}
			}

			want := []string{"post:user-a:p", "target:user-a:p", "comment:user-a:p:c"}
			if len(checked) != len(want) {
				t.Fatalf("checks = %v, want %v", checked, want)
			}
			for i := range want {
				if checked[i] != want[i] {
					t.Errorf("checks[%d] = %q, want %q", i, checked[i], want[i])
				}
			}
		})
	}
}

// --- HealthHandler ---

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checker    HealthChecker
		wantStatus int
	}{
		{name: "db up", checker: &mockHealthChecker{}, wantStatus: http.StatusOK},
		{name: "db down", checker: &mockHealthChecker{err: errors.New("refused")}, wantStatus: http.StatusServiceUnavailable},
		{name: "no checker", checker: nil, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandler(tt.checker)(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
