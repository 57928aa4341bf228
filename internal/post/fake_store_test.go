package post

import (
	"context"
	"sort"
	"sync"

	"github.com/hitoshi/blogapi/internal/model"
	"github.com/hitoshi/blogapi/internal/repository"
)

// memStore はPostRepositoryとCommentRepositoryをメモリ上で実装するテスト用ストア。
type memStore struct {
	mu       sync.Mutex
	posts    map[string]*model.Post
	comments map[string]*model.Comment

	// findErr が設定されている場合、FindByIDはこのエラーを返す
	findErr error
}

func newMemStore() *memStore {
	return &memStore{
		posts:    make(map[string]*model.Post),
		comments: make(map[string]*model.Comment),
	}
}

// postRepo と commentRepo は同じストアを別インターフェースとして公開する。
type postRepo struct{ *memStore }
type commentRepo struct{ *memStore }

var (
	_ repository.PostRepository    = postRepo{}
	_ repository.CommentRepository = commentRepo{}
)

func (r postRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	copied.Comments = nil
	return &copied, nil
}

func (r postRepo) ListAll(ctx context.Context) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Post, 0, len(r.posts))
	for _, p := range r.posts {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r postRepo) Create(ctx context.Context, p *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.posts[p.ID] = &copied
	return nil
}

func (r postRepo) Update(ctx context.Context, p *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[p.ID]
	if !ok {
		return model.NewPostNotFoundError(p.ID)
	}
	stored.Title = p.Title
	stored.Content = p.Content
	stored.UpdatedAt = p.UpdatedAt
	return nil
}

func (r postRepo) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return 0, model.NewPostNotFoundError(id)
	}
	var removed int64
	for cid, c := range r.comments {
		if c.PostID == id {
			delete(r.comments, cid)
			removed++
		}
	}
	delete(r.posts, id)
	return removed, nil
}

func (r commentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	c, ok := r.comments[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r commentRepo) ListByPostIDs(ctx context.Context, postIDs []string) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	var out []*model.Comment
	for _, c := range r.comments {
		if want[c.PostID] {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r commentRepo) Create(ctx context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.comments[c.ID] = &copied
	return nil
}

func (r commentRepo) Update(ctx context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.comments[c.ID]
	if !ok {
		return model.NewCommentNotFoundError(c.ID)
	}
	stored.Content = c.Content
	stored.UpdatedAt = c.UpdatedAt
	return nil
}

func (r commentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return model.NewCommentNotFoundError(id)
	}
	delete(r.comments, id)
	return nil
}
