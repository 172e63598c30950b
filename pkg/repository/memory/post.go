package memory

import (
	"context"
	"sync"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type postRepository struct {
	mu    sync.RWMutex
	posts map[types.EventID][]*model.Post
}

func newPostRepository() *postRepository {
	return &postRepository{
		posts: make(map[types.EventID][]*model.Post),
	}
}

func (r *postRepository) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	if p.EventID == "" {
		return nil, goerr.New("post event ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := *p
	if created.ID == "" {
		created.ID = types.NewPostID()
	}
	created.CreatedAt = time.Now().UTC()

	r.posts[created.EventID] = append(r.posts[created.EventID], &created)

	result := created
	return &result, nil
}

func (r *postRepository) ListByEvent(ctx context.Context, eventID types.EventID) ([]*model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]*model.Post, 0, len(r.posts[eventID]))
	for _, p := range r.posts[eventID] {
		copied := *p
		posts = append(posts, &copied)
	}

	return posts, nil
}
