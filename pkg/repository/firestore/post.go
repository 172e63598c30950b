package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

type postRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newPostRepository(client *firestore.Client) *postRepository {
	return &postRepository{client: client}
}

func (r *postRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_posts"
	}
	return "posts"
}

func (r *postRepository) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	if p.EventID == "" {
		return nil, goerr.New("post event ID is required")
	}

	created := *p
	if created.ID == "" {
		created.ID = types.NewPostID()
	}
	created.CreatedAt = time.Now().UTC()

	_, err := r.client.Collection(r.collection()).Doc(string(created.ID)).Set(ctx, &created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create post", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *postRepository) ListByEvent(ctx context.Context, eventID types.EventID) ([]*model.Post, error) {
	iter := r.client.Collection(r.collection()).
		Where("EventID", "==", string(eventID)).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var posts []*model.Post
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate posts", goerr.V("eventID", eventID))
		}

		var p model.Post
		if err := docSnap.DataTo(&p); err != nil {
			return nil, goerr.Wrap(err, "failed to decode post", goerr.V("doc_id", docSnap.Ref.ID))
		}

		posts = append(posts, &p)
	}

	return posts, nil
}
