package application

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/AzielCF/az-posts/pkg/cache"
	"github.com/AzielCF/az-posts/posts/domain"
	"github.com/AzielCF/az-posts/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	allPostsKey   = "posts:all"
	postKeyPrefix = "post:"
)

func postKey(id string) string {
	return postKeyPrefix + id
}

// CachePolicy sets the weight and expiration used for cached posts.
type CachePolicy struct {
	PostWeight       int64
	CollectionWeight int64
	Sliding          time.Duration
	Absolute         time.Duration
}

func DefaultCachePolicy() CachePolicy {
	return CachePolicy{
		PostWeight:       1,
		CollectionWeight: 50,
		Sliding:          5 * time.Minute,
		Absolute:         60 * time.Minute,
	}
}

// PostService coordinates the post store, the remote seed source and the
// in-process cache.
type PostService struct {
	repo       domain.PostRepository
	remote     domain.RemoteSource
	cache      *cache.Cache
	single     cache.EntryOptions
	collection cache.EntryOptions
	notifier   domain.EventNotifier
}

var _ domain.PostUsecase = (*PostService)(nil)

// NewPostService builds the service. remote may be nil, in which case an
// empty store stays empty.
func NewPostService(repo domain.PostRepository, remote domain.RemoteSource, c *cache.Cache, policy CachePolicy) *PostService {
	return &PostService{
		repo:   repo,
		remote: remote,
		cache:  c,
		single: cache.EntryOptions{
			Weight:   policy.PostWeight,
			Sliding:  policy.Sliding,
			Absolute: policy.Absolute,
		},
		collection: cache.EntryOptions{
			Weight:   policy.CollectionWeight,
			Sliding:  policy.Sliding,
			Absolute: policy.Absolute,
		},
		notifier: noopNotifier{},
	}
}

// SetNotifier registers the receiver of post change events.
func (s *PostService) SetNotifier(n domain.EventNotifier) {
	if n == nil {
		n = noopNotifier{}
	}
	s.notifier = n
}

// ListAll returns every post, bootstrapping an empty store from the remote
// source the first time it is needed.
func (s *PostService) ListAll(ctx context.Context) ([]domain.Post, error) {
	val, err := s.cache.GetOrPopulate(ctx, allPostsKey, s.collection, s.loadAll)
	if err != nil {
		return nil, err
	}

	posts, _ := val.([]domain.Post)
	if len(posts) == 0 {
		return []domain.Post{}, nil
	}
	return slices.Clone(posts), nil
}

func (s *PostService) loadAll(ctx context.Context) (any, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) > 0 {
		return posts, nil
	}

	if s.remote == nil {
		return []domain.Post{}, nil
	}

	seed := uniqueByID(s.remote.FetchAll(ctx))
	if len(seed) == 0 {
		logrus.Debug("[POSTS] store empty and remote returned nothing")
		return []domain.Post{}, nil
	}

	err = s.repo.BulkInsert(ctx, seed)
	if errors.Is(err, domain.ErrStoreNotEmpty) {
		logrus.Debug("[POSTS] store filled by another writer during bootstrap, reloading")
		return s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	logrus.Infof("[POSTS] bootstrapped store with %d posts from remote", len(seed))
	s.notifier.Notify(domain.EventPostsBootstrapped, map[string]any{"count": len(seed)})
	return seed, nil
}

// GetByID returns a single post. A missing post is reported as
// domain.ErrPostNotFound and is never cached.
func (s *PostService) GetByID(ctx context.Context, id string) (domain.Post, error) {
	id = strings.TrimSpace(id)
	if err := validations.ValidatePostID(ctx, id); err != nil {
		return domain.Post{}, err
	}

	val, err := s.cache.GetOrPopulate(ctx, postKey(id), s.single, func(ctx context.Context) (any, error) {
		post, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return *post, nil
	})
	if err != nil {
		return domain.Post{}, err
	}
	return val.(domain.Post), nil
}

func (s *PostService) Create(ctx context.Context, request domain.CreatePostRequest) (domain.Post, error) {
	request.ID = strings.TrimSpace(request.ID)
	request.Title = strings.TrimSpace(request.Title)
	request.Content = strings.TrimSpace(request.Content)

	if err := validations.ValidateCreatePost(ctx, request); err != nil {
		return domain.Post{}, err
	}

	post := newPost(request)
	if err := s.repo.Create(ctx, &post); err != nil {
		return domain.Post{}, err
	}

	s.cache.Set(postKey(post.ID), post, s.single)
	s.cache.Update(allPostsKey, func(current any) (any, bool) {
		posts, ok := current.([]domain.Post)
		if !ok || containsPost(posts, post.ID) {
			return nil, false
		}
		next := make([]domain.Post, 0, len(posts)+1)
		next = append(next, posts...)
		return append(next, post), true
	}, s.collection)

	logrus.Debugf("[POSTS] created %s", post.ID)
	s.notifier.Notify(domain.EventPostCreated, post)
	return post, nil
}

func (s *PostService) DeleteByID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := validations.ValidatePostID(ctx, id); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Remove(postKey(id))
	s.cache.Update(allPostsKey, func(current any) (any, bool) {
		posts, ok := current.([]domain.Post)
		if !ok || !containsPost(posts, id) {
			return nil, false
		}
		next := make([]domain.Post, 0, len(posts)-1)
		for _, p := range posts {
			if p.ID != id {
				next = append(next, p)
			}
		}
		return next, true
	}, s.collection)

	logrus.Debugf("[POSTS] deleted %s", id)
	s.notifier.Notify(domain.EventPostDeleted, map[string]string{"id": id})
	return nil
}

func newPost(request domain.CreatePostRequest) domain.Post {
	post := domain.Post{
		ID:              request.ID,
		Title:           request.Title,
		ArticleLink:     optional(request.ArticleLink),
		PublicationDate: request.PublicationDate,
		Creator:         optional(request.Creator),
		Content:         request.Content,
		MediaURL:        optional(request.MediaURL),
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.PublicationDate == nil {
		now := time.Now().UTC()
		post.PublicationDate = &now
	}
	return post
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func containsPost(posts []domain.Post, id string) bool {
	return slices.ContainsFunc(posts, func(p domain.Post) bool { return p.ID == id })
}

// uniqueByID keeps the first post for each id. Posts without id are kept.
func uniqueByID(posts []domain.Post) []domain.Post {
	seen := make(map[string]struct{}, len(posts))
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, any) {}
