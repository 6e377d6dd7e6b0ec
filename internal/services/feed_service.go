package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/univeil/univeil/internal/models"
	pgrepo "github.com/univeil/univeil/internal/repositories/postgres"
	"github.com/univeil/univeil/internal/utils"
)

type FeedService interface {
	CreatePost(ctx context.Context, userID, body string, photoURLs []string) (*models.Post, error)
	List(ctx context.Context, limit int) ([]models.Post, error)
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error
}

type feedService struct {
	posts pgrepo.PostRepository
}

func NewFeedService(posts pgrepo.PostRepository) FeedService {
	return &feedService{posts: posts}
}

func (s *feedService) CreatePost(ctx context.Context, userID, body string, photoURLs []string) (*models.Post, error) {
	const op = "FeedService.CreatePost"

	body = strings.TrimSpace(body)
	if userID == "" || (body == "" && len(photoURLs) == 0) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a body or at least one photo is required", nil)
	}

	p := &models.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Body:      body,
		PhotoURLs: photoURLs,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create post", err)
	}
	return p, nil
}

func (s *feedService) List(ctx context.Context, limit int) ([]models.Post, error) {
	const op = "FeedService.List"

	rows, err := s.posts.ListRecent(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list posts", err)
	}
	return rows, nil
}

func (s *feedService) Like(ctx context.Context, userID, postID string) error {
	const op = "FeedService.Like"

	if userID == "" || postID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and post_id are required", nil)
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "post not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get post", err)
	}
	if err := s.posts.Like(ctx, postID, userID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to like post", err)
	}
	return nil
}

func (s *feedService) Unlike(ctx context.Context, userID, postID string) error {
	const op = "FeedService.Unlike"

	if userID == "" || postID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and post_id are required", nil)
	}
	if err := s.posts.Unlike(ctx, postID, userID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to unlike post", err)
	}
	return nil
}
