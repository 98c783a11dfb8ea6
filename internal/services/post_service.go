package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/models"
	apperrors "github.com/charlesng35/termfolio/pkg/errors"
)

// CreatePostInput describes the fields needed to create a blog post.
type CreatePostInput struct {
	Slug    string
	Title   string
	Summary string
	Body    string
	Tags    []string
	Publish bool
}

// UpdatePostInput applies a partial update. Nil fields are left untouched.
type UpdatePostInput struct {
	Title   *string
	Summary *string
	Body    *string
	Tags    *[]string
	Publish *bool
}

// PostService manages blog posts for the dashboard and terminal.
type PostService struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewPostService constructs a PostService.
func NewPostService(db *gorm.DB) (*PostService, error) {
	if db == nil {
		return nil, errors.New("post service: db is required")
	}
	return &PostService{db: db, clock: time.Now}, nil
}

// List returns every post, including drafts, for the dashboard.
func (s *PostService) List(ctx context.Context) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("post service: list: %w", err)
	}
	return posts, nil
}

// ListPublished returns published posts, newest first.
func (s *PostService) ListPublished(ctx context.Context) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := s.db.WithContext(ctx).
		Where("published = ?", true).
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("post service: list published: %w", err)
	}
	return posts, nil
}

// Get loads a post by ID.
func (s *PostService) Get(ctx context.Context, id string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).Take(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("Post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("post service: get: %w", err)
	}
	return &post, nil
}

// GetPublishedBySlug loads a published post for the public terminal.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).
		Take(&post, "slug = ? AND published = ?", normalizeSlug(slug), true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("Post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("post service: get by slug: %w", err)
	}
	return &post, nil
}

// Create registers a new post, optionally publishing it immediately.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*models.BlogPost, error) {
	slug := normalizeSlug(input.Slug)
	if slug == "" || strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("Slug and title are required")
	}

	tags, err := marshalStringList(input.Tags)
	if err != nil {
		return nil, fmt.Errorf("post service: encode tags: %w", err)
	}

	post := &models.BlogPost{
		Slug:      slug,
		Title:     strings.TrimSpace(input.Title),
		Summary:   input.Summary,
		Body:      input.Body,
		Tags:      tags,
		Published: input.Publish,
	}

	if input.Publish {
		now := s.clock()
		post.PublishedAt = &now
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("post service: check slug: %w", err)
	}
	if count > 0 {
		return nil, apperrors.ErrConflict
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("post service: create: %w", err)
	}
	return post, nil
}

// Update applies a partial update. Publishing for the first time stamps
// PublishedAt; re-publishing keeps the original timestamp.
func (s *PostService) Update(ctx context.Context, id string, input UpdatePostInput) (*models.BlogPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewBadRequest("Title must not be empty")
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Summary != nil {
		updates["summary"] = *input.Summary
	}
	if input.Body != nil {
		updates["body"] = *input.Body
	}
	if input.Tags != nil {
		tags, err := marshalStringList(*input.Tags)
		if err != nil {
			return nil, fmt.Errorf("post service: encode tags: %w", err)
		}
		updates["tags"] = tags
	}
	if input.Publish != nil {
		updates["published"] = *input.Publish
		if *input.Publish && post.PublishedAt == nil {
			now := s.clock()
			updates["published_at"] = &now
		}
	}

	if len(updates) == 0 {
		return post, nil
	}

	if err := s.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("post service: update: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a post.
func (s *PostService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("post service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("Post not found")
	}
	return nil
}
