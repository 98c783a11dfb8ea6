package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/models"
	apperrors "github.com/charlesng35/termfolio/pkg/errors"
)

// CreateProjectInput describes the fields needed to create a project.
type CreateProjectInput struct {
	Slug         string
	Name         string
	Description  string
	Technologies []string
	RepoURL      string
	LiveURL      string
	Status       string
	Featured     bool
	SortOrder    int
	Published    bool
}

// UpdateProjectInput applies a partial update. Nil fields are left untouched.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	Technologies *[]string
	RepoURL      *string
	LiveURL      *string
	Status       *string
	Featured     *bool
	SortOrder    *int
	Published    *bool
}

// ProjectService manages portfolio projects for the dashboard and terminal.
type ProjectService struct {
	db *gorm.DB
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *gorm.DB) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db}, nil
}

// List returns every project, including unpublished ones, for the dashboard.
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Order("featured DESC, sort_order ASC, created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project service: list: %w", err)
	}
	return projects, nil
}

// ListPublished returns the projects visible to terminal visitors.
func (s *ProjectService) ListPublished(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("published = ?", true).
		Order("featured DESC, sort_order ASC, created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project service: list published: %w", err)
	}
	return projects, nil
}

// Get loads a project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Take(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("Project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("project service: get: %w", err)
	}
	return &project, nil
}

// GetPublishedBySlug loads a published project for the public terminal.
func (s *ProjectService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Take(&project, "slug = ? AND published = ?", normalizeSlug(slug), true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("Project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("project service: get by slug: %w", err)
	}
	return &project, nil
}

// Create registers a new project.
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	slug := normalizeSlug(input.Slug)
	if slug == "" || strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewBadRequest("Slug and name are required")
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusActive
	}

	technologies, err := marshalStringList(input.Technologies)
	if err != nil {
		return nil, fmt.Errorf("project service: encode technologies: %w", err)
	}

	project := &models.Project{
		Slug:         slug,
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Technologies: technologies,
		RepoURL:      strings.TrimSpace(input.RepoURL),
		LiveURL:      strings.TrimSpace(input.LiveURL),
		Status:       status,
		Featured:     input.Featured,
		SortOrder:    input.SortOrder,
		Published:    input.Published,
	}

	if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("project service: create: %w", err)
	}
	return project, nil
}

// Update applies a partial update to an existing project.
func (s *ProjectService) Update(ctx context.Context, id string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.NewBadRequest("Name must not be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Technologies != nil {
		technologies, err := marshalStringList(*input.Technologies)
		if err != nil {
			return nil, fmt.Errorf("project service: encode technologies: %w", err)
		}
		updates["technologies"] = technologies
	}
	if input.RepoURL != nil {
		updates["repo_url"] = strings.TrimSpace(*input.RepoURL)
	}
	if input.LiveURL != nil {
		updates["live_url"] = strings.TrimSpace(*input.LiveURL)
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.Featured != nil {
		updates["featured"] = *input.Featured
	}
	if input.SortOrder != nil {
		updates["sort_order"] = *input.SortOrder
	}
	if input.Published != nil {
		updates["published"] = *input.Published
	}

	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project service: update: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("project service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("Project not found")
	}
	return nil
}

func (s *ProjectService) ensureSlugFree(ctx context.Context, slug, excludeID string) error {
	query := s.db.WithContext(ctx).Model(&models.Project{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("project service: check slug: %w", err)
	}
	if count > 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func marshalStringList(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
