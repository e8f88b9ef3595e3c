// internal/service/project_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gurkanbulca/projecthub/internal/apperrors"
	"github.com/gurkanbulca/projecthub/internal/database"
	"github.com/gurkanbulca/projecthub/internal/models"
	"github.com/gurkanbulca/projecthub/internal/repository"
)

const msgDuplicateProject = "Project with this name already exists"

// Clock supplies the current time for derived fields.
type Clock func() time.Time

type ProjectService struct {
	repo *repository.ProjectRepository
	now  Clock
}

// NewProjectService builds a service over one connection. A nil clock means
// time.Now.
func NewProjectService(db database.DBTX, now Clock) *ProjectService {
	if now == nil {
		now = time.Now
	}
	return &ProjectService{
		repo: repository.NewProjectRepository(db),
		now:  now,
	}
}

// CreateProject creates a new project
func (s *ProjectService) CreateProject(ctx context.Context, req *models.ProjectCreate) (*models.Project, error) {
	req.Normalize()

	project, err := s.repo.Create(ctx, req)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(msgDuplicateProject)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject returns the project with its task statistics. The two reads are
// not atomic: a project deleted in between surfaces as NotFound.
func (s *ProjectService) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}

	stats, err := s.repo.Statistics(ctx, id, models.DateOf(s.now()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, projectNotFound(id)
		}
		return nil, fmt.Errorf("failed to get project statistics: %w", err)
	}
	project.Statistics = stats
	return project, nil
}

// ListProjects returns one filtered page. Statistics for the whole page are
// fetched with a single grouped query.
func (s *ProjectService) ListProjects(ctx context.Context, filter models.ProjectFilter) (*models.ProjectList, error) {
	filter.Normalize()

	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	ids := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	stats, err := s.repo.StatisticsFor(ctx, ids, models.DateOf(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to get project statistics: %w", err)
	}
	for _, p := range projects {
		p.Statistics = stats[p.ID]
	}

	return &models.ProjectList{
		Items: projects,
		PageInfo: models.PageInfo{
			Total:      total,
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalPages: database.TotalPages(total, filter.PageSize),
		},
	}, nil
}

// UpdateProject applies a sparse patch. Only fields present in req are
// written; updated_at is always stamped.
func (s *ProjectService) UpdateProject(ctx context.Context, id int64, req *models.ProjectUpdate) (*models.Project, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return nil, err
	}

	patch := projectPatch(req)
	if patch.Len() == 0 {
		return nil, apperrors.BadRequest("No fields to update")
	}

	if _, err := s.repo.Update(ctx, id, patch); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(msgDuplicateProject)
		}
		return nil, s.mapNotFound(err, id)
	}

	return s.GetProject(ctx, id)
}

// DeleteProject deletes the project and, through the cascade, its tasks.
func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapNotFound(err, id)
	}
	return nil
}

func (s *ProjectService) ChangeStatus(ctx context.Context, id int64, status models.ProjectStatus) (*models.Project, error) {
	if _, err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return s.GetProject(ctx, id)
}

func (s *ProjectService) mapNotFound(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return projectNotFound(id)
	}
	return fmt.Errorf("project %d: %w", id, err)
}

func projectPatch(req *models.ProjectUpdate) *database.Patch {
	var patch database.Patch

	if v, ok := req.Name.Value(); ok {
		patch.Set("name", v)
	}
	setNullable(&patch, "description", req.Description)
	setNullable(&patch, "start_date", req.StartDate)
	setNullable(&patch, "end_date", req.EndDate)
	if v, ok := req.Status.Value(); ok {
		patch.Set("status", v)
	}

	return &patch
}

// setNullable writes value when present and NULL when explicitly null.
func setNullable[T any](patch *database.Patch, column string, field models.Optional[T]) {
	switch {
	case field.IsNull():
		patch.SetNull(column)
	case field.Set():
		v, _ := field.Value()
		patch.Set(column, v)
	}
}
