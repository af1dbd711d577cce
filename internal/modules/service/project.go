package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/modules/repo"
	"github.com/hourstack-io/hourstack/internal/querycache"
	"github.com/hourstack-io/hourstack/internal/scope"
)

type ProjectService interface {
	List(ctx context.Context, user *scope.Identity, role string) ([]model.Project, error)
	Get(ctx context.Context, user *scope.Identity, role, id string) (*model.Project, error)
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	Delete(ctx context.Context, projectID string) error
	AddMember(ctx context.Context, projectID, userID string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
}

type projectService struct {
	r     repo.ProjectRepo
	store docstore.Store
	cache *querycache.Cache
	cfg   *config.Config
	log   *zap.Logger
}

func NewProjectService(r repo.ProjectRepo, store docstore.Store, cache *querycache.Cache, cfg *config.Config, log *zap.Logger) ProjectService {
	return &projectService{r: r, store: store, cache: cache, cfg: cfg, log: log}
}

func (s *projectService) List(ctx context.Context, user *scope.Identity, role string) ([]model.Project, error) {
	q := scope.ProjectsFor(user, role)
	if q == nil {
		return nil, invalidf("identity is required")
	}
	records, err := s.cache.FetchWithCache(ctx, s.store, q, "", s.cfg.CacheTTL())
	if err != nil {
		return nil, err
	}
	return model.DecodeRecords[model.Project](records)
}

// Get fetches a single project under the same visibility rule as List:
// admins see every project, members only the ones they are assigned to.
func (s *projectService) Get(ctx context.Context, user *scope.Identity, role, id string) (*model.Project, error) {
	if id == "" {
		return nil, invalidf("project id is empty")
	}
	if user == nil || user.ID == "" {
		return nil, invalidf("identity is required")
	}
	project, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && !containsString(project.AssignedUsers, user.ID) {
		return nil, ErrForbidden
	}
	return project, nil
}

type CreateProjectInput struct {
	Name    string
	Creator scope.Identity
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	if in.Name == "" {
		return nil, invalidf("project name is empty")
	}
	if in.Creator.ID == "" {
		return nil, invalidf("creator identity is required")
	}

	// The creator is always a member of the project they create.
	project := &model.Project{
		Name:          in.Name,
		CreatedBy:     in.Creator.ID,
		AssignedUsers: []string{in.Creator.ID},
		TotalHours:    0,
	}

	err := awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		id, err := s.r.Create(ctx, project)
		if err != nil {
			return err
		}
		project.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Clear(model.CollectionProjects)
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, projectID string) error {
	if projectID == "" {
		return invalidf("project id is empty")
	}
	err := awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		return s.r.Delete(ctx, projectID)
	})
	if err != nil {
		return err
	}
	s.cache.Clear(model.CollectionProjects)
	return nil
}

func (s *projectService) AddMember(ctx context.Context, projectID, userID string) error {
	if projectID == "" || userID == "" {
		return invalidf("project id and user id are required")
	}
	err := awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		return s.r.AddMember(ctx, projectID, userID)
	})
	if err != nil {
		return err
	}
	s.cache.Clear(model.CollectionProjects)
	return nil
}

func (s *projectService) RemoveMember(ctx context.Context, projectID, userID string) error {
	if projectID == "" || userID == "" {
		return invalidf("project id and user id are required")
	}
	err := awaitWrite(ctx, s.cfg.WriteTimeout(), func(ctx context.Context) error {
		return s.r.RemoveMember(ctx, projectID, userID)
	})
	if err != nil {
		return err
	}
	s.cache.Clear(model.CollectionProjects)
	return nil
}
