package repo

import (
	"context"

	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
)

type ProjectRepo interface {
	Get(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, p *model.Project) (string, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, projectID, userID string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
}

type projectRepo struct{ store docstore.Store }

func NewProjectRepo(store docstore.Store) ProjectRepo {
	return &projectRepo{store: store}
}

func (r *projectRepo) Get(ctx context.Context, id string) (*model.Project, error) {
	rec, err := r.store.GetDoc(ctx, model.CollectionProjects, id)
	if err != nil {
		return nil, err
	}
	p, err := model.DecodeRecord[model.Project](rec)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) (string, error) {
	return r.store.AddDoc(ctx, model.CollectionProjects, p.Doc())
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	return r.store.DeleteDoc(ctx, model.CollectionProjects, id)
}

func (r *projectRepo) AddMember(ctx context.Context, projectID, userID string) error {
	return r.store.ArrayUnion(ctx, model.CollectionProjects, projectID, "assigned_users", userID)
}

func (r *projectRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	return r.store.ArrayRemove(ctx, model.CollectionProjects, projectID, "assigned_users", userID)
}
