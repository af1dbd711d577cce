package repo

import (
	"context"
	"errors"

	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
)

type UserRepo interface {
	Get(ctx context.Context, id string) (*model.UserProfile, error)
	GetOrCreate(ctx context.Context, id, email string) (*model.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	List(ctx context.Context) ([]model.UserProfile, error)
	SetRole(ctx context.Context, id, role string) error
	// SetHourlyRate stores a new rate, or removes the field when rate is nil.
	// Absence must round-trip: a cleared rate is "not set", not zero.
	SetHourlyRate(ctx context.Context, id string, rate *float64) error
}

type userRepo struct{ store docstore.Store }

func NewUserRepo(store docstore.Store) UserRepo {
	return &userRepo{store: store}
}

func (r *userRepo) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	rec, err := r.store.GetDoc(ctx, model.CollectionUsers, id)
	if err != nil {
		return nil, err
	}
	u, err := model.DecodeRecord[model.UserProfile](rec)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetOrCreate(ctx context.Context, id, email string) (*model.UserProfile, error) {
	u, err := r.Get(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	created := &model.UserProfile{ID: id, Email: email, Role: model.RoleMember}
	if err := r.store.SetDoc(ctx, model.CollectionUsers, id, created.Doc()); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	records, err := r.store.GetDocs(ctx,
		docstore.C(model.CollectionUsers).Where("email", docstore.OpEqual, email).WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, docstore.ErrNotFound
	}
	u, err := model.DecodeRecord[model.UserProfile](records[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.UserProfile, error) {
	records, err := r.store.GetDocs(ctx, docstore.C(model.CollectionUsers))
	if err != nil {
		return nil, err
	}
	return model.DecodeRecords[model.UserProfile](records)
}

func (r *userRepo) SetRole(ctx context.Context, id, role string) error {
	return r.store.UpdateDoc(ctx, model.CollectionUsers, id, map[string]any{"role": role})
}

func (r *userRepo) SetHourlyRate(ctx context.Context, id string, rate *float64) error {
	if rate == nil {
		return r.store.UpdateDoc(ctx, model.CollectionUsers, id, map[string]any{
			"hourly_rate": docstore.Delete,
		})
	}
	return r.store.UpdateDoc(ctx, model.CollectionUsers, id, map[string]any{
		"hourly_rate": *rate,
	})
}
