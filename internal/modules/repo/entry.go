package repo

import (
	"context"
	"errors"

	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
)

type EntryRepo interface {
	Get(ctx context.Context, id string) (*model.TimeEntry, error)

	// Create inserts the entry and adds hours to the parent project's
	// total_hours in one store transaction, so the contribution lands
	// exactly once. The project name is denormalized onto the entry.
	Create(ctx context.Context, e *model.TimeEntry, hours float64) (string, error)

	// Delete removes the entry and subtracts hours from the parent project's
	// total_hours, clamped at zero, in one store transaction. Running both
	// inside the transaction is what makes a retried delete safe: either the
	// first attempt committed both writes or neither.
	Delete(ctx context.Context, e *model.TimeEntry, hours float64) error
}

type entryRepo struct{ store docstore.Store }

func NewEntryRepo(store docstore.Store) EntryRepo {
	return &entryRepo{store: store}
}

func (r *entryRepo) Get(ctx context.Context, id string) (*model.TimeEntry, error) {
	rec, err := r.store.GetDoc(ctx, model.CollectionTasks, id)
	if err != nil {
		return nil, err
	}
	e, err := model.DecodeRecord[model.TimeEntry](rec)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entryRepo) Create(ctx context.Context, e *model.TimeEntry, hours float64) (string, error) {
	var id string
	err := r.store.RunTransaction(ctx, func(tx docstore.Store) error {
		rec, err := tx.GetDoc(ctx, model.CollectionProjects, e.ProjectID)
		if err != nil {
			return err
		}
		project, err := model.DecodeRecord[model.Project](rec)
		if err != nil {
			return err
		}

		e.ProjectName = project.Name
		id, err = tx.AddDoc(ctx, model.CollectionTasks, e.Doc())
		if err != nil {
			return err
		}

		return tx.UpdateDoc(ctx, model.CollectionProjects, e.ProjectID, map[string]any{
			"total_hours": project.TotalHours + hours,
		})
	})
	if err != nil {
		return "", err
	}
	e.ID = id
	return id, nil
}

func (r *entryRepo) Delete(ctx context.Context, e *model.TimeEntry, hours float64) error {
	return r.store.RunTransaction(ctx, func(tx docstore.Store) error {
		if err := tx.DeleteDoc(ctx, model.CollectionTasks, e.ID); err != nil {
			return err
		}

		rec, err := tx.GetDoc(ctx, model.CollectionProjects, e.ProjectID)
		if errors.Is(err, docstore.ErrNotFound) {
			// Parent project already gone; nothing left to adjust.
			return nil
		}
		if err != nil {
			return err
		}
		project, err := model.DecodeRecord[model.Project](rec)
		if err != nil {
			return err
		}

		total := project.TotalHours - hours
		if total < 0 {
			total = 0
		}
		return tx.UpdateDoc(ctx, model.CollectionProjects, e.ProjectID, map[string]any{
			"total_hours": total,
		})
	})
}
