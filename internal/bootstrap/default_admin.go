package bootstrap

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
)

// EnsureDefaultAdmin promotes the configured bootstrap email to admin when
// the service starts. Without at least one admin nobody can manage roles.
func EnsureDefaultAdmin(ctx context.Context, store docstore.Store, cfg *config.Config, log *zap.Logger) error {
	email := cfg.Auth.AdminEmail
	if email == "" {
		return nil
	}

	records, err := store.GetDocs(ctx, docstore.C(model.CollectionUsers).
		Where("email", docstore.OpEqual, email).
		WithLimit(1))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		// The profile is created on first sign-in; nothing to promote yet.
		log.Sugar().Infow("bootstrap admin has not signed in yet", "email", email)
		return nil
	}

	profile, err := model.DecodeRecord[model.UserProfile](records[0])
	if err != nil {
		return err
	}
	if profile.IsAdmin() {
		log.Sugar().Infow("bootstrap admin exists", "user", profile.ID)
		return nil
	}

	err = store.UpdateDoc(ctx, model.CollectionUsers, profile.ID, map[string]any{
		"role": model.RoleAdmin,
	})
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return err
	}
	log.Sugar().Infow("bootstrap admin promoted", "user", profile.ID)
	return nil
}
