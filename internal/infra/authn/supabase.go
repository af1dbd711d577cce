// Package authn resolves bearer tokens to identities through the hosted
// auth provider. The rest of the application only ever sees the resulting
// identity; role and rate come from the users collection, not from here.
package authn

import (
	"context"
	"errors"

	"github.com/supabase-community/auth-go"

	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/scope"
)

// Client resolves an access token to the signed-in identity.
type Client interface {
	UserFromToken(ctx context.Context, token string) (*scope.Identity, error)
}

type supabaseClient struct {
	c auth.Client
}

func New(cfg *config.Config) (Client, error) {
	if cfg.Auth.ProjectRef == "" || cfg.Auth.AnonKey == "" {
		return nil, errors.New("auth.project_ref and auth.anon_key are required")
	}
	return &supabaseClient{c: auth.New(cfg.Auth.ProjectRef, cfg.Auth.AnonKey)}, nil
}

func (s *supabaseClient) UserFromToken(_ context.Context, token string) (*scope.Identity, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	user, err := s.c.WithToken(token).GetUser()
	if err != nil {
		return nil, err
	}
	return &scope.Identity{
		ID:    user.ID.String(),
		Email: user.Email,
	}, nil
}
