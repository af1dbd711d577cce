package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/scope"
)

type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) UserFromToken(ctx context.Context, token string) (*scope.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scope.Identity), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetOrCreate(ctx context.Context, ident scope.Identity) (*model.UserProfile, error) {
	args := m.Called(ctx, ident)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id string) (*model.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]model.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserProfile), args.Error(1)
}

func (m *MockUserService) UpdateRole(ctx context.Context, userID, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *MockUserService) UpdateRate(ctx context.Context, userID string, rate *float64) error {
	return m.Called(ctx, userID, rate).Error(0)
}

func authRouter(authClient *MockAuthClient, users *MockUserService, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UserAuth(authClient, users, zap.NewNop()))
	if adminOnly {
		r.Use(AdminOnly())
	}
	r.GET("/probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": Profile(c).ID})
	})
	return r
}

func TestUserAuth(t *testing.T) {
	t.Run("missing bearer token", func(t *testing.T) {
		r := authRouter(&MockAuthClient{}, &MockUserService{}, false)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		authClient := &MockAuthClient{}
		authClient.On("UserFromToken", mock.Anything, "bad").Return(nil, errors.New("expired"))
		r := authRouter(authClient, &MockUserService{}, false)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token loads the profile", func(t *testing.T) {
		ident := &scope.Identity{ID: "u1", Email: "u1@example.com"}
		authClient := &MockAuthClient{}
		authClient.On("UserFromToken", mock.Anything, "good").Return(ident, nil)
		users := &MockUserService{}
		users.On("GetOrCreate", mock.Anything, *ident).
			Return(&model.UserProfile{ID: "u1", Role: model.RoleMember}, nil)

		r := authRouter(authClient, users, false)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "u1")
		users.AssertExpectations(t)
	})
}

func TestAdminOnly(t *testing.T) {
	ident := &scope.Identity{ID: "u1", Email: "u1@example.com"}

	setup := func(role string) (*MockAuthClient, *MockUserService) {
		authClient := &MockAuthClient{}
		authClient.On("UserFromToken", mock.Anything, "good").Return(ident, nil)
		users := &MockUserService{}
		users.On("GetOrCreate", mock.Anything, *ident).
			Return(&model.UserProfile{ID: "u1", Role: role}, nil)
		return authClient, users
	}

	t.Run("member is rejected", func(t *testing.T) {
		authClient, users := setup(model.RoleMember)
		r := authRouter(authClient, users, true)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		authClient, users := setup(model.RoleAdmin)
		r := authRouter(authClient, users, true)

		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
